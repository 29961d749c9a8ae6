package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/filebackup/pkg/backup"
	"github.com/foomo/filebackup/pkg/metrics"
	"github.com/foomo/filebackup/requests"
	"github.com/foomo/filebackup/responses"
	httputils "github.com/foomo/keel/utils/net/http"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the backup store as seen by the handler.
type Store interface {
	CreateBackup(ctx context.Context, sourcePath string) (string, error)
	RestoreFromBackup(ctx context.Context, backupPath string) (string, error)
	RestoreTo(ctx context.Context, backupPath, targetPath string) (string, error)
	CleanupOldBackups(ctx context.Context) (int, error)
	CleanupOlderThan(ctx context.Context, days int) (int, error)
	GetBackupsForFile(ctx context.Context, originalPath string) ([]string, error)
	BackupDirectory() string
	RetentionDays() int
	AutoCleanup() bool
}

type (
	HTTP struct {
		l     *zap.Logger
		path  string
		store Store
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns a shiny new web server
func NewHTTP(l *zap.Logger, store Store, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:     l.Named("http"),
		path:  "/filebackup",
		store: store,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.path = strings.TrimSuffix(v, "/")
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputils.ServerError(h.l, w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	if r.Body == nil {
		httputils.BadRequestServerError(h.l, w, r, errors.New("empty request body"))
		return
	}

	bytes, err := io.ReadAll(r.Body)
	if err != nil {
		httputils.BadRequestServerError(h.l, w, r, pkgerrors.Wrap(err, "failed to read incoming request"))
		return
	}

	route := Route(strings.TrimPrefix(r.URL.Path, h.path+"/"))
	status, reply := h.handleRequest(r.Context(), route, bytes)

	replyBytes, err := h.encodeReply(reply)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(replyBytes)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) handleRequest(ctx context.Context, route Route, jsonBytes []byte) (int, interface{}) {
	start := time.Now()

	reply := h.executeRequest(ctx, route, jsonBytes)
	status, result := http.StatusOK, "success"
	if e, ok := reply.(*responses.Error); ok {
		status, result = e.Status, "error"
	}

	metrics.ServiceRequestCounter.WithLabelValues(string(route), result).Inc()
	metrics.ServiceRequestDuration.WithLabelValues(string(route), result).Observe(time.Since(start).Seconds())

	return status, reply
}

func (h *HTTP) executeRequest(ctx context.Context, route Route, jsonBytes []byte) interface{} {
	var (
		reply             interface{}
		apiErr            error
		jsonErr           error
		processIfJSONIsOk = func(err error, processingFunc func()) {
			if err != nil {
				jsonErr = err
				return
			}
			processingFunc()
		}
	)

	switch route {
	case RouteCreateBackup:
		req := &requests.CreateBackup{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply, apiErr = h.createBackup(ctx, req)
		})
	case RouteRestoreFromBackup:
		req := &requests.RestoreFromBackup{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply, apiErr = h.restoreFromBackup(ctx, req)
		})
	case RouteCleanupOldBackups:
		req := &requests.CleanupOldBackups{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply, apiErr = h.cleanupOldBackups(ctx, req)
		})
	case RouteGetBackupsForFile:
		req := &requests.GetBackupsForFile{}
		processIfJSONIsOk(json.Unmarshal(jsonBytes, req), func() {
			reply, apiErr = h.getBackupsForFile(ctx, req)
		})
	case RouteGetBackupDirectory:
		reply = &responses.GetBackupDirectory{Directory: h.store.BackupDirectory()}
	default:
		reply = responses.NewError(http.StatusNotFound, responses.CodeUnknownHandler, "unknown handler: "+string(route))
	}

	// error handling
	if jsonErr != nil {
		h.l.Error("could not read incoming json", zap.Error(jsonErr))
		reply = responses.NewError(http.StatusBadRequest, responses.CodeInvalidJSON, "could not read incoming json "+jsonErr.Error())
	} else if apiErr != nil {
		h.l.Error("an API error occurred", zap.String("route", string(route)), zap.Error(apiErr))
		reply = apiError(apiErr)
	}

	return reply
}

func (h *HTTP) createBackup(ctx context.Context, req *requests.CreateBackup) (*responses.CreateBackup, error) {
	if req.Path == "" {
		return nil, errMissingField("path")
	}
	backupPath, err := h.store.CreateBackup(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	res := &responses.CreateBackup{Backup: backupPath}
	if h.store.AutoCleanup() && h.store.RetentionDays() > 0 {
		// the backup exists, a failing sweep is not the caller's problem
		if res.Cleaned, err = h.store.CleanupOldBackups(ctx); err != nil {
			h.l.Warn("automatic cleanup failed", zap.Error(err))
		}
	}
	return res, nil
}

func (h *HTTP) restoreFromBackup(ctx context.Context, req *requests.RestoreFromBackup) (*responses.RestoreFromBackup, error) {
	if req.Backup == "" {
		return nil, errMissingField("backup")
	}
	var (
		target string
		err    error
	)
	if req.Target != "" {
		target, err = h.store.RestoreTo(ctx, req.Backup, req.Target)
	} else {
		target, err = h.store.RestoreFromBackup(ctx, req.Backup)
	}
	if err != nil {
		return nil, err
	}
	return &responses.RestoreFromBackup{Success: true, RestoredTo: target}, nil
}

func (h *HTTP) getBackupsForFile(ctx context.Context, req *requests.GetBackupsForFile) (*responses.GetBackupsForFile, error) {
	if req.Path == "" {
		return nil, errMissingField("path")
	}
	backups, err := h.store.GetBackupsForFile(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	return &responses.GetBackupsForFile{Backups: backups}, nil
}

func (h *HTTP) cleanupOldBackups(ctx context.Context, req *requests.CleanupOldBackups) (*responses.CleanupOldBackups, error) {
	if req.RetentionDays == nil {
		deleted, err := h.store.CleanupOldBackups(ctx)
		return &responses.CleanupOldBackups{Deleted: deleted, RetentionDays: h.store.RetentionDays()}, err
	}
	deleted, err := h.store.CleanupOlderThan(ctx, *req.RetentionDays)
	return &responses.CleanupOldBackups{Deleted: deleted, RetentionDays: *req.RetentionDays}, err
}

// encodeReply takes an interface and encodes it as JSON
// it returns the resulting JSON and a marshalling error
func (h *HTTP) encodeReply(reply interface{}) (bytes []byte, err error) {
	bytes, err = json.Marshal(map[string]interface{}{
		"reply": reply,
	})
	if err != nil {
		h.l.Error("could not encode reply", zap.Error(err))
	}
	return
}

type missingFieldError string

func (e missingFieldError) Error() string {
	return "missing field: " + string(e)
}

func errMissingField(name string) error {
	return missingFieldError(name)
}

func apiError(err error) *responses.Error {
	var missing missingFieldError
	switch {
	case errors.As(err, &missing):
		return responses.NewError(http.StatusBadRequest, responses.CodeBadRequest, err.Error())
	case errors.Is(err, backup.ErrSourceNotFound), errors.Is(err, backup.ErrBackupNotFound):
		return responses.NewError(http.StatusNotFound, responses.CodeNotFound, err.Error())
	case errors.Is(err, backup.ErrDuplicateBackup):
		return responses.NewError(http.StatusConflict, responses.CodeConflict, err.Error())
	case errors.Is(err, backup.ErrInvalidBackupName), errors.Is(err, backup.ErrInvalidRetention):
		return responses.NewError(http.StatusBadRequest, responses.CodeBadRequest, err.Error())
	default:
		return responses.NewError(http.StatusInternalServerError, responses.CodeInternal, "internal error "+err.Error())
	}
}
