package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foomo/filebackup/pkg/backup"
	"github.com/foomo/filebackup/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var backupTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	createErr     error
	cleanups      int
	autoCleanup   bool
	retentionDays int
}

func (f *fakeStore) CreateBackup(_ context.Context, sourcePath string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "/backups/" + backup.NewName(sourcePath, backupTime).String(), nil
}

func (f *fakeStore) RestoreFromBackup(context.Context, string) (string, error) {
	return "/app/package.json", nil
}

func (f *fakeStore) RestoreTo(_ context.Context, _, targetPath string) (string, error) {
	return filepath.Abs(targetPath)
}

func (f *fakeStore) CleanupOldBackups(context.Context) (int, error) {
	f.cleanups++
	return 3, nil
}

func (f *fakeStore) CleanupOlderThan(_ context.Context, days int) (int, error) {
	if days < 0 {
		return 0, &backup.Error{Op: "cleanup", Kind: backup.ErrInvalidRetention}
	}
	return 1, nil
}

func (f *fakeStore) GetBackupsForFile(context.Context, string) ([]string, error) {
	return []string{}, nil
}

func (f *fakeStore) BackupDirectory() string { return "/backups" }

func (f *fakeStore) RetentionDays() int { return f.retentionDays }

func (f *fakeStore) AutoCleanup() bool { return f.autoCleanup }

func TestHTTPMethodNotAllowed(t *testing.T) {
	h := handler.NewHTTP(zaptest.NewLogger(t), &fakeStore{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/filebackup/getBackupDirectory", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPUnknownRoute(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/filebackup/nope", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"reply":{"status":404,"code":1,"message":"unknown handler: nope"}}`, rec.Body.String())
}

func TestHTTPInvalidJSON(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/filebackup/createBackup", `{"path":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":2`)
}

func TestHTTPGetBackupDirectory(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/filebackup/getBackupDirectory", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"reply":{"directory":"/backups"}}`, rec.Body.String())
}

func TestHTTPGetBackupsForFileEmpty(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/filebackup/getBackupsForFile", `{"path":"/app/a.txt"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":{"backups":[]}}`, rec.Body.String())

	rec = serve(t, &fakeStore{}, "/filebackup/getBackupsForFile", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing field: path")
}

func TestHTTPCreateBackupAutoCleanup(t *testing.T) {
	store := &fakeStore{autoCleanup: true, retentionDays: 30}
	rec := serve(t, store, "/filebackup/createBackup", `{"path":"/app/package.json"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":{"backup":"/backups/package.backup.20240301-120000.json","cleaned":3}}`, rec.Body.String())
	assert.Equal(t, 1, store.cleanups)

	for _, store := range []*fakeStore{
		{autoCleanup: false, retentionDays: 30},
		{autoCleanup: true, retentionDays: 0},
	} {
		rec := serve(t, store, "/filebackup/createBackup", `{"path":"/app/package.json"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.cleanups)
	}
}

func TestHTTPCreateBackupErrors(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
	}{
		"not found": {err: &backup.Error{Op: "create backup", Kind: backup.ErrSourceNotFound}, status: http.StatusNotFound},
		"duplicate": {err: &backup.Error{Op: "create backup", Kind: backup.ErrDuplicateBackup}, status: http.StatusConflict},
		"copy":      {err: &backup.Error{Op: "create backup", Kind: backup.ErrCopyFailed}, status: http.StatusInternalServerError},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(t, &fakeStore{createErr: tt.err}, "/filebackup/createBackup", `{"path":"/app/a.txt"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := serve(t, &fakeStore{}, "/filebackup/createBackup", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing field: path")
}

func TestHTTPRestoreFromBackup(t *testing.T) {
	rec := serve(t, &fakeStore{}, "/filebackup/restoreFromBackup", `{"backup":"/backups/package.backup.20240301-120000.json"}`)
	assert.JSONEq(t, `{"reply":{"success":true,"restoredTo":"/app/package.json"}}`, rec.Body.String())

	rec = serve(t, &fakeStore{}, "/filebackup/restoreFromBackup", `{"backup":"/backups/package.backup.20240301-120000.json","target":"/tmp/p.json"}`)
	assert.JSONEq(t, `{"reply":{"success":true,"restoredTo":"/tmp/p.json"}}`, rec.Body.String())

	wd, err := os.Getwd()
	require.NoError(t, err)
	rec = serve(t, &fakeStore{}, "/filebackup/restoreFromBackup", `{"backup":"/backups/package.backup.20240301-120000.json","target":"restored/p.json"}`)
	assert.JSONEq(t, `{"reply":{"success":true,"restoredTo":"`+filepath.Join(wd, "restored", "p.json")+`"}}`, rec.Body.String())
}

func TestHTTPRestoreOutsideBackupDirectory(t *testing.T) {
	store, err := backup.New(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	foreign := filepath.Join(dir, "authorized_keys.backup.20240101-000000")
	require.NoError(t, os.WriteFile(foreign, []byte("attacker key"), 0o644))
	target := filepath.Join(dir, "victim", "authorized_keys")

	for _, body := range []string{
		`{"backup":"` + foreign + `","target":"` + target + `"}`,
		`{"backup":"` + foreign + `"}`,
	} {
		rec := serve(t, store, "/filebackup/restoreFromBackup", body)
		assert.Equal(t, http.StatusNotFound, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"code":4`)
	}
	assert.NoFileExists(t, target)
	assert.NoFileExists(t, filepath.Join(dir, "authorized_keys"))
}

func TestHTTPCleanupOldBackups(t *testing.T) {
	rec := serve(t, &fakeStore{retentionDays: 14}, "/filebackup/cleanupOldBackups", `{}`)
	assert.JSONEq(t, `{"reply":{"deleted":3,"retentionDays":14}}`, rec.Body.String())

	rec = serve(t, &fakeStore{retentionDays: 14}, "/filebackup/cleanupOldBackups", `{"retentionDays":2}`)
	assert.JSONEq(t, `{"reply":{"deleted":1,"retentionDays":2}}`, rec.Body.String())

	rec = serve(t, &fakeStore{}, "/filebackup/cleanupOldBackups", `{"retentionDays":-2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPWithBasePath(t *testing.T) {
	h := handler.NewHTTP(zaptest.NewLogger(t), &fakeStore{}, handler.WithBasePath("/api/backups/"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/backups/getBackupDirectory", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusOK, rec.Code)
}

func serve(t *testing.T, store handler.Store, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := handler.NewHTTP(zaptest.NewLogger(t), store)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}
