package backup

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/foomo/filebackup/pkg/metrics"
	"github.com/google/renameio"
	"github.com/google/uuid"
	"github.com/juju/clock"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultRetentionDays = 30
	// RecordsDir is the sub directory of the backup root holding records
	RecordsDir    = ".records"
	pendingPrefix = ".pending-"
	// pending files younger than this may still be written to
	pendingGrace = time.Hour
)

type (
	Store struct {
		l             *zap.Logger
		clock         clock.Clock
		dir           *Directory
		retention     *Retention
		retentionDays int
		autoCleanup   bool
		records       Storage
		rules         []RestoreRule
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithClock(v clock.Clock) Option {
	return func(o *Store) {
		o.clock = v
	}
}

func WithRetentionDays(v int) Option {
	return func(o *Store) {
		o.retentionDays = v
	}
}

func WithAutoCleanup(v bool) Option {
	return func(o *Store) {
		o.autoCleanup = v
	}
}

// WithStorage sets the backend for backup records, defaults to the
// filesystem below the backup root.
func WithStorage(v Storage) Option {
	return func(o *Store) {
		o.records = v
	}
}

// WithRestoreRules sets the rules consulted when a backup without record is
// restored to its default location.
func WithRestoreRules(v ...RestoreRule) Option {
	return func(o *Store) {
		o.rules = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New creates a store rooted at root, creating the directory if needed.
func New(l *zap.Logger, root string, opts ...Option) (*Store, error) {
	inst := &Store{
		l:             l.Named("store"),
		clock:         clock.WallClock,
		retentionDays: DefaultRetentionDays,
		autoCleanup:   true,
	}

	for _, opt := range opts {
		opt(inst)
	}

	retention, err := NewRetention(inst.clock, inst.retentionDays)
	if err != nil {
		return nil, newError("new store", root, ErrInvalidRetention, nil)
	}
	inst.retention = retention

	dir, err := NewDirectory(root)
	if err != nil {
		return nil, err
	}
	inst.dir = dir

	if inst.records == nil {
		records, err := NewFilesystemStorage(dir.Join(RecordsDir))
		if err != nil {
			return nil, newError("new store", dir.Join(RecordsDir), ErrDirectoryCreateFailed, err)
		}
		inst.records = records
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (s *Store) BackupDirectory() string {
	return s.dir.Path()
}

func (s *Store) RetentionDays() int {
	return s.retentionDays
}

// AutoCleanup reports whether callers should run cleanup on their own.
func (s *Store) AutoCleanup() bool {
	return s.autoCleanup
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// CreateBackup copies the file at sourcePath into the backup root and returns
// the absolute path of the copy.
func (s *Store) CreateBackup(ctx context.Context, sourcePath string) (string, error) {
	const op = "create backup"

	src, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", s.createFailed(newError(op, sourcePath, ErrSourceNotFound, err))
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", s.createFailed(newError(op, src, ErrSourceNotFound, err))
	} else if !info.Mode().IsRegular() {
		return "", s.createFailed(newError(op, src, ErrSourceNotFound, errors.New("not a regular file")))
	}

	name := NewName(src, s.clock.Now())
	backupPath := s.dir.Join(name.String())
	if err := s.copyToBackup(src, info, name, backupPath); err != nil {
		return "", s.createFailed(err)
	}

	record := Record{
		OriginalPath: src,
		Backup:       name.String(),
		CreatedAt:    name.Timestamp,
		Size:         info.Size(),
	}
	if err := writeRecord(ctx, s.records, record); err != nil {
		err = multierr.Append(err, os.Remove(backupPath))
		return "", s.createFailed(newError(op, backupPath, ErrCopyFailed, err))
	}

	s.l.Info("backup created",
		zap.String("original_file", src),
		zap.String("backup_file", backupPath),
		zap.String("timestamp", name.Timestamp.Format(TimestampLayout)),
	)
	metrics.BackupsCreatedCounter.WithLabelValues().Inc()
	return backupPath, nil
}

// RestoreFromBackup restores the backup to the location it was taken from
// and returns that location.
func (s *Store) RestoreFromBackup(ctx context.Context, backupPath string) (string, error) {
	path, name, err := s.lookupBackup(backupPath)
	if err != nil {
		return "", s.restoreFailed(err)
	}
	target, err := s.originalPath(ctx, path, name)
	if err != nil {
		return "", s.restoreFailed(err)
	}
	if err := s.restore(path, target); err != nil {
		return "", s.restoreFailed(err)
	}
	return target, nil
}

// RestoreTo restores the backup to targetPath, replacing whatever is there,
// and returns the absolute target path.
func (s *Store) RestoreTo(_ context.Context, backupPath, targetPath string) (string, error) {
	path, _, err := s.lookupBackup(backupPath)
	if err != nil {
		return "", s.restoreFailed(err)
	}
	target, err := filepath.Abs(targetPath)
	if err != nil {
		return "", s.restoreFailed(newError("restore", targetPath, ErrRestoreFailed, err))
	}
	if err := s.restore(path, target); err != nil {
		return "", s.restoreFailed(err)
	}
	return target, nil
}

// OriginalPath returns where RestoreFromBackup would restore the backup to.
func (s *Store) OriginalPath(ctx context.Context, backupPath string) (string, error) {
	path, name, err := s.lookupBackup(backupPath)
	if err != nil {
		return "", err
	}
	return s.originalPath(ctx, path, name)
}

// CleanupOldBackups removes backups older than the configured retention days
// and returns the number of removed files.
func (s *Store) CleanupOldBackups(ctx context.Context) (int, error) {
	return s.cleanup(ctx, s.retention)
}

// CleanupOlderThan removes backups older than days and returns the number of
// removed files.
func (s *Store) CleanupOlderThan(ctx context.Context, days int) (int, error) {
	retention, err := NewRetention(s.clock, days)
	if err != nil {
		return 0, newError("cleanup", s.dir.Path(), ErrInvalidRetention, nil)
	}
	return s.cleanup(ctx, retention)
}

// GetBackupsForFile returns the backups of originalPath, newest first.
func (s *Store) GetBackupsForFile(_ context.Context, originalPath string) ([]string, error) {
	type candidate struct {
		name    string
		modTime time.Time
	}

	entries, err := s.dir.Files()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read backup directory %s", s.dir.Path())
	}

	var candidates []candidate
	for _, entry := range entries {
		name, err := ParseName(entry.Name())
		if err != nil || !name.Matches(originalPath) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed since the directory was read
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.After(candidates[j].modTime)
		}
		return candidates[i].name > candidates[j].name
	})

	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, s.dir.Join(c.name))
	}
	return paths, nil
}

// Close releases the record storage.
func (s *Store) Close() error {
	return s.records.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// copyToBackup writes a pending file and links it to backupPath. The link
// fails when backupPath exists, so an existing backup is never replaced and a
// partial copy never carries a backup name.
func (s *Store) copyToBackup(src string, info fs.FileInfo, name Name, backupPath string) (err error) {
	const op = "create backup"

	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return newError(op, src, ErrSourceNotFound, err)
	} else if err != nil {
		return newError(op, src, ErrCopyFailed, err)
	}
	defer in.Close()

	tmp, err := s.pendingFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			err = multierr.Append(err, closeErr)
		}
		if rmErr := os.Remove(tmp.Name()); rmErr != nil {
			s.l.Warn("could not remove pending file", zap.String("file", tmp.Name()), zap.Error(rmErr))
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	if err := os.Chtimes(tmp.Name(), name.Timestamp, name.Timestamp); err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	if err := os.Link(tmp.Name(), backupPath); errors.Is(err, fs.ErrExist) {
		return newError(op, backupPath, ErrDuplicateBackup, nil)
	} else if err != nil {
		return newError(op, backupPath, ErrCopyFailed, err)
	}
	return nil
}

func (s *Store) pendingFile() (*os.File, error) {
	path := s.dir.Join(pendingPrefix + uuid.New().String())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrNotExist) {
		s.l.Warn("backup directory vanished, recreating", zap.String("dir", s.dir.Path()))
		if err := s.dir.Ensure(); err != nil {
			return nil, err
		}
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	}
	if err != nil {
		return nil, newError("create backup", path, ErrCopyFailed, err)
	}
	return f, nil
}

func (s *Store) lookupBackup(backupPath string) (string, Name, error) {
	const op = "restore"

	path, err := filepath.Abs(backupPath)
	if err != nil {
		return "", Name{}, newError(op, backupPath, ErrBackupNotFound, err)
	}
	// only files directly inside the root are backups of this store
	if filepath.Dir(path) != s.dir.Path() {
		return "", Name{}, newError(op, path, ErrBackupNotFound, errors.New("outside backup directory"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", Name{}, newError(op, path, ErrBackupNotFound, err)
	} else if !info.Mode().IsRegular() {
		return "", Name{}, newError(op, path, ErrBackupNotFound, errors.New("not a regular file"))
	}
	name, err := ParseName(filepath.Base(path))
	if errors.Is(err, ErrInvalidBackupName) {
		return "", Name{}, newError(op, path, ErrInvalidBackupName, nil)
	} else if err != nil {
		return "", Name{}, newError(op, path, ErrInvalidBackupName, err)
	}
	return path, name, nil
}

func (s *Store) restore(backupPath, targetPath string) error {
	const op = "restore"

	if err := ensureDir(filepath.Dir(targetPath)); err != nil {
		return err
	}

	in, err := os.Open(backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return newError(op, backupPath, ErrBackupNotFound, err)
	} else if err != nil {
		return newError(op, backupPath, ErrRestoreFailed, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return newError(op, backupPath, ErrRestoreFailed, err)
	}

	pending, err := renameio.TempFile(filepath.Dir(targetPath), targetPath)
	if err != nil {
		return newError(op, targetPath, ErrRestoreFailed, err)
	}
	defer pending.Cleanup() //nolint:errcheck

	if _, err := io.Copy(pending, in); err != nil {
		return newError(op, targetPath, ErrRestoreFailed, err)
	}
	if err := pending.Chmod(info.Mode().Perm()); err != nil {
		return newError(op, targetPath, ErrRestoreFailed, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return newError(op, targetPath, ErrRestoreFailed, err)
	}

	s.l.Info("file restored from backup",
		zap.String("backup_file", backupPath),
		zap.String("restored_to", targetPath),
	)
	metrics.RestoresCounter.WithLabelValues("success").Inc()
	return nil
}

func (s *Store) cleanup(ctx context.Context, retention *Retention) (int, error) {
	start := time.Now()
	cutoff := retention.Cutoff()
	l := s.l.With(
		zap.Int("retention_days", retention.Days()),
		zap.Time("cutoff_date", cutoff),
	)

	entries, err := s.dir.Files()
	if err != nil {
		l.Error("could not read backup directory", zap.Error(err))
		return 0, pkgerrors.Wrapf(err, "failed to read backup directory %s", s.dir.Path())
	}

	var deleted int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		if strings.HasPrefix(entry.Name(), pendingPrefix) {
			s.removeStalePending(l, entry, cutoff)
			continue
		}

		name, err := ParseName(entry.Name())
		if errors.Is(err, ErrInvalidBackupName) {
			continue
		}
		path := s.dir.Join(entry.Name())
		if err != nil {
			l.Warn("could not parse backup file timestamp", zap.String("file", path), zap.Error(err))
			metrics.CleanupSkippedCounter.WithLabelValues("timestamp").Inc()
			continue
		}
		if !retention.Expired(name, cutoff) {
			continue
		}

		if err := os.Remove(path); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			l.Warn("could not remove old backup file", zap.String("file", path), zap.Error(err))
			metrics.CleanupSkippedCounter.WithLabelValues("delete").Inc()
			continue
		}
		deleted++
		l.Info("old backup file cleaned up",
			zap.String("file", path),
			zap.Time("file_date", name.Timestamp),
		)

		if err := s.records.Delete(ctx, recordKey(entry.Name())); err != nil {
			l.Warn("could not remove backup record", zap.String("file", path), zap.Error(err))
		}
	}

	s.pruneRecords(ctx, l)

	metrics.CleanupDeletedCounter.WithLabelValues().Add(float64(deleted))
	metrics.CleanupDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	l.Info("backup cleanup completed", zap.Int("files_cleaned", deleted))
	return deleted, nil
}

// removeStalePending deletes a pending file left behind by an interrupted
// create once it is older than both the cutoff and the grace period.
func (s *Store) removeStalePending(l *zap.Logger, entry fs.DirEntry, cutoff time.Time) {
	info, err := entry.Info()
	if err != nil {
		return
	}
	limit := s.clock.Now().Add(-pendingGrace)
	if cutoff.Before(limit) {
		limit = cutoff
	}
	if !info.ModTime().Before(limit) {
		return
	}
	path := s.dir.Join(entry.Name())
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.Warn("could not remove stale pending file", zap.String("file", path), zap.Error(err))
		return
	}
	l.Info("stale pending file removed", zap.String("file", path), zap.Time("file_date", info.ModTime()))
}

// pruneRecords drops records whose backup has been removed by someone else.
func (s *Store) pruneRecords(ctx context.Context, l *zap.Logger) {
	names, err := recordedBackups(ctx, s.records)
	if err != nil {
		l.Warn("could not list backup records", zap.Error(err))
		return
	}
	for _, name := range names {
		if _, err := os.Lstat(s.dir.Join(name)); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := s.records.Delete(ctx, recordKey(name)); err != nil {
			l.Warn("could not remove orphaned backup record", zap.String("backup", name), zap.Error(err))
			continue
		}
		l.Debug("removed orphaned backup record", zap.String("backup", name))
	}
}

func (s *Store) createFailed(err error) error {
	s.l.Error("backup creation failed", zap.Error(err))
	metrics.BackupsFailedCounter.WithLabelValues(reason(err)).Inc()
	return err
}

func (s *Store) restoreFailed(err error) error {
	s.l.Error("backup restoration failed", zap.Error(err))
	metrics.RestoresCounter.WithLabelValues(reason(err)).Inc()
	return err
}

func reason(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "unknown"
	}
	switch e.Kind {
	case ErrSourceNotFound:
		return "source_not_found"
	case ErrBackupNotFound:
		return "backup_not_found"
	case ErrInvalidBackupName:
		return "invalid_name"
	case ErrDuplicateBackup:
		return "duplicate"
	case ErrDirectoryCreateFailed:
		return "mkdir"
	default:
		return "io"
	}
}
