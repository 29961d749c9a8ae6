package backup

import (
	"errors"
)

var (
	ErrSourceNotFound        = errors.New("source file not found")
	ErrCopyFailed            = errors.New("copy failed")
	ErrBackupNotFound        = errors.New("backup not found")
	ErrRestoreFailed         = errors.New("restore failed")
	ErrTimestampParse        = errors.New("malformed backup timestamp")
	ErrDirectoryCreateFailed = errors.New("directory create failed")
	ErrDuplicateBackup       = errors.New("backup already exists")
	ErrInvalidBackupName     = errors.New("not a backup file name")
	ErrInvalidRetention      = errors.New("retention days must not be negative")
)

// Error is returned by all failing store operations.
// errors.Is matches both Kind and the underlying cause.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
