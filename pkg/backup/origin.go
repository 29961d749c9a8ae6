package backup

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// RestoreRule sends restored files whose name contains Match to Dir.
type RestoreRule struct {
	Match string
	Dir   string
}

// DefaultRestoreRules returns the rules for the manifests of an application
// rooted at appRoot with its front end living next to it.
func DefaultRestoreRules(appRoot string) []RestoreRule {
	return []RestoreRule{
		{Match: "package.json", Dir: filepath.Join(appRoot, "..", "front")},
		{Match: "composer.json", Dir: appRoot},
	}
}

// originalPath resolves the default restore target: the recorded original
// path, then the first matching rule, then the backup's own directory.
func (s *Store) originalPath(ctx context.Context, backupPath string, name Name) (string, error) {
	record, err := readRecord(ctx, s.records, filepath.Base(backupPath))
	switch {
	case err == nil && record.OriginalPath != "":
		return record.OriginalPath, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", newError("restore", backupPath, ErrRestoreFailed, err)
	}

	filename := name.OriginalFilename()
	for _, rule := range s.rules {
		if strings.Contains(filename, rule.Match) {
			target, err := filepath.Abs(filepath.Join(rule.Dir, filename))
			if err != nil {
				return "", newError("restore", backupPath, ErrRestoreFailed, err)
			}
			s.l.Debug("restore target from rule", zap.String("match", rule.Match), zap.String("target", target))
			return target, nil
		}
	}
	return filepath.Join(filepath.Dir(backupPath), filename), nil
}
