package backup

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// TimestampLayout is the second resolution layout embedded in backup names.
	TimestampLayout = "20060102-150405"
	nameMarker      = ".backup."
)

// <base>.backup.<segment>[.<ext>]; the base is greedy so it may contain dots itself
var namePattern = regexp.MustCompile(`^(.+)\.backup\.([^.]+)(?:\.([^.]+))?$`)

// Name identifies a single backup of an original file.
type Name struct {
	Base      string
	Ext       string
	Timestamp time.Time
}

// SplitFilename returns base name and extension (without the dot) of a path.
// Dotfiles without a further extension are kept whole as base.
func SplitFilename(path string) (base, ext string) {
	filename := filepath.Base(path)
	ext = filepath.Ext(filename)
	base = strings.TrimSuffix(filename, ext)
	if base == "" {
		return filename, ""
	}
	return base, strings.TrimPrefix(ext, ".")
}

// NewName builds the name of a backup of path taken at t.
func NewName(path string, t time.Time) Name {
	base, ext := SplitFilename(path)
	return Name{
		Base:      base,
		Ext:       ext,
		Timestamp: t.UTC().Truncate(time.Second),
	}
}

func (n Name) String() string {
	s := n.Base + nameMarker + n.Timestamp.UTC().Format(TimestampLayout)
	if n.Ext != "" {
		s += "." + n.Ext
	}
	return s
}

// OriginalFilename returns the file name the backup was taken from.
func (n Name) OriginalFilename() string {
	if n.Ext == "" {
		return n.Base
	}
	return n.Base + "." + n.Ext
}

// Matches reports whether n is a backup of the file at path.
func (n Name) Matches(path string) bool {
	base, ext := SplitFilename(path)
	return n.Base == base && n.Ext == ext
}

// ParseName decodes a backup file name. It returns ErrInvalidBackupName if
// the name does not have the backup shape at all and ErrTimestampParse if
// only the timestamp segment is malformed.
func ParseName(filename string) (Name, error) {
	m := namePattern.FindStringSubmatch(filename)
	if m == nil {
		return Name{}, ErrInvalidBackupName
	}
	ts, err := time.ParseInLocation(TimestampLayout, m[2], time.UTC)
	if err != nil {
		return Name{Base: m[1], Ext: m[3]}, ErrTimestampParse
	}
	return Name{Base: m[1], Ext: m[3], Timestamp: ts}, nil
}
