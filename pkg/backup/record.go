package backup

import (
	"context"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const recordSuffix = ".json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the metadata kept next to every backup.
type Record struct {
	// absolute path of the file the backup was taken from
	OriginalPath string    `json:"originalPath"`
	Backup       string    `json:"backup"`
	CreatedAt    time.Time `json:"createdAt"`
	Size         int64     `json:"size"`
}

func recordKey(backupName string) string {
	return backupName + recordSuffix
}

func writeRecord(ctx context.Context, s Storage, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode record")
	}
	return errors.Wrap(s.Write(ctx, recordKey(r.Backup), data), "failed to write record")
}

func readRecord(ctx context.Context, s Storage, backupName string) (Record, error) {
	var r Record
	data, err := s.Read(ctx, recordKey(backupName))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, errors.Wrapf(err, "failed to decode record %s", backupName)
	}
	return r, nil
}

// recordedBackups returns the backup names for which a record exists.
func recordedBackups(ctx context.Context, s Storage) ([]string, error) {
	keys, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, recordSuffix) {
			names = append(names, strings.TrimSuffix(key, recordSuffix))
		}
	}
	return names, nil
}
