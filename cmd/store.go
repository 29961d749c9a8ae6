package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/foomo/filebackup/pkg/backup"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func addStoreFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addStoragePathFlag(flags, v)
	addDirectoryFlag(flags, v)
	addRetentionDaysFlag(flags, v)
	addAutoCleanupFlag(flags, v)
	addAppRootFlag(flags, v)
	addRecordsTypeFlag(flags, v)
	addRecordsURLFlag(flags, v)
}

// backupDirectory resolves the configured directory against the storage path
func backupDirectory(v *viper.Viper) string {
	dir := directoryFlag(v)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(storagePathFlag(v), dir)
}

// newStore creates the backup store from the command's configuration
func newStore(cmd *cobra.Command, v *viper.Viper, l *zap.Logger) (*backup.Store, error) {
	if err := readConfig(cmd, v); err != nil {
		return nil, err
	}

	opts := []backup.Option{
		backup.WithRetentionDays(retentionDaysFlag(v)),
		backup.WithAutoCleanup(autoCleanupFlag(v)),
		backup.WithRestoreRules(backup.DefaultRestoreRules(appRootFlag(v))...),
	}

	records, err := createRecordStorage(cmd.Context(), v, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create record storage")
	}
	if records != nil {
		opts = append(opts, backup.WithStorage(records))
	}

	store, err := backup.New(l, backupDirectory(v), opts...)
	if err != nil {
		if records != nil {
			_ = records.Close()
		}
		return nil, err
	}
	return store, nil
}

// createRecordStorage creates the record backend based on the configuration.
// A nil storage selects the filesystem below the backup root.
func createRecordStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (backup.Storage, error) {
	recordsType := recordsTypeFlag(v)
	recordsURL := recordsURLFlag(v)

	// Warn about ignored blob config
	if recordsType != "blob" && recordsURL != "" {
		l.Warn("records url is set but records-type is not 'blob'; blob config will be ignored",
			zap.String("records-type", recordsType),
			zap.String("records-url", recordsURL),
		)
	}

	switch recordsType {
	case "blob":
		if recordsURL == "" {
			return nil, fmt.Errorf("records url is required when records-type is 'blob' (supported schemes: %s)",
				strings.Join(backup.SupportedBlobSchemes, ", "))
		}
		l.Info("using blob record storage", zap.String("url", recordsURL))
		return backup.NewBlobStorage(ctx, recordsURL, "")
	case "filesystem", "":
		l.Debug("using filesystem record storage")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown records type: %s (supported: filesystem, blob)", recordsType)
	}
}
