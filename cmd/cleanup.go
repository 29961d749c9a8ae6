package cmd

import (
	"fmt"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewCleanupCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger().Named("cmd.cleanup")

			store, err := newStore(cmd, v, l)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, store.Close())
			}()

			deleted, err := store.CleanupOldBackups(cmd.Context())
			if err != nil {
				return err
			}
			l.Info("cleanup finished",
				zap.Int("deleted", deleted),
				zap.Int("retention_days", store.RetentionDays()),
			)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), deleted)
			return nil
		},
	}

	addStoreFlags(cmd.Flags(), v)

	return cmd
}
