package cmd

import (
	"fmt"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewCreateCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "create <file> [file...]",
		Short: "Create a timestamped backup of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger().Named("cmd.create")

			store, err := newStore(cmd, v, l)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, store.Close())
			}()

			backups := make([]string, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, file := range args {
				g.Go(func() error {
					backupPath, err := store.CreateBackup(ctx, file)
					if err != nil {
						return err
					}
					backups[i] = backupPath
					return nil
				})
			}
			err = g.Wait()
			for _, backupPath := range backups {
				if backupPath != "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), backupPath)
				}
			}
			if err != nil {
				return err
			}

			if store.AutoCleanup() && store.RetentionDays() > 0 {
				deleted, err := store.CleanupOldBackups(cmd.Context())
				if err != nil {
					l.Warn("automatic cleanup failed", zap.Error(err))
					return nil
				}
				l.Info("automatic cleanup finished", zap.Int("deleted", deleted))
			}
			return nil
		},
	}

	addStoreFlags(cmd.Flags(), v)

	return cmd
}
