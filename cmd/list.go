package cmd

import (
	"fmt"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func NewListCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List the backups of a file, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger().Named("cmd.list")

			store, err := newStore(cmd, v, l)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, store.Close())
			}()

			backups, err := store.GetBackupsForFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, backupPath := range backups {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), backupPath)
			}
			return nil
		},
	}

	addStoreFlags(cmd.Flags(), v)

	return cmd
}
