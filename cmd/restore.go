package cmd

import (
	"fmt"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func NewRestoreCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "restore <backup> [target]",
		Short: "Restore a backup to its original location or to target",
		Args:  cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var comps []string
			switch len(args) {
			case 0:
				comps = cobra.AppendActiveHelp(comps, "You must specify the backup file to restore")
			case 1:
				comps = cobra.AppendActiveHelp(comps, "Optionally specify where to restore to")
				return comps, cobra.ShellCompDirectiveDefault
			default:
				comps = cobra.AppendActiveHelp(comps, "This command does not take any more arguments")
			}
			return comps, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			l := log.Logger().Named("cmd.restore")

			store, err := newStore(cmd, v, l)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, store.Close())
			}()

			var target string
			if len(args) == 2 {
				target, err = store.RestoreTo(cmd.Context(), args[0], args[1])
			} else {
				target, err = store.RestoreFromBackup(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	addStoreFlags(cmd.Flags(), v)

	return cmd
}
