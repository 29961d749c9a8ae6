package cmd

import (
	"strings"

	"github.com/foomo/keel/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:           "filebackup",
		Short:         "Timestamped local file backups with retention",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zap.ReplaceGlobals(log.NewLogger(
				logLevelFlag(v),
				logFormatFlag(v),
			))
		},
	}

	addLogLevelFlag(cmd.PersistentFlags(), v)
	addLogFormatFlag(cmd.PersistentFlags(), v)
	cmd.PersistentFlags().String("config", "", "Optional yaml config file")

	cmd.AddCommand(NewCreateCommand())
	cmd.AddCommand(NewRestoreCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewCleanupCommand())
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to run command", zap.Error(err))
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readConfig merges the optional config file into v, flags and env still
// take precedence
func readConfig(cmd *cobra.Command, v *viper.Viper) error {
	_ = v.BindPFlag("config", cmd.Flags().Lookup("config"))
	_ = v.BindEnv("config", "BACKUP_CONFIG")
	filename := configFlag(v)
	if filename == "" {
		return nil
	}
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %q", filename)
	}
	return nil
}
