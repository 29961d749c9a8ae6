package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/foomo/filebackup/pkg/handler"
	"github.com/foomo/filebackup/pkg/janitor"
	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start http server and periodic cleanup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval := cleanupIntervalFlag(v); interval <= 0 {
				return errors.Errorf("cleanup interval must be positive, got %s", interval)
			}

			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
			)

			l := svr.Logger()

			store, err := newStore(cmd, v, l.Named("inst.store"))
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}

			j := janitor.New(l.Named("inst.janitor"), store,
				janitor.WithInterval(cleanupIntervalFlag(v)),
			)

			svr.AddReadinessHealthzers(healthz.NewHealthzerFn(func(ctx context.Context) error {
				info, err := os.Stat(store.BackupDirectory())
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return errors.Errorf("backup directory is not a directory: %s", store.BackupDirectory())
				}
				return nil
			}))

			svr.AddClosers(func(ctx context.Context) error {
				return store.Close()
			})

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.janitor"), "janitor", func(ctx context.Context, l *zap.Logger) error {
					return j.Start(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), store, handler.WithBasePath(basePathFlag(v))),
					middleware.Logger(),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addStoreFlags(flags, v)
	addAddressFlag(flags, v)
	addBasePathFlag(flags, v)
	addCleanupIntervalFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}
