package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"janitor-hq/janitor/pkg/audit/retention"
	"janitor-hq/janitor/pkg/audit/storage"
	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/cli"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/schedule"
	"janitor-hq/janitor/pkg/server"
	"janitor-hq/janitor/pkg/telemetry/health"
	"janitor-hq/janitor/pkg/telemetry/logging"
)

var serveFlags struct {
	listenAddress string
	noSchedule    bool
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run cleanups on a schedule and on POST /run",
	Long: `Start the long-running service.

The service runs the cleanup on schedule.cron and whenever POST /run is
called. Only one run is in flight at a time. Health, readiness, metrics and
version endpoints are served on the same address.

Examples:
  # Serve with the configured schedule
  janitor serve --config /etc/janitor/janitor.yaml

  # HTTP trigger only
  janitor serve --no-schedule --listen 0.0.0.0:8080`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override server.listen_address")
	serveCmd.Flags().BoolVar(&serveFlags.noSchedule, "no-schedule", false, "disable the cron schedule")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", true, "reload the config file when it changes")
}

// newJob returns a job that builds every run from the configuration current
// at the time the run starts. The Looker client is shared across runs until
// the configuration is reloaded.
func newJob(a *app) *cleanup.Job {
	return cleanup.NewJob(func() (*cleanup.Pipeline, error) {
		cfg := config.GetConfig()
		client, err := a.runClient(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return a.pipeline(client, pipelineConfig(cfg)), nil
	})
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	srvCfg := cfg.Server
	if serveFlags.listenAddress != "" {
		srvCfg.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if srvCfg.RunToken, err = a.secrets.Resolve(ctx, srvCfg.RunToken); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to resolve server.run_token: %w", err))
	}

	job := newJob(a)
	g, gctx := errgroup.WithContext(ctx)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	if cfg.Telemetry.Health.CheckLooker {
		client, err := a.lookerClient(ctx, cfg)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer client.Close()
		checker.RegisterCheck("looker", health.PingCheck(client))
	}
	if sqlite, ok := a.storage.(*storage.SQLiteStorage); ok {
		checker.RegisterCheck("audit", health.PingCheck(sqlite))
	}

	runFn := func(ctx context.Context) error {
		_, err := job.Run(logging.WithTrigger(ctx, "schedule"))
		if errors.Is(err, cleanup.ErrRunInProgress) {
			a.logger.Warn("skipping scheduled run, previous run still in progress")
			return nil
		}
		return err
	}

	if cfg.Schedule.Enabled && !serveFlags.noSchedule {
		loc, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			return cli.NewConfigError("schedule.timezone", err.Error())
		}
		sched, err := schedule.New("cleanup", cfg.Schedule.Cron, runFn,
			schedule.WithLocation(loc),
			schedule.WithTimeout(cfg.Schedule.RunTimeout),
		)
		if err != nil {
			return cli.NewConfigError("schedule.cron", err.Error())
		}
		if err := sched.Start(gctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer sched.Stop()

		if next := sched.NextRun(); next != nil {
			a.logger.Info("cleanup scheduled", "cron", cfg.Schedule.Cron, "next_run", next)
		}

		if cfg.Schedule.RunOnStart {
			g.Go(func() error {
				sched.RunNow(gctx)
				return nil
			})
		}
	}

	checker.RegisterCheck("last_run", health.LastRunCheck(job.Last, 0, nil))

	if a.storage != nil && cfg.Audit.Retention.Schedule != "" {
		pruner := retention.NewPruner(a.storage, &retention.Config{
			RetentionDays: cfg.Audit.Retention.Days,
			PruneSchedule: cfg.Audit.Retention.Schedule,
			MaxRecords:    cfg.Audit.Retention.MaxRecords,
		})
		if err := pruner.Start(gctx); err != nil {
			a.logger.Warn("failed to start audit retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
		}
	}

	if serveFlags.watch && configPath(cmd) != "" {
		watcher, err := config.NewWatcher(configPath(cmd), 0)
		if err != nil {
			a.logger.Warn("config watcher disabled", "error", err)
		} else {
			defer watcher.Stop()
			g.Go(func() error {
				err := watcher.Watch(gctx, func(next *config.Config) {
					if err := setupLogging(next); err != nil {
						a.logger.Warn("logging not reconfigured", "error", err)
					}
					a.logger.Info("configuration reloaded, applies from the next run")
				})
				if err != nil {
					a.logger.Error("config watcher stopped", "error", err)
				}
				return nil
			})
		}
	}

	opts := []server.Option{
		server.WithHealth(checker, &cfg.Telemetry.Health),
		server.WithVersion(Version, GitCommit, BuildDate),
		server.WithRunTimeout(cfg.Schedule.RunTimeout),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(cfg.Telemetry.Metrics.Path, a.metrics.Handler()))
	}
	srv := server.NewServer(&srvCfg, job, opts...)

	fmt.Fprintf(cmd.OutOrStdout(), "Janitor %s listening on %s\n", Version, srvCfg.ListenAddress)
	g.Go(func() error { return srv.Start(gctx) })
	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
