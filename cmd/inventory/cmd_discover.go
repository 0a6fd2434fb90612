package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery cycle",
	Long: `Run one discovery cycle.

Resolves the caller's account and enabled regions, fetches every
supported resource type, writes what was found and reconciles each
account/region scope against it. When metrics.addr is set, store metrics
are served on /metrics while the cycle runs.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

type discoverResult struct {
	ActionSets int `json:"action_sets" yaml:"action_sets"`
	Resources  int `json:"resources" yaml:"resources"`
	Attributes int `json:"attributes" yaml:"attributes"`
	Deleted    int `json:"deleted" yaml:"deleted"`
	Failed     int `json:"failed" yaml:"failed"`
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var (
		registry   *prometheus.Registry
		registerer prometheus.Registerer
	)
	if cfg.Metrics.Addr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer = registry
	}

	conn, closeFn, err := openConnector(ctx, registerer)
	if err != nil {
		return err
	}
	defer closeFn()

	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}
	env := discovery.NewAWSEnvironment(awsCfg)
	env.Regions = cfg.AWS.Regions

	vpcs := discovery.NewVPCFetcher(awsCfg)
	runner := discovery.NewRunner(
		discovery.StaticSource{discovery.Templates(vpcs)},
		env, conn, logger, vpcs,
	)

	var (
		g       run.Group
		summary discovery.Summary
	)
	{
		runCtx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			var err error
			summary, err = runner.Run(runCtx)
			return err
		}, func(error) {
			cancel()
		})
	}
	if registry != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		g.Add(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Run()
	if err := render(cmd.OutOrStdout(), outputFormat, discoverResult(summary)); err != nil {
		return err
	}
	return runErr
}
