// FILE: main.go
// Package main – simulator entrypoint: a cobra CLI standing in for the
// teacher's flag-parsed main.go, driving synthetic traffic through
// engine.ComputeAllocationUpdate and serving the resulting Prometheus
// metrics the same way the teacher's main.go serves /healthz and
// /metrics over promhttp.
//
// Usage:
//
//	simulator run --scenario scenarios/lift.yaml
//	simulator run --scenario scenarios/lift.yaml --serve
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	engine "github.com/rtuosto/ab-allocation-engine"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simulator",
		Short: "Run the Adaptive Bayesian Allocation Engine against synthetic traffic",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var scenarioPath string
	var serve bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scenario end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			simCfg := loadSimulatorEnv()
			if scenarioPath == "" {
				scenarioPath = simCfg.ScenarioPath
			}
			scenario, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}

			logger := engine.NewLogger(os.Stderr, simCfg.PrettyLog)
			writer := engine.NewRingSnapshotWriter(simCfg.SnapshotBuffer)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var srv *http.Server
			if serve {
				srv = startMetricsServer(simCfg.Port, logger)
			}

			logger.Info().Str("scenario", scenario.Name).Int("ticks", scenario.Ticks).Msg("starting simulation")
			if err := runSimulation(ctx, logger, scenario, writer); err != nil {
				return fmt.Errorf("run simulation: %w", err)
			}

			for _, snap := range writer.Snapshots() {
				logger.Info().
					Int64("impressions", snap.Impressions).
					Float64("controlAllocation", snap.ControlAllocation).
					Float64("variantAllocation", snap.VariantAllocation).
					Msg("evolution snapshot")
			}

			if srv != nil {
				shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
				defer c()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to a YAML scenario file (see cmd/simulator/scenario.go)")
	cmd.Flags().BoolVar(&serve, "serve", false, "serve /metrics and /healthz while the simulation runs")
	return cmd
}

// startMetricsServer serves /healthz and /metrics, the same two
// endpoints the teacher's main.go wires over promhttp.
func startMetricsServer(port int, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		logger.Info().Int("port", port).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv
}
