package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yield-drawing/drawingdb/internal/mcp"
	"github.com/yield-drawing/drawingdb/internal/metrics"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server exposing drawing batch updates over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openRuntime(flags)
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			// stdout carries the protocol
			logrus.SetOutput(os.Stderr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			collector, err := metrics.NewCollector(reg)
			if err != nil {
				return err
			}

			addr := env.settings.MetricsAddr
			if cmd.Flags().Changed("metrics-addr") {
				addr = metricsAddr
			}
			if addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr, reg); err != nil {
						logrus.WithError(err).Error("metrics endpoint stopped")
					}
				}()
			}

			server := mcp.NewServer(env.store, env.actor(), version, usecase.WithRecorder(collector))
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")

	return cmd
}
