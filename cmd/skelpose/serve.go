package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"mu-skeleton/internal/config"
	"mu-skeleton/internal/metrics"
	"mu-skeleton/internal/server"
	"mu-skeleton/internal/skeleton"
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a skeleton over HTTP",
	Long: `Loads the skeleton and exposes its properties, evaluation, process order,
Mermaid graph, preview image and Prometheus metrics as a JSON API.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		cfg.Resolve(config.Flags{Listen: listen})

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		col := metrics.New(reg)

		s, err := loadSkeleton(args[0], skeleton.WithHooks(col.Hooks(skeleton.Hooks{})))
		if err != nil {
			return err
		}
		logger.Info("skeleton loaded", "file", args[0], "bones", s.BoneCount())

		srv := server.New(s, reg,
			server.WithLogger(logger),
			server.WithPreview(previewOptions(args[0])),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default 127.0.0.1:8087)")
}
