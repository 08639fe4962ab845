package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/go-serialio/serialio"
	"github.com/go-serialio/serialio/internal/obs"
	"github.com/go-serialio/serialio/internal/wire"
)

var listenCmd = &cobra.Command{
	Use:   "listen [port-path]",
	Short: "Open a port and answer REQUESTs and PINGs until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runListen,
}

func init() {
	listenCmd.Flags().Bool("echo", true, "echo the request payload back as the reply")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	echo, _ := cmd.Flags().GetBool("echo")
	portPath := args[0]

	metrics := obs.NewMetrics()
	engine := serialio.New(portPath,
		serialio.WithBaudRate(cfg.Port.BaudRate),
		serialio.WithTimeout(cfg.Timeouts.Default),
		serialio.WithPingTimeout(cfg.Timeouts.Ping),
		serialio.WithReopenInterval(cfg.Timeouts.Reopen),
		serialio.WithChunkSize(cfg.ChunkSize),
		serialio.WithLogger(logger),
		serialio.WithMetrics(metrics),
	)

	engine.OnMessage(func(msg wire.Message) ([]byte, error) {
		logger.Infow("request received", "id", msg.ID(), "bytes", msg.Length())
		if echo {
			return msg.Payload(), nil
		}
		return nil, nil
	})
	engine.OnOpen(func() { logger.Infow("port open", "path", portPath) })
	engine.OnClose(func(err error, unexpected bool) {
		logger.Infow("port closed", "unexpected", unexpected, "err", err)
	})
	engine.OnError(func(err error) { logger.Warnw("background error", "err", err) })

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(obs.NewPrometheusExporter(metrics))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorw("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
		logger.Infow("serving metrics", "addr", cfg.Metrics.Addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Open(ctx); err != nil {
		return fmt.Errorf("open %s: %w", portPath, err)
	}
	defer engine.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Infow("received shutdown signal")
	return nil
}
