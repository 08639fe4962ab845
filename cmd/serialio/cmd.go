package main

import (
	"github.com/spf13/cobra"

	"github.com/go-serialio/serialio/internal/config"
	"github.com/go-serialio/serialio/internal/obs"
)

var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "serialio",
	Short:   "Request/reply messaging over a serial link",
	Long:    `serialio lists serial ports, listens as the reply side of a link, and sends one-shot requests as the caller side.`,
	Version: version + " (commit: " + commit + ")",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default none; env and flags still apply)")
	rootCmd.PersistentFlags().Int("baud", 0, "baud rate (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().Bool("metrics", false, "serve Prometheus metrics")
	rootCmd.PersistentFlags().String("metrics-addr", "", "metrics listen address (overrides config)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "default request timeout (overrides config)")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "write chunk size in bytes (overrides config)")

	rootCmd.AddCommand(portsCmd, listenCmd, sendCmd)
}

// loadConfig loads the effective config file, then layers any
// persistent flags the caller actually set on top, since flags are the
// most specific source.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEffective(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("baud") {
		cfg.Port.BaudRate, _ = flags.GetInt("baud")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("timeout") {
		cfg.Timeouts.Default, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize, _ = flags.GetInt("chunk-size")
	}
	return cfg, nil
}

func newLogger(level string) (*obs.Logger, error) {
	if level == "" {
		return obs.NewNop(), nil
	}
	return obs.NewAtLevel(level)
}
