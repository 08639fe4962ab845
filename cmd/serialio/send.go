package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-serialio/serialio"
)

var sendCmd = &cobra.Command{
	Use:   "send [port-path] [payload]",
	Short: "Open a port, send one REQUEST, print the reply, and exit",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().Bool("ping", false, "send a PING instead of a REQUEST, ignoring payload")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	portPath, payload := args[0], args[1]
	ping, _ := cmd.Flags().GetBool("ping")

	engine := serialio.New(portPath,
		serialio.WithBaudRate(cfg.Port.BaudRate),
		serialio.WithTimeout(cfg.Timeouts.Default),
		serialio.WithPingTimeout(cfg.Timeouts.Ping),
		serialio.WithReopenInterval(cfg.Timeouts.Reopen),
		serialio.WithChunkSize(cfg.ChunkSize),
		serialio.WithLogger(logger),
	)

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelOpen()
	if err := engine.Open(openCtx); err != nil {
		return fmt.Errorf("open %s: %w", portPath, err)
	}
	defer engine.Close()

	reqCtx, cancelReq := context.WithTimeout(context.Background(), cfg.Timeouts.Default+time.Second)
	defer cancelReq()

	if ping {
		reply, err := engine.Ping(reqCtx)
		if err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Printf("pong (%d bytes)\n", reply.Length())
		return nil
	}

	reply, err := engine.SendRequest(reqCtx, []byte(payload))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	fmt.Printf("%s\n", reply.Payload())
	return nil
}
