package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-serialio/serialio"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports present on this system",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := serialio.ListPorts()
		if err != nil {
			return fmt.Errorf("list ports: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("no serial ports found")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}
