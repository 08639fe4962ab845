// Command serialio is a reference CLI around the serialio package: it
// lists ports, listens as the reply side of a link, and sends one-shot
// requests as the caller side.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
