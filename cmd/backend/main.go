package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "backend",
	Short: "GeoFeed backend",
	Long:  "Location based feed: HTTP API server, event worker and schema migrations.",
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
