package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "granite",
	Short:   "Granite - a dynamically configurable reverse HTTP proxy",
	Long:    `Granite proxies HTTP and HTTPS traffic to weighted, health-aware origin groups selected by dynamic routes, with an in-memory response cache and a side-channel REST API for runtime reconfiguration.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "conf", "granite.yaml", "config file path")
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
