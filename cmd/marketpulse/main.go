// marketpulse - snapshot technical analysis for a B3 watchlist
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func rootCmd() *cobra.Command {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}

	root := &cobra.Command{
		Use:   "marketpulse",
		Short: "Snapshot technical analysis for a market watchlist",
		Long: `marketpulse refreshes quotes for a watchlist, scores each one from a single
snapshot and publishes the results to a dashboard and a Telegram chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to the YAML config (env CONFIG_PATH)")

	root.AddCommand(runCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marketpulse version %s\n", version)
		},
	}
}
