package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/grammarquiz/internal/config"
	"github.com/victornm/grammarquiz/internal/server"
)

const envPrefix = "GRAMMARQUIZ"

var rootCmd = &cobra.Command{
	Use:          "grammarquiz",
	Short:        "Grammar diagnostic quiz service",
	Long:         "grammarquiz serves a placement quiz over a grammar question bank and turns the mistakes into a study plan.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the config file named by --config, then CONFIG_PATH.
// Without either, only defaults and GRAMMARQUIZ_* environment variables apply.
func loadConfig(cmd *cobra.Command) (server.Config, error) {
	c := server.DefaultConfig()

	p, _ := cmd.Flags().GetString("config")
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}

	if err := config.Load(p, &c, config.WithEnvPrefix(envPrefix)); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}
