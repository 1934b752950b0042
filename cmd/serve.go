package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victornm/grammarquiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := server.Init(c)
		if err != nil {
			return fmt.Errorf("init server: %w", err)
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

		done := make(chan error, 1)
		go func() { done <- s.Start() }()

		select {
		case <-shutdown:
			s.Shutdown()
			return nil
		case err := <-done:
			s.Shutdown()
			return err
		}
	},
}
