package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/config"
	"github.com/jonathan/screening-desk/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screening desk web server",
	Long:  `Start an HTTP server that serves the screening pages, the new-interview form and the Slack To Raven Import form.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if servePort != 0 {
		b.cfg.Port = servePort
	}

	jwtCfg, err := config.NewJWTConfig()
	switch {
	case errors.Is(err, config.ErrNoJWTSecret):
		log.Println("JWT_SECRET is not set; operator authentication is disabled")
		jwtCfg = nil
	case err != nil:
		return fmt.Errorf("failed to load JWT config: %w", err)
	}

	srv, err := server.New(b.cfg, server.Deps{
		Records:    b.records,
		Interviews: b.source,
		Imports:    b.source,
		DeskURL:    b.source.DeskURL(),
		JWT:        jwtCfg,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
