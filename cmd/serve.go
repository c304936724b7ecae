package cmd

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
	"github.com/tayloree/confere/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API over HTTP",
	Long:  "Serve every command as a JSON endpoint under /api/v1. Stops on SIGINT or SIGTERM.",
	Example: `  confere serve
  confere serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default HTTP_ADDR from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	addr := s.cfg.HTTPAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	var access io.Writer = cmd.ErrOrStderr()
	if w, ok := s.logs.(io.Writer); ok && s.cfg.LogFile != "" {
		access = w
	}
	srv := server.New(s.app, server.Options{RateLimit: s.cfg.RateLimit, AccessLog: access})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(addr) }()
	log.Infow("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.ShutdownWithContext(shutdown)
}
