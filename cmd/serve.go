package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/metrics"
	"github.com/Tiliavir/worktime/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(sess, serveListen)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides server.listen_addr)")
}

// serverConfig maps the session config onto the server's.
func serverConfig(s *session, listen string) server.Config {
	threshold := s.cfg.Report.LongDayThresholdHours
	cfg := server.Config{
		ListenAddr:  s.cfg.Server.ListenAddr,
		CORSOrigins: s.cfg.Server.CORSOrigins,
		Auth: server.AuthConfig{
			Mode:       s.cfg.Auth.Mode,
			Secret:     []byte(s.cfg.Auth.JWTSecret),
			Issuer:     s.cfg.Auth.Issuer,
			AdminUsers: s.cfg.Auth.AdminUsers,
		},
		Location:       s.loc,
		ThresholdHours: &threshold,
	}
	if listen != "" {
		cfg.ListenAddr = listen
	}
	return cfg
}

func runServe(s *session, listen string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(serverConfig(s, listen), s.store, metrics.New(), s.logger)
	if s.cfg.Auth.Mode == server.AuthNone {
		s.logger.Warn().Msg("auth.mode is none: X-User-ID is trusted, do not expose this server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := srv.Shutdown(s.cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
