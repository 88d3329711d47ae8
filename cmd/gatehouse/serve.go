package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/config"
	gatehousehttp "github.com/sagarc03/gatehouse/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the gatehouse HTTP server.

If the user store is empty, the bootstrap user (auth.bootstrap.username and
auth.bootstrap.password) is created first. Startup fails when the store is
empty and no bootstrap password is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().Duration("token-ttl", gatehouse.DefaultTokenTTL, "access token lifetime")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, closeUsers, err := openUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeUsers() }()

	hasher, err := gatehouse.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("create hasher: %w", err)
	}

	created, err := gatehouse.Bootstrap(ctx, users, hasher, cfg.Auth.Bootstrap.Username, cfg.Auth.Bootstrap.Password)
	if err != nil {
		return err
	}
	if created {
		slog.Info("created bootstrap user", "username", cfg.Auth.Bootstrap.Username)
	}

	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		secret, err = gatehouse.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate token secret: %w", err)
		}
		slog.Warn("auth.secret not set, using a generated secret; tokens will not survive a restart")
	}

	tokens, err := gatehouse.NewTokenService(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}

	resolver, storage, err := openStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close() }()

	gateway, err := gatehouse.NewGateway(users, hasher, tokens, resolver, storage)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	handler := gatehousehttp.NewHandler(&gatehousehttp.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}, gateway)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "root", resolver.Root(), "token_ttl", tokens.TTL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
