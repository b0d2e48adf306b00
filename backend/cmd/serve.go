package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"medadmin/m/internal/api"
	"medadmin/m/internal/catalog"
	"medadmin/m/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the admin panel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	registry, closeRegistry, err := newRegistry(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeRegistry()

	uploader, err := newUploader(ctx, cfg.Image)
	if err != nil {
		return err
	}

	handler := api.New(newProvider(db, registry, cfg), catalog.NewService(newRecordStore(db, cfg), uploader), api.Options{
		AdminEmailSuffix: cfg.AdminEmailSuffix,
		SessionTTL:       cfg.SessionTTL,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		SecureCookies:    cfg.Env == config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("medicine admin panel starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
