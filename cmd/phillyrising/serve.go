package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"phillyrising/adapter/feed"
	"phillyrising/app"
	"phillyrising/cli/control"
	"phillyrising/internal/auth"
	"phillyrising/internal/httpapi"
	"phillyrising/internal/logger"
	"phillyrising/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and the feed ingestion daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Env)

		listener, err := control.TryListen(cfg.ControlAddr)
		if err != nil {
			if errors.Is(err, control.ErrAlreadyRunning) {
				return fmt.Errorf("another instance is already running on %s", cfg.ControlAddr)
			}
			return err
		}
		defer listener.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		fetcher := feed.NewHTTPFetcher()
		agg := app.NewAggregator(st.feeds, fetcher, log, cfg.Ingest.Interval, cfg.Ingest.Workers)
		go func() {
			_ = http.Serve(listener, control.NewServer(agg))
		}()

		social := auth.NewSocial(cfg.Auth, cfg.BaseURL, st.profiles, st.sessions, st.neighborhoods, log)
		srv := server.New(cfg.HTTPAddr, log)
		httpapi.Register(srv.Mux(), &httpapi.API{
			Logger:        log,
			BaseURL:       cfg.BaseURL,
			Feeds:         st.feeds,
			Profiles:      st.profiles,
			Neighborhoods: st.neighborhoods,
			ShortURLs:     st.shortURLs,
			Revisions:     st.revisions,
			Sessions:      st.sessions,
			Social:        social,
			SSO:           auth.DisqusSigner{SecretKey: cfg.Disqus.SecretKey, Uniquifier: cfg.Disqus.Uniquifier},
		})

		if err := agg.Start(ctx); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Run() }()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				_ = agg.Stop()
				return err
			}
		}

		_ = agg.Stop()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	},
}
