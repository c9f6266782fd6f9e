package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eden-ncr/backend/internal/asite"
	"github.com/eden-ncr/backend/internal/config"
	httpapi "github.com/eden-ncr/backend/internal/http"
	"github.com/eden-ncr/backend/internal/service"
	"github.com/eden-ncr/backend/internal/watsonx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "eden-ncr-backend").Logger()

	var fetcher asite.Fetcher
	var completer watsonx.Completer
	if cfg.UseMocks {
		fetcher = asite.MockFetcher{}
		completer = &watsonx.MockCompleter{}
		logger.Warn().Msg("mock mode: serving synthetic records, aggregation runs locally")
	} else {
		fetcher = &asite.Client{
			LoginURL:  cfg.AsiteLoginURL,
			SearchURL: cfg.AsiteSearchURL,
			Email:     cfg.AsiteEmail,
			Password:  cfg.AsitePassword,
			PageSize:  cfg.AsitePageSize,
			Client:    &http.Client{Timeout: cfg.Timeout},
		}
		completer = &watsonx.Client{
			URL:       cfg.WatsonxURL,
			ModelID:   cfg.WatsonxModelID,
			ProjectID: cfg.WatsonxProjectID,
			Tokens: &watsonx.TokenSource{
				URL:    cfg.WatsonxTokenURL,
				APIKey: cfg.WatsonxAPIKey,
			},
			Policy: watsonx.DefaultPolicy(),
			Client: &http.Client{Timeout: cfg.Timeout},
		}
	}

	reports := &service.ReportService{
		Fetcher:          fetcher,
		Completer:        completer,
		Project:          cfg.ProjectName,
		Form:             cfg.FormName,
		NCRChunkSize:     cfg.NCRChunkSize,
		KeywordChunkSize: cfg.KeywordChunkSize,
		Logger:           logger,
	}

	router := httpapi.Router(cfg, reports, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
