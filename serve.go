package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pliu/instamunicipal/internal/assistant"
	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/config"
	"github.com/pliu/instamunicipal/internal/departments"
	"github.com/pliu/instamunicipal/internal/email"
	"github.com/pliu/instamunicipal/internal/handlers"
	"github.com/pliu/instamunicipal/internal/logging"
	"github.com/pliu/instamunicipal/internal/messaging"
	"github.com/pliu/instamunicipal/internal/middleware"
	"github.com/pliu/instamunicipal/internal/session"
	"github.com/pliu/instamunicipal/internal/store/sqlstore"
	"github.com/pliu/instamunicipal/internal/supabase"
	"github.com/pliu/instamunicipal/internal/workspace"
	"github.com/pliu/instamunicipal/internal/ws"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "http service address, overrides server.addr",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	var (
		provider     auth.Provider
		confirmer    handlers.Confirmer
		interactions func(token string) assistant.InteractionLog
	)
	switch cfg.Backend.Kind {
	case config.BackendSupabase:
		sb := supabase.New(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Server.PublicURL)
		provider = sb
		interactions = func(token string) assistant.InteractionLog { return sb.Interactions(token) }
	default:
		mailer := email.NewSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		tokens := auth.NewTokenService(cfg.Auth.TokenSecret, "instamunicipal")
		local := auth.NewLocalProvider(store, tokens, mailer, cfg.Server.PublicURL, cfg.Auth.TokenTTL)
		provider = local
		confirmer = local
		interactions = func(string) assistant.InteractionLog { return store }
	}
	log.Info().Str("backend", cfg.Backend.Kind).Str("driver", cfg.Database.Driver).Msg("backend ready")

	dir := departments.NewDirectory(store)
	if err := dir.Seed(c.Context); err != nil {
		log.Error().Err(err).Msg("failed to seed departments")
	}

	completion := assistant.NewClient(cfg.Assistant.URL, cfg.Assistant.APIKey)
	completion.Model = cfg.Assistant.Model
	completion.MaxTokens = cfg.Assistant.MaxTokens
	completion.Temperature = cfg.Assistant.Temperature
	if cfg.Assistant.Timeout > 0 {
		completion.HTTPClient.Timeout = cfg.Assistant.Timeout
	}
	if !completion.Configured() {
		log.Warn().Msg("assistant api_key is not set, the assistant will answer as unavailable")
	}

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	registry := workspace.NewRegistry(workspace.Deps{
		Posts:        store,
		Messages:     store,
		Directory:    dir,
		Responder:    messaging.NewScriptedResponder(cfg.Chat.ReplyDelay),
		Completion:   completion,
		Events:       hub,
		Interactions: interactions,
	})
	defer registry.CloseAll()

	sessions := session.NewManager(provider)
	sessions.OnSignOut(registry.Release)

	var limiter *middleware.RateLimiter
	if cfg.Assistant.RatePerMin > 0 {
		limiter = middleware.NewRateLimiter(cfg.Assistant.RatePerMin, cfg.Assistant.RatePerMin/4)
	}

	router := handlers.NewRouter(handlers.Options{
		Sessions:       sessions,
		Confirmer:      confirmer,
		Registry:       registry,
		Directory:      dir,
		Users:          store,
		Hub:            hub,
		AssistantLimit: limiter,
		Storyboards:    cfg.Server.Storyboards,
		StaticDir:      cfg.Server.StaticDir,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           middleware.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
