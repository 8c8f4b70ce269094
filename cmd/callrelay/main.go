package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voiceline/callrelay/internal/calllog"
	"github.com/voiceline/callrelay/internal/feed"
	"github.com/voiceline/callrelay/internal/llm"
	"github.com/voiceline/callrelay/internal/mail"
	"github.com/voiceline/callrelay/internal/relay"
	"github.com/voiceline/callrelay/internal/session"
	"github.com/voiceline/callrelay/internal/telephony"
	"github.com/voiceline/callrelay/internal/webhook"
)

const (
	llmTimeout  = 15 * time.Second
	mailTimeout = 10 * time.Second
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()
	if err := cfg.validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// LLM client: absence of the key disables assistant replies and forces
	// the acknowledge-and-hang-up path.
	var llmClient llm.Client
	if cfg.openaiAPIKey != "" {
		llmClient = llm.NewOpenAIClient(cfg.openaiAPIKey, cfg.openaiBaseURL, cfg.openaiModel, cfg.llmMaxTokens, llmTimeout)
	} else {
		slog.Warn("OPENAI_API_KEY not set, assistant replies disabled")
	}

	var notifier mail.Notifier = mail.Disabled{}
	if cfg.mailConfigured() {
		notifier = mail.NewSMTPNotifier(cfg.mailHost, cfg.mailPort, cfg.mailSender, cfg.mailPassword, cfg.mailRecipient, mailTimeout)
	} else {
		slog.Warn("mail credentials not set, summary delivery disabled")
	}

	var store *calllog.Store
	if cfg.databaseURL != "" {
		var err error
		store, err = calllog.Open(cfg.databaseURL)
		if err != nil {
			slog.Error("call log open failed", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("call log enabled")
	}

	hub := feed.NewHub()

	ctrl := relay.New(relay.Config{
		Sessions:     session.NewRegistry(),
		LLM:          llmClient,
		Mail:         notifier,
		Log:          store,
		Feed:         hub,
		SystemPrompt: cfg.systemPrompt,
	})

	var validator *telephony.Validator
	if cfg.twilioAuthToken != "" && cfg.baseURL != "" {
		validator = telephony.NewValidator(cfg.twilioAuthToken, cfg.baseURL)
		slog.Info("webhook signature validation enabled")
	}

	var dialer *telephony.Client
	if cfg.dialConfigured() {
		dialer = telephony.NewClient(cfg.twilioAPIURL, cfg.twilioAccountSID, cfg.twilioAuthToken, cfg.twilioPhoneNumber, dialTimeout)
		slog.Info("outbound dialing enabled", "from", cfg.twilioPhoneNumber)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		cfg:      cfg,
		webhooks: webhook.NewHandler(ctrl, validator),
		dialer:   dialer,
		store:    store,
		feed:     hub,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("relay starting", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("relay stopped")
}
