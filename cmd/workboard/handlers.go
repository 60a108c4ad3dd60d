// handlers.go contains the shared bootstrap used by every command handler:
// loading configuration, restoring the persisted session token, and wiring
// the request pipeline.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/workboardhq/workboard/internal/api"
	"github.com/workboardhq/workboard/internal/config"
	"github.com/workboardhq/workboard/internal/notify"
	"github.com/workboardhq/workboard/internal/observability"
	"github.com/workboardhq/workboard/internal/session"
)

// app bundles the pieces every handler needs.
type app struct {
	cfg     *config.Config
	store   *session.Store
	tokens  *session.TokenFile
	client  *api.Client
	sink    notify.Sink
	metrics *observability.Metrics
	logger  *slog.Logger
}

// newApp loads configuration, restores any persisted session token, and
// builds the request pipeline.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := configureLogging(cfg)

	store := session.NewStore()
	tokens := &session.TokenFile{Path: session.DefaultTokenPath()}
	if token, err := tokens.Read(); err == nil && token != "" {
		store.Set(token)
	}
	// An expired session must not outlive the process: the moment a 401
	// clears the credential, the persisted token goes with it, so the next
	// invocation starts unauthenticated.
	store.OnClear(func() {
		if err := tokens.Remove(); err != nil {
			slog.Warn("failed to remove persisted session token", "error", err)
		}
	})

	sink := &consoleSink{out: os.Stderr}
	metrics := observability.NewMetrics(nil)

	client := api.NewClient(api.Options{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.Server.Timeout.Std(),
		Session: store,
		Sink:    sink,
		Logger:  logger,
		Metrics: metrics,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		tokens:  tokens,
		client:  client,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// requireAuth fails fast when no session token is held, before any request
// leaves the machine.
func (a *app) requireAuth() error {
	if _, ok := a.store.Get(); !ok {
		return fmt.Errorf("not logged in; run `workboard login <username>` first")
	}
	return nil
}

// persistToken writes the in-memory credential to disk, or removes the file
// when the credential is gone.
func (a *app) persistToken() error {
	token, ok := a.store.Get()
	if !ok {
		return a.tokens.Remove()
	}
	return a.tokens.Write(token)
}

func configureLogging(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// consoleSink renders notifications as plain lines on the terminal.
type consoleSink struct {
	out *os.File
}

func (s *consoleSink) Notify(level notify.Level, message string) {
	switch level {
	case notify.LevelError:
		fmt.Fprintf(s.out, "error: %s\n", message)
	case notify.LevelSuccess:
		fmt.Fprintf(s.out, "ok: %s\n", message)
	default:
		fmt.Fprintln(s.out, message)
	}
}

// promptPassword reads a password without echo when attached to a terminal,
// falling back to a plain line read otherwise.
func promptPassword(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		text, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(text))
		}
	}
	text, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
