package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"complaintdesk/internal/api"
	"complaintdesk/internal/auth"
	"complaintdesk/internal/complaint"
	"complaintdesk/internal/config"
	"complaintdesk/internal/desk"
	"complaintdesk/internal/logger"
	"complaintdesk/internal/storage"
	"complaintdesk/internal/telegram"
)

// app holds the collaborators every command shares.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error

	desk  *desk.Service
	users *auth.Store
}

// newApp loads configuration and wires the desk.
//
// Startup:
//  1. Load config (.env + environment)
//  2. Initialise logging (to LOG_FILE when logToFile, else stderr)
//  3. Size the shared HTTP client
//  4. Load the department table
//  5. Build the ledger, generator and optional Telegram notifier
func newApp(logToFile bool) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logOutput := "stderr"
	if logToFile {
		logOutput = cfg.LogFile
	}
	log, closeLog, err := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", logOutput, err)
	}

	api.SetHTTPClient(api.NewHTTPClient(cfg.HTTPTimeout))

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	rules := complaint.DefaultRules()
	if path := cfg.DepartmentsPath(); path != "" {
		rules, err = complaint.LoadRules(path)
		if err != nil {
			closeLog()
			return nil, err
		}
		log.Info("📋 Loaded department rules", "path", path, "departments", len(rules.Departments))
	}

	var opts []desk.Option
	if tg := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.DebugMode, log); tg != nil {
		opts = append(opts, desk.WithNotifier(tg))
		log.Info("✓ Telegram notifications enabled")
	}

	ledger := storage.New(cfg.LedgerPath(), complaint.Header, log)
	svc := desk.New(ledger, cfg.TicketPrefix, cfg.TicketStart, complaint.NewCategorizer(rules), log, opts...)

	log.Debug("✓ Complaint desk ready", "ledger", cfg.LedgerPath(), "users", cfg.UsersPath())
	return &app{
		cfg:      cfg,
		log:      log,
		closeLog: closeLog,
		desk:     svc,
		users:    auth.NewStore(cfg.UsersPath(), log),
	}, nil
}

// Close flushes the log file.
func (a *app) Close() {
	if err := a.closeLog(); err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  Failed to close log:", err)
	}
}

// session logs username in when it is set. An empty username files
// complaints anonymously.
func (a *app) session(ctx context.Context, username string) (auth.Session, error) {
	if username == "" {
		return auth.Session{}, nil
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return auth.Session{}, err
	}
	session, err := a.users.Login(ctx, username, password)
	if err != nil {
		a.log.Warn("🔐 Login failed", "username", username, "error", err)
		return auth.Session{}, err
	}
	a.log.Info("✓ Logged in", "username", username)
	return session, nil
}
