// Package bootstrap is the outermost dependency injection container: the
// one place allowed to import both the call orchestration layer
// (internal/application) and the interface layer that depends on it
// (internal/interfaces/http and its handlers), so neither of those needs
// to know about the other.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailvoice/callbridge/internal/application"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/infrastructure/config"
	"github.com/retailvoice/callbridge/internal/infrastructure/email"
	"github.com/retailvoice/callbridge/internal/infrastructure/llm/realtime"
	"github.com/retailvoice/callbridge/internal/infrastructure/notify"
	"github.com/retailvoice/callbridge/internal/infrastructure/orderbackend"
	"github.com/retailvoice/callbridge/internal/infrastructure/persistence"
	"github.com/retailvoice/callbridge/internal/infrastructure/prompt"
	"github.com/retailvoice/callbridge/internal/infrastructure/template"
	toolpkg "github.com/retailvoice/callbridge/internal/infrastructure/tool"
	httpServer "github.com/retailvoice/callbridge/internal/interfaces/http"
	httphandlers "github.com/retailvoice/callbridge/internal/interfaces/http/handlers"
)

// App is the call-bridge dependency injection container. It owns every
// long-lived infrastructure component; each inbound call gets its own
// short-lived SessionMediator built from these shared pieces.
type App struct {
	config *config.Config
	logger *zap.Logger

	db        *gorm.DB
	templates *template.Store

	backend  *orderbackend.Client
	registry domaintool.Registry
	executor *toolpkg.Executor
	composer *prompt.Composer
	sink     *persistence.GormTranscriptSink
	notifier *notify.TelegramNotifier
	calls    *application.CallRegistry

	httpServer *httpServer.Server
}

// NewApp wires every component. Nothing is started yet; call Start.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger, calls: application.NewCallRegistry()}

	if err := app.initPersistence(); err != nil {
		return nil, fmt.Errorf("init persistence: %w", err)
	}
	if err := app.initBackendAndTemplates(); err != nil {
		return nil, fmt.Errorf("init backend/templates: %w", err)
	}
	if err := app.initTools(); err != nil {
		return nil, fmt.Errorf("init tools: %w", err)
	}
	if err := app.initInterfaces(); err != nil {
		return nil, fmt.Errorf("init interfaces: %w", err)
	}

	return app, nil
}

func (app *App) initPersistence() error {
	db, err := persistence.NewDBConnection(persistence.DBConfig{
		Type: app.config.Database.Type,
		DSN:  app.config.Database.DSN,
	})
	if err != nil {
		return err
	}
	app.db = db
	app.sink = persistence.NewGormTranscriptSink(db, app.logger)
	return nil
}

func (app *App) initBackendAndTemplates() error {
	app.backend = orderbackend.NewClient(orderbackend.Config{
		BaseURL:      app.config.Backend.BaseURL,
		ClientID:     app.config.Backend.ClientID,
		ClientSecret: app.config.Backend.ClientSecret,
		RefreshToken: app.config.Backend.RefreshToken,
		Timeout:      time.Duration(app.config.Backend.TimeoutSec) * time.Second,
	}, app.logger)

	store, err := template.NewStore(app.config.TemplatesDir, app.logger)
	if err != nil {
		return fmt.Errorf("template store: %w", err)
	}
	app.templates = store

	app.composer = prompt.NewComposer(app.templates)
	return nil
}

func (app *App) initTools() error {
	app.registry = domaintool.NewInMemoryRegistry()

	sender := email.NewSender(email.SMTPConfig{
		Host:     app.config.SMTP.Host,
		Port:     app.config.SMTP.Port,
		Username: app.config.SMTP.Username,
		Password: app.config.SMTP.Password,
		From:     app.config.SMTP.From,
		StartTLS: app.config.SMTP.StartTLS,
	})

	notifier, err := notify.NewTelegramNotifier(
		app.config.Notify.TelegramBotToken,
		app.config.Notify.TelegramChatID,
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("ops notifier: %w", err)
	}
	app.notifier = notifier

	registered := toolpkg.RegisterAllTools(toolpkg.Deps{
		Registry:     app.registry,
		OrderBackend: app.backend,
		Templates:    app.templates,
		EmailSender:  sender,
		Notifier:     app.notifier,
		Logger:       app.logger,
	})
	app.logger.Info("tools registered", zap.Int("count", registered))

	app.executor = toolpkg.NewExecutor(app.registry, app.logger)
	return nil
}

func (app *App) initInterfaces() error {
	webhook := httphandlers.NewWebhookHandler(app.backend, app.config.Carrier.BridgeHost, app.logger)

	mediatorCfg := application.MediatorConfig{
		EchoCooldown:          time.Duration(app.config.Turn.EchoCooldownMs) * time.Millisecond,
		GreetingStabilization: time.Duration(app.config.Turn.GreetingStabilizationMs) * time.Millisecond,
		SessionUpdatedBudget:  time.Duration(app.config.Turn.SessionUpdatedBudgetMs) * time.Millisecond,
		Voice:                 app.config.LLM.Voice,
		InputAudioFormat:      "g711_ulaw",
		OutputAudioFormat:     "g711_ulaw",
		TurnDetection: realtime.TurnDetectionConfig{
			Threshold:         app.config.Turn.VADThreshold,
			PrefixPaddingMs:   app.config.Turn.VADPrefixPaddingMs,
			SilenceDurationMs: app.config.Turn.VADSilenceDurationMs,
		},
	}

	llmConfig := realtime.Config{
		URL:             app.config.LLM.URL,
		APIKey:          app.config.LLM.APIKey,
		ProtocolVersion: app.config.LLM.ProtocolVersion,
	}

	media := httphandlers.NewMediaHandler(
		llmConfig,
		mediatorCfg,
		app.registry,
		app.executor,
		app.composer,
		app.sink,
		app.calls,
		app.logger,
	)

	app.httpServer = httpServer.NewServer(httpServer.Config{
		Host: app.config.HTTP.Host,
		Port: app.config.HTTP.Port,
		Mode: app.config.HTTP.Mode,
	}, webhook, media, app.logger)

	return nil
}

// Start brings up the HTTP/media listener. Non-blocking.
func (app *App) Start(ctx context.Context) error {
	return app.httpServer.Start(ctx)
}

// Stop drains in-flight HTTP requests and closes shared infrastructure.
func (app *App) Stop(ctx context.Context) error {
	if err := app.httpServer.Stop(ctx); err != nil {
		app.logger.Error("http server stop failed", zap.Error(err))
	}
	if err := app.templates.Close(); err != nil {
		app.logger.Warn("template store close failed", zap.Error(err))
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return nil
}

// Config returns the application configuration.
func (app *App) Config() *config.Config { return app.config }

// Logger returns the application logger.
func (app *App) Logger() *zap.Logger { return app.logger }

// TranscriptSink exposes the shared transcript store.
func (app *App) TranscriptSink() *persistence.GormTranscriptSink { return app.sink }

// CallRegistry exposes the live-call table for the monitor TUI.
func (app *App) CallRegistry() *application.CallRegistry { return app.calls }
