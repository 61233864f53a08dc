package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/bootstrap"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	"github.com/retailvoice/callbridge/internal/infrastructure/config"
	"github.com/retailvoice/callbridge/internal/infrastructure/logger"
	"github.com/retailvoice/callbridge/internal/infrastructure/persistence"
	"github.com/retailvoice/callbridge/internal/interfaces/cli"
)

const (
	appName    = "callbridge"
	appVersion = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Telephone-to-LLM voice bridge for order support",
	}

	rootCmd.AddCommand(
		serveCmd(),
		monitorCmd(),
		transcriptCmd(),
		healthcheckCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var withMonitor bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook and media bridge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger("json", "info")
			if err != nil {
				return err
			}
			defer log.Sync()

			app, err := bootstrap.NewApp(cfg, log)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return fmt.Errorf("start application: %w", err)
			}

			if withMonitor {
				go func() {
					if err := cli.Run(app.CallRegistry()); err != nil {
						log.Warn("monitor exited", zap.Error(err))
					}
				}()
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			sig := <-quit
			log.Info("shutdown signal received", zap.String("signal", sig.String()))

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			return app.Stop(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&withMonitor, "monitor", false, "also attach the live call monitor dashboard")
	return cmd
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Live call monitor dashboard (available only as 'serve --monitor')",
		Long:  "Only useful when run as 'serve --monitor'; the standalone form exists for symmetry but the call registry is in-process only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("monitor must be attached via 'callbridge serve --monitor': the call registry is in-process and not reachable from a separate process")
		},
	}
}

func transcriptCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect stored call transcripts",
	}

	renderCmd := &cobra.Command{
		Use:   "render [call-id]",
		Short: "Render one call's transcript to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger("console", "warn")
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := persistence.NewDBConnection(persistence.DBConfig{Type: cfg.Database.Type, DSN: cfg.Database.DSN})
			if err != nil {
				return fmt.Errorf("connect to transcript store: %w", err)
			}
			sink := persistence.NewGormTranscriptSink(db, log)

			ref := repository.TranscriptRef(args[0])
			entries, err := sink.Messages(context.Background(), ref)
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}

			renderer := cli.NewRenderer(100)
			fmt.Println(renderer.RenderTranscript(args[0], entries))
			return nil
		},
	}

	root.AddCommand(renderCmd)
	return root
}

func healthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Verify config loads and the database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger("console", "warn")
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := persistence.NewDBConnection(persistence.DBConfig{Type: cfg.Database.Type, DSN: cfg.Database.DSN})
			if err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := sqlDB.Ping(); err != nil {
				return fmt.Errorf("database ping failed: %w", err)
			}

			fmt.Println("ok")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	}
}

func loadConfigAndLogger(format, level string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Log.Format != "" {
		format = cfg.Log.Format
	}
	if cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	log, err := logger.NewLogger(logger.Config{Level: level, Format: format, OutputPath: "stdout"})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, log, nil
}
