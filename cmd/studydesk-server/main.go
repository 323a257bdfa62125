package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/bootstrap"
	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/config"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/render"
	"github.com/at-ishikawa/studydesk/internal/server"
	"github.com/at-ishikawa/studydesk/internal/timetable"
	"github.com/at-ishikawa/studydesk/internal/tools"
)

var (
	configFile string
	debugMode  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "studydesk-server",
		Short:         "Studydesk tool service HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := newLogger(debugMode)
	slog.SetDefault(logger)
	app := bootstrap.New(logger)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	registry, err := newToolRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("newToolRegistry() > %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.NewHTTPHandler(registry, cfg.Server.CORS.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("server stopped")
		return nil
	})
}

func newToolRegistry(cfg *config.Config, logger *slog.Logger) (*tools.Registry, error) {
	modules, err := module.Load(cfg.Catalog.ModulesFile)
	if err != nil {
		return nil, fmt.Errorf("module.Load() > %w", err)
	}
	entries, err := timetable.Load(cfg.Catalog.TimetableFile, modules)
	if err != nil {
		return nil, fmt.Errorf("timetable.Load() > %w", err)
	}
	location, err := time.LoadLocation(cfg.Catalog.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%s) > %w", cfg.Catalog.Timezone, err)
	}
	renderer, err := render.NewRenderer(cfg.PDF.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("render.NewRenderer() > %w", err)
	}
	events, err := calendar.NewValidator(modules)
	if err != nil {
		return nil, fmt.Errorf("calendar.NewValidator() > %w", err)
	}

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterDefaults(registry, tools.Deps{
		Renderer: renderer,
		Modules:  modules,
		Expander: timetable.NewExpander(entries, location),
		Events:   events,
	}); err != nil {
		return nil, fmt.Errorf("tools.RegisterDefaults() > %w", err)
	}
	return registry, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

func newLogger(debugMode bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
