// cmd/titanic-api/main.go
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

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"titanic-agent/internal/api"
	"titanic-agent/internal/chart"
	commonerrors "titanic-agent/internal/common/errors"
	"titanic-agent/internal/common/config"
	"titanic-agent/internal/common/llm"
	"titanic-agent/internal/common/logger"
	"titanic-agent/internal/common/observability"
	"titanic-agent/internal/dataset"
	"titanic-agent/internal/query"
	"titanic-agent/pkg/registry"

	aq "titanic-agent/internal/workers/agent/answer-question"
	ad "titanic-agent/internal/workers/tools/analyze-data"
	vd "titanic-agent/internal/workers/tools/visualize-data"
)

func main() {
	zapLog := logger.New("info", "json")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting titanic agent API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, observability.WithSpanExporter(observability.NewLogExporter(log)))
	defer obs.Shutdown()

	provider := dataset.NewProvider(cfg.Dataset.Path)
	table, err := provider.Get()
	if err != nil {
		stdErr := commonerrors.NewDatasetLoadFailedError(provider.Path(), err)
		zapLog.Fatal("dataset load failed",
			zap.String("code", string(stdErr.Code)),
			zap.String("path", provider.Path()),
			zap.Error(err),
		)
	}
	zapLog.Info("Dataset loaded",
		zap.String("path", provider.Path()),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns())),
	)

	if cfg.LLM.APIKey == "" {
		zapLog.Warn("no LLM API key configured; model calls will fail")
	}

	router, err := buildRouter(cfg, table, obs, log)
	if err != nil {
		zapLog.Fatal("agent setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during server shutdown", zap.Error(err))
	}
	zapLog.Info("API server stopped gracefully")
}

// buildRouter wires the tools and the agent over an already loaded table.
func buildRouter(cfg *config.Config, table *dataset.Table, obs *observability.Observability, log logger.Logger) (http.Handler, error) {
	catalog, err := registry.Default()
	if err != nil {
		return nil, fmt.Errorf("tool registry: %w", err)
	}

	var tools []aq.Tool

	if config.IsToolEnabled(cfg, ad.TaskType) {
		tc := config.GetToolConfig(cfg, ad.TaskType)
		handler := ad.NewHandler(
			&ad.Config{
				Timeout:        toolTimeout(tc, catalog, ad.TaskType, ad.LoadConfig().Timeout),
				MaxOutputChars: tc.MaxOutputChars,
			},
			query.NewEngine(table), &analyzeDataLoggerAdapter{log},
		)
		tools = append(tools, handler)
	} else {
		log.Info("tool disabled", map[string]interface{}{"tool": ad.TaskType})
	}

	if config.IsToolEnabled(cfg, vd.TaskType) {
		tc := config.GetToolConfig(cfg, vd.TaskType)
		handler := vd.NewHandler(
			&vd.Config{
				Timeout: toolTimeout(tc, catalog, vd.TaskType, vd.LoadConfig().Timeout),
			},
			chart.NewRenderer(table, chart.WithSize(cfg.Chart.Width, cfg.Chart.Height)),
			&visualizeDataLoggerAdapter{log},
		)
		tools = append(tools, handler)
	} else {
		log.Info("tool disabled", map[string]interface{}{"tool": vd.TaskType})
	}

	model := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
	})

	agent, err := aq.NewHandler(
		&aq.Config{
			MaxIterations: cfg.Agent.MaxIterations,
			Timeout:       config.GetDuration(cfg.LLM.Timeout),
		},
		model, catalog, tools, table.Describe(), obs, &answerQuestionLoggerAdapter{log},
	)
	if err != nil {
		return nil, err
	}
	log.Info("agent ready", map[string]interface{}{
		"model":         model.Model(),
		"tools":         len(tools),
		"maxIterations": cfg.Agent.MaxIterations,
	})

	return api.NewRouter(api.Options{
		Answerer:       agent,
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       prometheus.DefaultGatherer,
		Ready: func() error {
			if table == nil || table.Len() == 0 {
				return errors.New("dataset not loaded")
			}
			return nil
		},
	}), nil
}

// toolTimeout prefers tools.<name>.timeout, then the catalog entry, then def.
func toolTimeout(tc config.ToolConfig, catalog *registry.ToolRegistry, name string, def time.Duration) time.Duration {
	if tc.Timeout > 0 {
		return config.GetDuration(tc.Timeout)
	}
	if entry, ok := catalog.Get(name); ok {
		return entry.TimeoutDuration(def)
	}
	return def
}

type analyzeDataLoggerAdapter struct {
	logger.Logger
}

func (a *analyzeDataLoggerAdapter) With(fields map[string]interface{}) ad.Logger {
	return &analyzeDataLoggerAdapter{a.Logger.With(fields)}
}

type visualizeDataLoggerAdapter struct {
	logger.Logger
}

func (a *visualizeDataLoggerAdapter) With(fields map[string]interface{}) vd.Logger {
	return &visualizeDataLoggerAdapter{a.Logger.With(fields)}
}

type answerQuestionLoggerAdapter struct {
	logger.Logger
}

func (a *answerQuestionLoggerAdapter) With(fields map[string]interface{}) aq.Logger {
	return &answerQuestionLoggerAdapter{a.Logger.With(fields)}
}
