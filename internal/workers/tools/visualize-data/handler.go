// internal/workers/tools/visualize-data/handler.go
package visualizedata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"titanic-agent/internal/chart"
	"titanic-agent/internal/common/metrics"
	"titanic-agent/internal/turn"
)

const (
	TaskType = "visualize_data"

	errorPrefix = "Error in visualization: "
)

var (
	ErrNoTurn  = errors.New("no question in progress")
	ErrTimeout = errors.New("rendering timed out")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Renderer interface {
	Render(spec chart.Spec) ([]byte, error)
}

type Handler struct {
	config   *Config
	renderer Renderer
	logger   Logger
}

func NewHandler(config *Config, renderer Renderer, log Logger) *Handler {
	return &Handler{
		config:   config,
		renderer: renderer,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string {
	return TaskType
}

// Run treats the tool-call arguments as the plot spec itself.
func (h *Handler) Run(ctx context.Context, args string) string {
	return h.Render(ctx, args)
}

// Render draws spec and stores the base64 PNG in the turn carried by ctx.
// The model only ever sees the status text.
func (h *Handler) Render(ctx context.Context, spec string) string {
	start := time.Now()

	t := turn.FromContext(ctx)
	encoded, err := h.execute(ctx, t, spec)
	elapsed := time.Since(start)
	metrics.ToolDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ToolInvocations.WithLabelValues(TaskType, "error").Inc()
		h.logger.Info("visualization failed", map[string]interface{}{
			"spec":  spec,
			"error": err.Error(),
		})
		return errorPrefix + err.Error()
	}

	t.SetImage(encoded)
	metrics.ToolInvocations.WithLabelValues(TaskType, "success").Inc()
	h.logger.Info("visualization rendered", map[string]interface{}{
		"turnId":     t.ID,
		"imageSize":  len(encoded),
		"durationMs": elapsed.Milliseconds(),
	})
	return SuccessMessage
}

func (h *Handler) execute(ctx context.Context, t *turn.Turn, raw string) (string, error) {
	if t == nil {
		return "", ErrNoTurn
	}
	spec, err := chart.Parse([]byte(raw))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := h.config.Timeout
	if timeout <= 0 {
		timeout = LoadConfig().Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		png []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		png, err := h.renderer.Render(spec)
		done <- result{png, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return base64.StdEncoding.EncodeToString(r.png), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return "", ctx.Err()
	}
}
