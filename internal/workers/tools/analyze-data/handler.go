// internal/workers/tools/analyze-data/handler.go
package analyzedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"titanic-agent/internal/common/metrics"
)

const (
	TaskType = "analyze_data"

	errorPrefix     = "Error in analysis: "
	truncatedSuffix = "\n... (output truncated)"
)

var (
	ErrEmptyQuery = errors.New("query is empty")
	ErrTimeout    = errors.New("analysis timed out")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Evaluator runs one expression and returns its printed result.
type Evaluator interface {
	Evaluate(src string) (string, error)
}

type Handler struct {
	config *Config
	engine Evaluator
	logger Logger
}

func NewHandler(config *Config, engine Evaluator, log Logger) *Handler {
	return &Handler{
		config: config,
		engine: engine,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Name() string {
	return TaskType
}

// Run decodes the tool-call arguments and evaluates the query.
func (h *Handler) Run(ctx context.Context, args string) string {
	var input Input
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		h.record("invalid_input", 0)
		return errorPrefix + fmt.Sprintf("parse input: %v", err)
	}
	return h.Evaluate(ctx, input.Query)
}

// Evaluate never returns an error: failures become text the model can read
// and correct on its next turn.
func (h *Handler) Evaluate(ctx context.Context, expression string) string {
	start := time.Now()
	expression = strings.TrimSpace(expression)

	out, err := h.execute(ctx, expression)
	elapsed := time.Since(start)
	if err != nil {
		h.record("error", elapsed)
		h.logger.Info("analysis failed", map[string]interface{}{
			"query": expression,
			"error": err.Error(),
		})
		return errorPrefix + err.Error()
	}

	h.record("success", elapsed)
	h.logger.Info("analysis completed", map[string]interface{}{
		"query":      expression,
		"outputSize": len(out),
		"durationMs": elapsed.Milliseconds(),
	})
	return truncate(out, h.config.MaxOutputChars)
}

func (h *Handler) execute(ctx context.Context, expression string) (string, error) {
	if expression == "" {
		return "", ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := h.config.Timeout
	if timeout <= 0 {
		return h.engine.Evaluate(expression)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.engine.Evaluate(expression)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return "", ctx.Err()
	}
}

func (h *Handler) record(status string, elapsed time.Duration) {
	metrics.ToolInvocations.WithLabelValues(TaskType, status).Inc()
	if elapsed > 0 {
		metrics.ToolDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	}
}

// truncate cuts s to at most max bytes on a rune boundary.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedSuffix
}
