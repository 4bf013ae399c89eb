// internal/workers/agent/answer-question/handler.go
package answerquestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	commonerrors "titanic-agent/internal/common/errors"
	"titanic-agent/internal/common/metrics"
	"titanic-agent/internal/common/observability"
	"titanic-agent/internal/common/validation"
	"titanic-agent/internal/turn"
	"titanic-agent/pkg/registry"
)

const (
	TaskType = "answer_question"
)

var ErrToolNotInCatalog = errors.New("tool not in catalog")

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ChatModel is one chat completion round trip.
type ChatModel interface {
	Model() string
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Tool executes one tool call. Run never fails: errors come back as text
// addressed to the model.
type Tool interface {
	Name() string
	Run(ctx context.Context, args string) string
}

type Handler struct {
	config       *Config
	model        ChatModel
	tools        map[string]Tool
	schemas      map[string]*validation.Schema
	definitions  []openai.Tool
	systemPrompt string
	obs          *observability.Observability
	tracer       trace.Tracer
	logger       Logger
}

// NewHandler binds tools to their catalog entries. Every tool must be in the
// catalog; catalog entries without a bound tool are not offered to the model.
func NewHandler(config *Config, model ChatModel, catalog *registry.ToolRegistry, tools []Tool, schema string, obs *observability.Observability, log Logger) (*Handler, error) {
	h := &Handler{
		config:       config,
		model:        model,
		tools:        make(map[string]Tool, len(tools)),
		schemas:      make(map[string]*validation.Schema, len(tools)),
		systemPrompt: BuildSystemPrompt(schema),
		obs:          obs,
		tracer:       obs.Tracer(),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}

	for _, tool := range tools {
		entry, ok := catalog.Get(tool.Name())
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotInCatalog, tool.Name())
		}
		compiled, err := validation.Compile(entry.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", entry.Name, err)
		}
		h.tools[entry.Name] = tool
		h.schemas[entry.Name] = compiled
		h.definitions = append(h.definitions, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        entry.Name,
				Description: entry.Description,
				Parameters:  entry.InputSchema,
			},
		})
	}
	return h, nil
}

// Answer runs the tool loop for one question in a fresh turn.
func (h *Handler) Answer(ctx context.Context, question string) (*Output, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, commonerrors.NewInvalidRequestError("question must not be empty")
	}

	t := turn.New(question)
	ctx = turn.WithTurn(ctx, t)
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	ctx, span := h.tracer.Start(ctx, "agent.answer", trace.WithAttributes(
		attribute.String("turn.id", t.ID),
		attribute.String("llm.model", h.model.Model()),
	))
	defer span.End()

	metrics.QuestionsActive.Inc()
	defer metrics.QuestionsActive.Dec()

	log := h.logger.With(map[string]interface{}{"turnId": t.ID})
	log.Info("answering question", map[string]interface{}{
		"question": question,
	})

	start := time.Now()
	answer, iterations, err := h.run(ctx, log, question)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.QuestionsAnswered.WithLabelValues(outcome).Inc()
	metrics.QuestionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	metrics.AgentIterations.Observe(float64(iterations))
	h.obs.RecordQuestionProcessed(ctx, outcome)
	h.obs.RecordQuestionDuration(ctx, elapsed, outcome)
	span.SetAttributes(attribute.Int("agent.iterations", iterations))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("question failed", map[string]interface{}{
			"error":      err.Error(),
			"iterations": iterations,
		})
		return nil, err
	}

	out := &Output{Answer: answer}
	if img, ok := t.Image(); ok {
		out.Answer = ImageAnswer
		out.Image = &img
	}
	span.SetAttributes(attribute.Bool("agent.image", out.Image != nil))
	log.Info("question answered", map[string]interface{}{
		"iterations": iterations,
		"hasImage":   out.Image != nil,
		"durationMs": elapsed.Milliseconds(),
	})
	return out, nil
}

func (h *Handler) run(ctx context.Context, log Logger, question string) (string, int, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: h.systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}

	for iter := 1; iter <= h.config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return "", iter - 1, classify(err)
		}

		reply, err := h.model.Complete(ctx, messages, h.definitions)
		if err != nil {
			return "", iter, classify(err)
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			return reply.Content, iter, nil
		}

		for _, call := range reply.ToolCalls {
			result := h.dispatch(ctx, log, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}

	log.Info("iteration limit reached", map[string]interface{}{
		"maxIterations": h.config.MaxIterations,
	})
	return IterationLimitAnswer, h.config.MaxIterations, nil
}

func (h *Handler) dispatch(ctx context.Context, log Logger, call openai.ToolCall) string {
	name := call.Function.Name
	ctx, span := h.tracer.Start(ctx, "tool."+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	status := "success"
	defer func() {
		h.obs.RecordToolInvoked(ctx, name, status)
		span.SetAttributes(attribute.String("tool.status", status))
	}()

	tool, ok := h.tools[name]
	if !ok {
		status = "unknown_tool"
		metrics.ToolInvocations.WithLabelValues("unknown", status).Inc()
		log.Info("model requested unknown tool", map[string]interface{}{"tool": name})
		return fmt.Sprintf("Error: unknown tool '%s'. Available tools: %s", name, strings.Join(h.toolNames(), ", "))
	}

	args := strings.TrimSpace(call.Function.Arguments)
	if args == "" {
		args = "{}"
	}
	if res := h.schemas[name].Validate([]byte(args)); !res.Valid {
		status = "invalid_arguments"
		metrics.ToolInvocations.WithLabelValues(name, status).Inc()
		log.Info("tool arguments rejected", map[string]interface{}{
			"tool":      name,
			"arguments": args,
			"errors":    res.Summary(),
		})
		return fmt.Sprintf("Error: invalid arguments for %s: %s", name, res.Summary())
	}

	result := tool.Run(ctx, args)
	status = resultStatus(result)
	return result
}

// resultStatus classifies a tool result. Tools report failures as text
// starting with "Error".
func resultStatus(result string) string {
	if strings.HasPrefix(result, "Error") {
		return "error"
	}
	return "success"
}

func (h *Handler) toolNames() []string {
	names := make([]string, 0, len(h.tools))
	for name := range h.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool definitions offered to the model.
func (h *Handler) Definitions() []openai.Tool {
	return h.definitions
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return commonerrors.NewLLMTimeoutError(err)
	}
	return commonerrors.NewLLMCallFailedError(err)
}
