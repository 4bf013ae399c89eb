// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsAnswered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_questions_total",
			Help: "Total number of questions handled by the agent",
		},
		[]string{"outcome"},
	)

	QuestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_question_duration_seconds",
			Help:    "Duration of a full question including tool calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"outcome"},
	)

	QuestionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_questions_active",
			Help: "Number of questions currently being answered",
		},
	)

	AgentIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_iterations",
			Help:    "Model round trips per question",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "llm_request_duration_seconds",
			Help: "Duration of chat completion calls",
		},
		[]string{"model", "status"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Total number of tool calls by tool and status",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_duration_seconds",
			Help:    "Duration of tool execution in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"tool"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route"},
	)
)
