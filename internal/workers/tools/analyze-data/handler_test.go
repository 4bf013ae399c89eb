// internal/workers/tools/analyze-data/handler_test.go
package analyzedata

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titanic-agent/internal/dataset"
	"titanic-agent/internal/query"
)

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

type slowEvaluator struct {
	delay time.Duration
}

func (s slowEvaluator) Evaluate(string) (string, error) {
	time.Sleep(s.delay)
	return "late", nil
}

type fixedEvaluator string

func (f fixedEvaluator) Evaluate(string) (string, error) {
	return string(f), nil
}

func newTestHandler(t *testing.T, config *Config) *Handler {
	t.Helper()
	table, err := dataset.Load("testdata/titanic_sample.csv")
	require.NoError(t, err)
	return NewHandler(config, query.NewEngine(table), NewTestLogger(t))
}

func TestHandler_Run(t *testing.T) {
	h := newTestHandler(t, LoadConfig())

	tests := []struct {
		name     string
		args     string
		expected string
	}{
		{
			name:     "survivor count",
			args:     `{"query": "df['Survived'].sum()"}`,
			expected: "10",
		},
		{
			name:     "surrounding whitespace",
			args:     `{"query": "  len(df)\n"}`,
			expected: "20",
		},
		{
			name:     "average fare",
			args:     `{"query": "round(df['Fare'].mean(), 2)"}`,
			expected: "22.2",
		},
		{
			name:     "series output",
			args:     `{"query": "df['Embarked'].value_counts()"}`,
			expected: "Embarked\nS    15\nC     3\nQ     2\nName: count, dtype: int64",
		},
		{
			name:     "unknown column",
			args:     `{"query": "df['Deck'].sum()"}`,
			expected: "Error in analysis: KeyError: 'Deck'",
		},
		{
			name:     "statement rejected",
			args:     `{"query": "import os"}`,
			expected: "Error in analysis: ",
		},
		{
			name:     "empty query",
			args:     `{"query": ""}`,
			expected: "Error in analysis: query is empty",
		},
		{
			name:     "arguments not json",
			args:     `df['Age'].mean()`,
			expected: "Error in analysis: parse input: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.Run(context.Background(), tt.args)
			if strings.HasSuffix(tt.expected, ": ") {
				assert.True(t, strings.HasPrefix(out, tt.expected), out)
				return
			}
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestHandler_Name(t *testing.T) {
	assert.Equal(t, "analyze_data", newTestHandler(t, LoadConfig()).Name())
}

func TestHandler_Truncates(t *testing.T) {
	h := NewHandler(&Config{MaxOutputChars: 10}, fixedEvaluator(strings.Repeat("é", 8)), NewTestLogger(t))

	out := h.Evaluate(context.Background(), "x")
	assert.Equal(t, strings.Repeat("é", 5)+truncatedSuffix, out)

	h = NewHandler(&Config{MaxOutputChars: 10}, fixedEvaluator("short"), NewTestLogger(t))
	assert.Equal(t, "short", h.Evaluate(context.Background(), "x"))
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond}, slowEvaluator{delay: time.Second}, NewTestLogger(t))

	start := time.Now()
	out := h.Evaluate(context.Background(), "df")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "Error in analysis: analysis timed out after 20ms", out)
}

func TestHandler_CancelledContext(t *testing.T) {
	h := newTestHandler(t, LoadConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "Error in analysis: context canceled", h.Evaluate(ctx, "len(df)"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab"+truncatedSuffix, truncate("abc", 2))
}
