// internal/workers/tools/visualize-data/handler_test.go
package visualizedata

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titanic-agent/internal/chart"
	"titanic-agent/internal/dataset"
	"titanic-agent/internal/turn"
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

type slowRenderer struct{}

func (slowRenderer) Render(chart.Spec) ([]byte, error) {
	time.Sleep(time.Second)
	return []byte("png"), nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	table, err := dataset.Load("testdata/titanic_sample.csv")
	require.NoError(t, err)
	return NewHandler(LoadConfig(), chart.NewRenderer(table), NewTestLogger(t))
}

func TestHandler_RenderStoresImage(t *testing.T) {
	h := newTestHandler(t)
	tr := turn.New("Plot passenger count by sex")
	ctx := turn.WithTurn(context.Background(), tr)

	out := h.Run(ctx, `{"kind":"bar","x":"Sex","title":"Passenger count by sex","xlabel":"Sex","ylabel":"Count"}`)
	assert.Equal(t, "Plot generated successfully.", out)

	img, ok := tr.Image()
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(img)
	require.NoError(t, err)
	_, err = png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.NotContains(t, out, img)
}

func TestHandler_LastPlotWins(t *testing.T) {
	h := newTestHandler(t)
	tr := turn.New("q")
	ctx := turn.WithTurn(context.Background(), tr)

	require.Equal(t, SuccessMessage, h.Render(ctx, `{"kind":"hist","x":"Age","title":"Ages","xlabel":"Age","ylabel":"Count"}`))
	first, _ := tr.Image()
	require.Equal(t, SuccessMessage, h.Render(ctx, `{"kind":"hist","x":"Fare","title":"Fares","xlabel":"Fare","ylabel":"Count"}`))
	second, _ := tr.Image()
	assert.NotEqual(t, first, second)
}

func TestHandler_FailuresLeaveSlotUntouched(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name    string
		spec    string
		message string
	}{
		{
			name:    "syntax error",
			spec:    `{"kind": "bar", "x": `,
			message: "Error in visualization: invalid plot spec",
		},
		{
			name:    "prose instead of spec",
			spec:    `Here is a bar chart of passengers by sex`,
			message: "Error in visualization: invalid plot spec",
		},
		{
			name:    "missing labels",
			spec:    `{"kind":"bar","x":"Sex"}`,
			message: "Error in visualization: invalid plot spec: title is required",
		},
		{
			name:    "unknown column",
			spec:    `{"kind":"bar","x":"Deck","title":"t","xlabel":"x","ylabel":"y"}`,
			message: "Error in visualization: unknown column 'Deck'",
		},
		{
			name:    "empty selection",
			spec:    `{"kind":"bar","x":"Sex","filter":"df['Age'] > 200","title":"t","xlabel":"x","ylabel":"y"}`,
			message: "Error in visualization: no data to plot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := turn.New("q")
			tr.SetImage("previous")
			out := h.Render(turn.WithTurn(context.Background(), tr), tt.spec)

			assert.True(t, strings.HasPrefix(out, tt.message), out)
			img, ok := tr.Image()
			assert.True(t, ok)
			assert.Equal(t, "previous", img)
		})
	}
}

func TestHandler_NoTurn(t *testing.T) {
	out := newTestHandler(t).Render(context.Background(), `{"kind":"hist","x":"Age","title":"t","xlabel":"x","ylabel":"y"}`)
	assert.Equal(t, "Error in visualization: no question in progress", out)
}

func TestHandler_Timeout(t *testing.T) {
	h := NewHandler(&Config{Timeout: 20 * time.Millisecond}, slowRenderer{}, NewTestLogger(t))
	tr := turn.New("q")

	out := h.Render(turn.WithTurn(context.Background(), tr), `{"kind":"hist","x":"Age","title":"t","xlabel":"x","ylabel":"y"}`)
	assert.Equal(t, "Error in visualization: rendering timed out after 20ms", out)
	_, ok := tr.Image()
	assert.False(t, ok)
}
