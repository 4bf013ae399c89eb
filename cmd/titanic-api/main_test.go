// cmd/titanic-api/main_test.go
package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"titanic-agent/internal/common/config"
	"titanic-agent/internal/common/logger"
	"titanic-agent/internal/common/observability"
	"titanic-agent/internal/dataset"
	"titanic-agent/pkg/registry"
)

const plotCall = `{"id":"1","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"visualize_data","arguments":"{\"kind\":\"bar\",\"x\":\"Sex\",\"title\":\"Passengers by sex\",\"xlabel\":\"Sex\",\"ylabel\":\"Count\"}"}}]}}]}`

const analyzeCall = `{"id":"1","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"analyze_data","arguments":"{\"query\":\"df['Survived'].sum()\"}"}}]}}]}`

const finalAnswer = `{"id":"2","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Done."}}]}`

// fakeModel answers the first call of each question with first, then stops.
func fakeModel(t *testing.T, first string) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		seen = append(seen, body)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		msgs, _ := body["messages"].([]interface{})
		if len(msgs) == 2 {
			_, _ = w.Write([]byte(first))
			return
		}
		_, _ = w.Write([]byte(finalAnswer))
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func testConfig(baseURL string, tools map[string]config.ToolConfig) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "titanic-agent"},
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		LLM: config.LLMConfig{
			BaseURL: baseURL,
			APIKey:  "test-key",
			Model:   "openai/gpt-oss-120b",
			Timeout: 5000,
		},
		Agent: config.AgentConfig{MaxIterations: 4},
		Chart: config.ChartConfig{Width: 4, Height: 3},
		Tools: tools,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	table, err := dataset.Load("../../data/titanic.csv")
	require.NoError(t, err)
	obs := observability.New("titanic-agent-test", observability.WithRegisterer(prometheus.NewRegistry()))
	t.Cleanup(obs.Shutdown)

	router, err := buildRouter(cfg, table, obs, logger.NewTestLogger(t))
	require.NoError(t, err)
	return router
}

func ask(t *testing.T, h http.Handler, question string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "`+question+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestBuildRouter_PlotQuestion(t *testing.T) {
	server, _ := fakeModel(t, plotCall)
	h := newTestRouter(t, testConfig(server.URL, nil))

	status, body := ask(t, h, "Plot passenger count by sex")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Here is the requested visualization:", body["answer"])

	image, ok := body["image"].(string)
	require.True(t, ok)
	data, err := base64.StdEncoding.DecodeString(image)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))
}

func TestBuildRouter_AnalysisQuestion(t *testing.T) {
	server, seen := fakeModel(t, analyzeCall)
	h := newTestRouter(t, testConfig(server.URL, nil))

	status, body := ask(t, h, "How many passengers survived?")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Done.", body["answer"])
	assert.Nil(t, body["image"])

	require.Len(t, *seen, 2)
	tools, ok := (*seen)[0]["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, 2)
}

func TestBuildRouter_DisabledTool(t *testing.T) {
	server, seen := fakeModel(t, plotCall)
	cfg := testConfig(server.URL, map[string]config.ToolConfig{
		"visualize_data": {Enabled: false},
	})
	h := newTestRouter(t, cfg)

	status, body := ask(t, h, "Plot passenger count by sex")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Done.", body["answer"])
	assert.Nil(t, body["image"])

	tools, ok := (*seen)[0]["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]interface{})["function"].(map[string]interface{})
	assert.Equal(t, "analyze_data", fn["name"])
}

func TestBuildRouter_Ready(t *testing.T) {
	server, _ := fakeModel(t, finalAnswer)
	h := newTestRouter(t, testConfig(server.URL, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToolTimeout(t *testing.T) {
	catalog := &registry.ToolRegistry{Tools: []registry.Tool{
		{Name: "analyze_data", Timeout: "3s"},
		{Name: "visualize_data", Timeout: "soon"},
	}}
	def := 10 * time.Second

	tests := []struct {
		name     string
		tc       config.ToolConfig
		tool     string
		expected time.Duration
	}{
		{name: "config wins", tc: config.ToolConfig{Enabled: true, Timeout: 1500}, tool: "analyze_data", expected: 1500 * time.Millisecond},
		{name: "catalog when config unset", tc: config.ToolConfig{Enabled: true}, tool: "analyze_data", expected: 3 * time.Second},
		{name: "default when catalog invalid", tc: config.ToolConfig{Enabled: true}, tool: "visualize_data", expected: def},
		{name: "default when not in catalog", tc: config.ToolConfig{Enabled: true}, tool: "other", expected: def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toolTimeout(tt.tc, catalog, tt.tool, def))
		})
	}
}

func TestToolTimeout_DefaultCatalog(t *testing.T) {
	catalog, err := registry.Default()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, toolTimeout(config.ToolConfig{}, catalog, "visualize_data", time.Second))
	assert.Equal(t, 10*time.Second, toolTimeout(config.ToolConfig{}, catalog, "analyze_data", time.Second))
}
