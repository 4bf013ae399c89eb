// internal/common/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "titanic-agent/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "analyze_data", "arguments": "{\"query\": \"len(df)\"}"}
					}]
				}
			}]
		}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Model: "test-model", Timeout: 5 * time.Second})
	assert.Equal(t, "test-model", c.Model())

	msg, err := c.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "How many passengers?"},
	}, []openai.Tool{{
		Type:     openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{Name: "analyze_data", Parameters: json.RawMessage(`{"type":"object"}`)},
	}})
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "analyze_data", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query": "len(df)"}`, msg.ToolCalls[0].Function.Arguments)

	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, "auto", got["tool_choice"])
	temp, ok := got["temperature"].(float64)
	require.True(t, ok, "temperature must be sent even when zero")
	assert.InDelta(t, 0, temp, 1e-6)
	assert.Len(t, got["tools"], 1)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": {"message": "Invalid API Key", "type": "invalid_request_error"}}`,
			wantErr: "Invalid API Key",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id": "x", "choices": []}`,
			wantErr: ErrNoChoices.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(Config{BaseURL: server.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second})
			_, err := c.Complete(context.Background(), nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "k", Model: "m", Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
