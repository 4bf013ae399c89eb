// internal/chatclient/client_test.go
package chatclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		env      string
		expected string
	}{
		{name: "default", expected: "http://127.0.0.1:8000"},
		{name: "env", env: "http://backend:9000", expected: "http://backend:9000"},
		{name: "flag wins", flag: "http://flag:1/", env: "http://backend:9000", expected: "http://flag:1"},
		{name: "blank flag falls back", flag: "  ", env: "http://backend:9000/", expected: "http://backend:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvBaseURL, tt.env)
			assert.Equal(t, tt.expected, ResolveBaseURL(tt.flag))
		})
	}
}

func TestClient_Ask(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected Reply
	}{
		{
			name:     "text answer",
			status:   http.StatusOK,
			body:     `{"answer": "10 passengers survived.", "image": null}`,
			expected: Reply{Answer: "10 passengers survived."},
		},
		{
			name:     "image answer",
			status:   http.StatusOK,
			body:     `{"answer": "Here is the requested visualization:", "image": "iVBORw0KGgo="}`,
			expected: Reply{Answer: "Here is the requested visualization:", Image: "iVBORw0KGgo="},
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"detail": "LLM_CALL_FAILED: Model call failed"}`,
			expected: Reply{Answer: "Backend error (Status 500)"},
		},
		{
			name:     "validation error",
			status:   http.StatusUnprocessableEntity,
			body:     `{"detail": "question is required"}`,
			expected: Reply{Answer: "Backend error (Status 422)"},
		},
		{
			name:     "not json",
			status:   http.StatusOK,
			body:     `<html>proxy</html>`,
			expected: Reply{Answer: "Invalid response format from backend."},
		},
		{
			name:     "json without answer",
			status:   http.StatusOK,
			body:     `{"message": "hi"}`,
			expected: Reply{Answer: "Invalid response format from backend."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got askRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/ask", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			reply := NewClient(server.URL+"/", time.Second).Ask(context.Background(), "How many passengers survived?")
			assert.Equal(t, tt.expected, reply)
			assert.Equal(t, "How many passengers survived?", got.Question)
		})
	}
}

func TestClient_AskTransportFailures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		reply := NewClient(url, time.Second).Ask(context.Background(), "q")
		assert.Equal(t, "Cannot connect to backend. Make sure the API server is running.", reply.Answer)
		assert.False(t, reply.HasImage())
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		reply := NewClient(server.URL, 50*time.Millisecond).Ask(context.Background(), "q")
		assert.Equal(t, "Request timed out. The model may be taking too long.", reply.Answer)
	})

	t.Run("bad url", func(t *testing.T) {
		reply := NewClient("://nowhere", time.Second).Ask(context.Background(), "q")
		assert.Contains(t, reply.Answer, "Unexpected error: ")
	})
}

func TestClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"message": "Titanic Chatbot API is running 🚢"}`))
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL, time.Second).Ping(context.Background()))
	assert.Error(t, NewClient(server.URL+"/missing", time.Second).Ping(context.Background()))
}

func TestSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": "Here is the requested visualization:", "image": "iVBORw0KGgo="}`))
	}))
	defer server.Close()

	s := NewSession()
	reply := s.Ask(context.Background(), NewClient(server.URL, time.Second), "Plot passenger count by sex")
	assert.True(t, reply.HasImage())

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "Plot passenger count by sex", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, "iVBORw0KGgo=", history[1].Image)

	history[0].Content = "mutated"
	assert.Equal(t, "Plot passenger count by sex", s.History()[0].Content)

	s.Clear()
	assert.Empty(t, s.History())
}

func TestSaveImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	png := append([]byte("\x89PNG\r\n\x1a\n"), 0, 0, 0, 0)

	path, err := SaveImage(dir, base64.StdEncoding.EncodeToString(png))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, data)

	_, err = SaveImage(dir, "not base64!")
	assert.ErrorContains(t, err, "decode image")

	_, err = SaveImage(dir, base64.StdEncoding.EncodeToString([]byte("GIF89a")))
	assert.ErrorIs(t, err, ErrNotPNG)
}

func TestExampleQuestions(t *testing.T) {
	assert.Len(t, ExampleQuestions, 9)
	assert.Contains(t, ExampleQuestions, "Which class had the highest survival rate?")
}
