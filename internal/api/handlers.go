// internal/api/handlers.go
package api

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	commonerrors "titanic-agent/internal/common/errors"
	"titanic-agent/internal/common/validation"
	answerquestion "titanic-agent/internal/workers/agent/answer-question"
)

const (
	RootMessage  = "Titanic Chatbot API is running 🚢"
	maxBodyBytes = 1 << 20
)

//go:embed ask_request.schema.json
var askRequestSchema []byte

var askSchema = validation.MustCompile(askRequestSchema)

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse = answerquestion.Output

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError("request body too large"))
			return
		}
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError("could not read request body"))
		return
	}

	if res := askSchema.Validate(body); !res.Valid {
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError(res.Summary()))
		return
	}
	var req AskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errors.HandleHTTPError(w, r, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	s.logger.Info("question received", map[string]interface{}{
		"requestId": RequestIDFromContext(r.Context()),
		"question":  req.Question,
	})

	out, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
