// internal/chatclient/session.go
package chatclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Entry struct {
	Role    string
	Content string
	Image   string
	At      time.Time
}

// Session is an ordered chat history.
type Session struct {
	mu      sync.Mutex
	entries []Entry
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.At = time.Now()
	s.entries = append(s.entries, e)
}

// Ask records the question, asks the backend and records the reply.
func (s *Session) Ask(ctx context.Context, c *Client, question string) Reply {
	s.add(Entry{Role: RoleUser, Content: question})
	reply := c.Ask(ctx, question)
	s.add(Entry{Role: RoleAssistant, Content: reply.Answer, Image: reply.Image})
	return reply
}

// History returns a copy of the entries in order.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

var ErrNotPNG = errors.New("image is not a PNG")

// SaveImage decodes a base64 PNG into dir and returns the file path.
func SaveImage(dir, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return "", ErrNotPNG
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("titanic-%s.png", uuid.NewString()[:8]))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
