// internal/turn/turn.go
package turn

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Turn is the state of one question. It travels in the request context so
// that tools write their artifacts to the question that invoked them.
type Turn struct {
	ID       string
	Question string

	mu    sync.Mutex
	image string
}

func New(question string) *Turn {
	return &Turn{ID: uuid.NewString(), Question: question}
}

// SetImage stores a base64 PNG; a later call replaces an earlier one.
func (t *Turn) SetImage(encoded string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.image = encoded
}

// Image returns the stored image and whether one is present.
func (t *Turn) Image() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.image, t.image != ""
}

type ctxKey struct{}

// WithTurn returns a context carrying t.
func WithTurn(ctx context.Context, t *Turn) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the turn stored by WithTurn, or nil.
func FromContext(ctx context.Context) *Turn {
	t, _ := ctx.Value(ctxKey{}).(*Turn)
	return t
}
