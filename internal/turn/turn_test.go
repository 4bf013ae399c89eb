// internal/turn/turn_test.go
package turn

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsEmpty(t *testing.T) {
	tr := New("Plot passenger count by sex")

	_, err := uuid.Parse(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plot passenger count by sex", tr.Question)

	img, ok := tr.Image()
	assert.False(t, ok)
	assert.Empty(t, img)

	assert.NotEqual(t, tr.ID, New("again").ID)
}

func TestTurn_LastWriteWins(t *testing.T) {
	tr := New("q")
	tr.SetImage("first")
	tr.SetImage("second")

	img, ok := tr.Image()
	assert.True(t, ok)
	assert.Equal(t, "second", img)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	tr := New("q")
	ctx := WithTurn(context.Background(), tr)
	assert.Same(t, tr, FromContext(ctx))
}

func TestTurn_ConcurrentTurnsAreIsolated(t *testing.T) {
	const n = 32
	turns := make([]*Turn, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		turns[i] = New(fmt.Sprintf("q%d", i))
		wg.Add(1)
		go func(ctx context.Context, i int) {
			defer wg.Done()
			FromContext(ctx).SetImage(fmt.Sprintf("img%d", i))
		}(WithTurn(context.Background(), turns[i]), i)
	}
	wg.Wait()

	for i, tr := range turns {
		img, ok := tr.Image()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("img%d", i), img)
	}
}
