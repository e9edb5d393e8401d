package lazy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_LoadsOnce(t *testing.T) {
	calls := 0
	l := New(func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	assert.False(t, l.IsLoaded())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.True(t, l.IsLoaded())
}

func TestLazy_RetriesAfterError(t *testing.T) {
	calls := 0
	l := New(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("daemon not running")
		}
		return "client", nil
	})

	_, err := l.Get(context.Background())
	require.Error(t, err)
	assert.False(t, l.IsLoaded())

	v, err := l.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "client", v)
}

func TestLazy_Reset(t *testing.T) {
	n := 0
	l := New(func(ctx context.Context) (int, error) {
		n++
		return n, nil
	})

	v, _ := l.Get(context.Background())
	assert.Equal(t, 1, v)

	prev, had := l.Reset()
	assert.True(t, had)
	assert.Equal(t, 1, prev)

	v, _ = l.Get(context.Background())
	assert.Equal(t, 2, v)

	_, _ = l.Reset()
	_, had = l.Reset()
	assert.False(t, had)
}
