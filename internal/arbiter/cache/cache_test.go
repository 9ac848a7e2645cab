package cache_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/internal/arbiter/cache"
	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
)

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) Generate(_ context.Context, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("answer %d for %s", c.calls, prompt), nil
}

func openCache(t *testing.T, path, model string, inner arbiter.Client) *cache.Client {
	t.Helper()
	c, err := cache.Open(path, model, inner)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGenerateReplaysStoredResponses(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{}
	c := openCache(t, filepath.Join(t.TempDir(), "arbiter.db"), "model-a", inner)

	first, err := c.Generate(ctx, "prompt")
	require.NoError(t, err)
	second, err := c.Generate(ctx, "prompt")
	require.NoError(t, err)

	assert.Equal(t, "answer 1 for prompt", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, c.Stats())

	other, err := c.Generate(ctx, "other prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer 2 for other prompt", other)
}

func TestGenerateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "arbiter.db")

	c, err := cache.Open(path, "model-a", &countingClient{})
	require.NoError(t, err)
	_, err = c.Generate(ctx, "prompt")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	inner := &countingClient{}
	reopened := openCache(t, path, "model-a", inner)
	text, err := reopened.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer 1 for prompt", text)
	assert.Equal(t, 0, inner.calls)

	otherModel := openCache(t, path, "model-b", inner)
	_, err = otherModel.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestGenerateDoesNotStoreFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingClient{err: fmt.Errorf("unavailable")}
	c := openCache(t, filepath.Join(t.TempDir(), "arbiter.db"), "model-a", inner)

	_, err := c.Generate(ctx, "prompt")
	require.Error(t, err)

	inner.err = nil
	text, err := c.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer 2 for prompt", text)
}

func TestKey(t *testing.T) {
	assert.Equal(t, cache.Key("m", "p"), cache.Key("m", "p"))
	assert.NotEqual(t, cache.Key("m", "p"), cache.Key("n", "p"))
	assert.NotEqual(t, cache.Key("mp", ""), cache.Key("m", "p"))
	assert.Len(t, cache.Key("m", "p"), 64)
}

func TestOpenRequiresClient(t *testing.T) {
	_, err := cache.Open(filepath.Join(t.TempDir(), "arbiter.db"), "m", nil)
	assert.Error(t, err)
}
