package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponses() []thread.Response {
	return []thread.Response{
		{Body: "I am a bot", Score: 1, Automated: true},
		{Body: "NTA", Score: 2282, Judgement: judgement.NTA, Judged: true},
		{Body: "hmm", Score: 467},
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "top_level_comments"))
	require.NoError(t, err)

	_, err = c.Get(ctx, "fui7gp")
	assert.ErrorIs(t, err, core.ErrCacheMiss)

	require.NoError(t, c.Put(ctx, "fui7gp", sampleResponses()))

	got, err := c.Get(ctx, "fui7gp")
	require.NoError(t, err)
	assert.Equal(t, sampleResponses(), got)
}

func TestFileCacheWritesOnce(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "p1", sampleResponses()))
	err = c.Put(ctx, "p1", nil)
	assert.ErrorIs(t, err, core.ErrAlreadyCached)

	got, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// no temporary files left behind
	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileCacheConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Put(ctx, "race", sampleResponses())
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, core.ErrAlreadyCached)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestFileCacheEmptyAndInvalid(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "empty", nil))
	got, err := c.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, c.Put(ctx, "../escape", nil))
	_, err = c.Get(ctx, "")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "bad.json"), []byte("{"), 0o644))
	_, err = c.Get(ctx, "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrCacheMiss)
}
