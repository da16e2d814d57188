package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

var (
	_ CacheService = (*RedisCache)(nil)
	_ DraftStore   = (*RedisCache)(nil)
	_ CacheService = (*MemoryCache)(nil)
	_ DraftStore   = (*MemoryCache)(nil)
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, QuizKey(1), map[string]int{"points": 10}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, QuizKey(1), &got))
	assert.Equal(t, 10, got["points"])

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, QuizKey(1), &got), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "quiz:1:results", 1, 0))
	require.NoError(t, c.Set(ctx, "quiz:1:stats", 2, 0))
	require.NoError(t, c.Set(ctx, "quiz:2:stats", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, QuizResultsPattern(1)))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "quiz:1:results", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "quiz:1:stats", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "quiz:2:stats", &v))
	assert.Equal(t, 3, v)
}

func TestMemoryCache_Drafts(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.SaveDraftAnswer(ctx, 9, 1, scoring.Answer{Selected: []string{"A"}}, time.Hour))
	require.NoError(t, c.SaveDraftAnswer(ctx, 9, 2, scoring.Answer{Text: "paris"}, time.Hour))
	require.NoError(t, c.SaveDraftAnswer(ctx, 9, 1, scoring.Answer{Selected: []string{"B"}}, time.Hour))

	draft, err := c.LoadDraft(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, map[uint]scoring.Answer{
		1: {Selected: []string{"B"}},
		2: {Text: "paris"},
	}, draft)

	require.NoError(t, c.ClearDraft(ctx, 9))
	draft, err = c.LoadDraft(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, draft)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "quiz:4", QuizKey(4))
	assert.Equal(t, "attempt:12:answers", DraftKey(12))
}
