package views

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevisionsKeepsHighest(t *testing.T) {
	ctx := context.Background()
	revs := NewMemoryRevisions()

	last, err := revs.LastAccepted(ctx, "31")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last, "unseen id reads as zero")

	require.NoError(t, revs.Record(ctx, "31", 3))
	require.NoError(t, revs.Record(ctx, "31", 2), "lower revision is a no-op")

	last, err = revs.LastAccepted(ctx, "31")
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)

	require.NoError(t, revs.Record(ctx, "31", 5))
	last, err = revs.LastAccepted(ctx, "31")
	require.NoError(t, err)
	assert.Equal(t, int64(5), last)
}

func TestRedisRevisionsSharedBetweenTerminals(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	// Two clients stand in for two reception terminals.
	terminalA := NewRedisRevisions(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	terminalB := NewRedisRevisions(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, terminalA.Record(ctx, "31", 4))

	last, err := terminalB.LastAccepted(ctx, "31")
	require.NoError(t, err)
	assert.Equal(t, int64(4), last)

	// A lagging terminal cannot move the revision backwards.
	require.NoError(t, terminalB.Record(ctx, "31", 2))
	last, err = terminalA.LastAccepted(ctx, "31")
	require.NoError(t, err)
	assert.Equal(t, int64(4), last)

	last, err = terminalA.LastAccepted(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
}
