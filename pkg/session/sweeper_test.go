package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_EvictsExpiredSessions(t *testing.T) {
	store := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := store.Get(ctx, "CA1")
	require.NoError(t, err)

	logger := store.logger
	sweeper := NewSweeper(store, 0, 10*time.Millisecond, logger)
	go sweeper.Run(ctx)

	assert.Eventually(t, func() bool {
		n, err := store.Count(context.Background())
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)
}
