package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSweeperEvictsExpiredSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	sess := store.Create(ModeTwin, false)
	sess.ExpiresAt = time.Now().Add(-time.Second)

	swept := make(chan int, 1)
	sweeper := NewSweeper(store, 10*time.Millisecond, func(count int) {
		select {
		case swept <- count:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	select {
	case count := <-swept:
		assert.Equal(t, 1, count)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not evict the expired session")
	}
	assert.Equal(t, 0, store.Len())
}

func TestSweeperStopsOnCancel(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	sweeper := NewSweeper(store, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
