// internal/guard/guard_test.go
package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"itbot/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Conversation Lock Tests
// ==========================

func TestConversationLocks_SerializesSameKey(t *testing.T) {
	locks := NewConversationLocks()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("U123:C456")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestConversationLocks_DifferentKeysIndependent(t *testing.T) {
	locks := NewConversationLocks()

	unlockA := locks.Lock("U1:C1")
	defer unlockA()

	// Holding one conversation's lock must not block another's.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("U2:C2")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different conversation blocked")
	}
}

// ==========================
// Deduplication Tests
// ==========================

func newTestDedup(t *testing.T, window time.Duration) (*Deduplicator, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDeduplicator(client, window, logger.NewTestLogger(t)), mr
}

func TestDeduplicator_FirstClaimWins(t *testing.T) {
	d, _ := newTestDedup(t, 15*time.Minute)
	ctx := context.Background()

	assert.True(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "my laptop is broken"))
	assert.False(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "my laptop is broken"))
}

func TestDeduplicator_NormalizationMatchesRetries(t *testing.T) {
	d, _ := newTestDedup(t, 15*time.Minute)
	ctx := context.Background()

	assert.True(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "My  Laptop is broken"))
	// Same timestamp, same words, different spacing and case.
	assert.False(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "my laptop is  BROKEN"))
}

func TestDeduplicator_DistinctTurnsPass(t *testing.T) {
	d, _ := newTestDedup(t, 15*time.Minute)
	ctx := context.Background()

	assert.True(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "my laptop is broken"))

	// Same text sent again later is a new turn, not a retry.
	assert.True(t, d.Claim(ctx, "U123:C456", "1700000099.000200", "my laptop is broken"))

	// Same delivery fingerprint in another conversation is unrelated.
	assert.True(t, d.Claim(ctx, "U999:C999", "1700000000.000100", "my laptop is broken"))
}

func TestDeduplicator_WindowExpiry(t *testing.T) {
	d, mr := newTestDedup(t, 15*time.Minute)
	ctx := context.Background()

	assert.True(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "hello"))
	mr.FastForward(16 * time.Minute)
	assert.True(t, d.Claim(ctx, "U123:C456", "1700000000.000100", "hello"))
}

func TestDeduplicator_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	d := NewDeduplicator(client, 15*time.Minute, logger.NewNoOpLogger())

	mr.Close()
	assert.True(t, d.Claim(context.Background(), "U123:C456", "1700000000.000100", "hello"))
}

func TestDeduplicator_ConcurrentClaimsExactlyOneWinner(t *testing.T) {
	d, _ := newTestDedup(t, 15*time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.Claim(ctx, "U123:C456", "1700000000.000100", "my laptop is broken")
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for fresh := range results {
		if fresh {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
