package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestWithLockSerializesProperty checks that concurrent read-modify-write under
// the lock matches sequential execution, and that no lock entries are left.
func TestWithLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.IntRange(0, 100).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		userID := rapid.StringMatching(`[a-z0-9]{1,12}`).Draw(t, "userID")

		deltas := make([]int, numOps)
		expected := initial
		for i := range deltas {
			deltas[i] = rapid.IntRange(-5, 5).Draw(t, "delta")
			expected += deltas[i]
		}

		ul := NewUserLock()
		counter := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, d := range deltas {
			go func(d int) {
				defer wg.Done()
				err := ul.WithLock(context.Background(), userID, 5*time.Second, func() error {
					counter += d
					return nil
				})
				if err != nil {
					panic(err)
				}
			}(d)
		}
		wg.Wait()

		if counter != expected {
			t.Fatalf("counter mismatch: expected %d, got %d", expected, counter)
		}
		if n := ul.size(); n != 0 {
			t.Fatalf("%d lock entries left after all operations", n)
		}
	})
}

// TestPlayersAreIndependentProperty checks that locks for different players do
// not interfere and are all released.
func TestPlayersAreIndependentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numUsers := rapid.IntRange(2, 10).Draw(t, "numUsers")
		opsPerUser := rapid.IntRange(5, 20).Draw(t, "opsPerUser")

		ul := NewUserLock()
		counters := make(map[string]*int, numUsers)
		for i := 0; i < numUsers; i++ {
			c := 0
			counters[fmt.Sprintf("user-%d", i)] = &c
		}

		var wg sync.WaitGroup
		wg.Add(numUsers * opsPerUser)
		for uid := range counters {
			for j := 0; j < opsPerUser; j++ {
				go func(uid string) {
					defer wg.Done()
					_ = ul.WithLock(context.Background(), uid, 5*time.Second, func() error {
						*counters[uid]++
						return nil
					})
				}(uid)
			}
		}
		wg.Wait()

		for uid, c := range counters {
			if *c != opsPerUser {
				t.Fatalf("%s: expected %d, got %d", uid, opsPerUser, *c)
			}
		}
		if n := ul.size(); n != 0 {
			t.Fatalf("%d lock entries left", n)
		}
	})
}

// TestManyPlayersLeaveNoEntriesProperty checks that a long-running lock does
// not grow with the number of distinct players seen.
func TestManyPlayersLeaveNoEntriesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,8}`), 1, 100).Draw(t, "ids")

		ul := NewUserLock()
		for _, id := range ids {
			_ = ul.WithLock(context.Background(), id, time.Second, func() error { return nil })
		}
		if n := ul.size(); n != 0 {
			t.Fatalf("%d lock entries left for %d players", n, len(ids))
		}
	})
}

func TestWithLock_Timeout(t *testing.T) {
	ul := NewUserLock()
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = ul.WithLock(context.Background(), "u1", time.Second, func() error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	called := false
	err := ul.WithLock(context.Background(), "u1", 20*time.Millisecond, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, called)
	assert.Equal(t, 1, ul.size(), "the holder still owns the entry")

	close(done)
	require.Eventually(t, func() bool { return ul.size() == 0 }, time.Second, 5*time.Millisecond)

	err = ul.WithLock(context.Background(), "u1", time.Second, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithLock_CancelledContext(t *testing.T) {
	ul := NewUserLock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := ul.WithLock(ctx, "u1", time.Second, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Zero(t, ul.size())
}

func TestWithLock_ReturnsErrorAndReleases(t *testing.T) {
	ul := NewUserLock()
	cause := errors.New("boom")

	err := ul.WithLock(context.Background(), "u1", time.Second, func() error { return cause })
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, ul.size())
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	ul := NewUserLock()

	assert.Panics(t, func() {
		_ = ul.WithLock(context.Background(), "u1", time.Second, func() error { panic("boom") })
	})
	assert.Zero(t, ul.size())

	var ran atomic.Bool
	require.NoError(t, ul.WithLock(context.Background(), "u1", 50*time.Millisecond, func() error {
		ran.Store(true)
		return nil
	}))
	assert.True(t, ran.Load())
}
