// Package lock serializes operations on one player's round and progression.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when a player's lock is not acquired in time.
var ErrLockTimeout = errors.New("lock acquisition timeout")

// entry is one player's lock. refs counts the holder plus every waiter; the
// entry is dropped from the map when it reaches zero.
type entry struct {
	sem  chan struct{}
	refs int
}

// UserLock hands out one lock per player ID. Players that hold or wait for
// no lock take no memory.
type UserLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[string]*entry)}
}

func (ul *UserLock) ref(userID string) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.locks[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		ul.locks[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) unref(userID string, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(ul.locks, userID)
	}
}

// acquire waits for the player's lock until timeout or ctx is done.
func (ul *UserLock) acquire(ctx context.Context, userID string, timeout time.Duration) (*entry, error) {
	e := ul.ref(userID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return e, nil
	case <-ctx.Done():
		ul.unref(userID, e)
		return nil, ctx.Err()
	case <-timer.C:
		ul.unref(userID, e)
		return nil, ErrLockTimeout
	}
}

func (ul *UserLock) release(userID string, e *entry) {
	<-e.sem
	ul.unref(userID, e)
}

// WithLock runs fn while holding the player's lock. It returns ErrLockTimeout
// if the lock is not acquired within timeout, or ctx.Err() if ctx ends first.
// The lock is released even if fn panics.
func (ul *UserLock) WithLock(ctx context.Context, userID string, timeout time.Duration, fn func() error) error {
	e, err := ul.acquire(ctx, userID, timeout)
	if err != nil {
		return err
	}
	defer ul.release(userID, e)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// size returns the number of players with a held or awaited lock.
func (ul *UserLock) size() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.locks)
}
