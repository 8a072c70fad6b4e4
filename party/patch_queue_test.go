// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// staleError builds the service's stale-revision rejection carrying the
// authoritative revision in messageVars.
func staleError(authoritative string) *EpicError {
	return &EpicError{
		Code:        staleRevisionCode,
		Message:     "stale revision",
		MessageVars: []string{"some-party-id", authoritative},
		HTTPStatus:  409,
	}
}

func TestQueueDispatchesInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []string

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		mu.Lock()
		got = append(got, upd.Update["k"])
		mu.Unlock()
		return nil
	})
	defer q.Close()

	for _, v := range []string{"a", "b", "c"} {
		q.Enqueue(map[string]string{"k": v}, nil)
	}

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for i, want := range []string{"a", "b", "c"} {
		checkStringEqual(t, "dispatch order", got[i], want)
	}
}

func TestQueueRevisionAdvancesOnSuccess(t *testing.T) {
	var revisions []int
	var mu sync.Mutex

	q := NewPatchQueue("test", 5, func(ctx context.Context, upd PendingUpdate, revision int) error {
		mu.Lock()
		revisions = append(revisions, revision)
		mu.Unlock()
		return nil
	})
	defer q.Close()

	q.Enqueue(map[string]string{"k": "1"}, nil)
	q.Enqueue(map[string]string{"k": "2"}, nil)

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(revisions) == 2
	})

	mu.Lock()
	checkIntEqual(t, "first revision", revisions[0], 5)
	checkIntEqual(t, "second revision", revisions[1], 6)
	mu.Unlock()
	checkIntEqual(t, "final revision", q.Revision(), 7)
}

func TestQueueStaleRevisionRetriesOnce(t *testing.T) {
	var attempts []int
	var mu sync.Mutex

	q := NewPatchQueue("test", 3, func(ctx context.Context, upd PendingUpdate, revision int) error {
		mu.Lock()
		attempts = append(attempts, revision)
		n := len(attempts)
		mu.Unlock()
		if n == 1 {
			return staleError("17")
		}
		return nil
	})
	defer q.Close()

	q.Enqueue(map[string]string{"k": "v"}, nil)

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(attempts) == 2
	})

	mu.Lock()
	checkIntEqual(t, "first attempt revision", attempts[0], 3)
	checkIntEqual(t, "retry revision", attempts[1], 17)
	mu.Unlock()

	// The retry succeeded, so the local revision is authoritative+1.
	checkIntEqual(t, "revision after retry", q.Revision(), 18)
}

func TestQueueStaleRetryFailsOnlyOnce(t *testing.T) {
	var attempts atomic.Int32

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		attempts.Add(1)
		return staleError("9")
	})
	defer q.Close()

	q.Enqueue(map[string]string{"k": "v"}, nil)

	waitUntil(t, 2*time.Second, func() bool {
		return attempts.Load() == 2
	})

	// No third attempt even after a grace period.
	time.Sleep(50 * time.Millisecond)
	if n := attempts.Load(); n != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", n)
	}
	// The adopted revision survives so the next item starts from it.
	checkIntEqual(t, "adopted revision", q.Revision(), 9)
}

func TestQueueSingleDrainUnderConcurrentEnqueue(t *testing.T) {
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	var dispatched atomic.Int32

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		dispatched.Add(1)
		return nil
	})
	defer q.Close()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(map[string]string{"k": "v"}, nil)
		}()
	}
	wg.Wait()

	waitUntil(t, 5*time.Second, func() bool {
		return dispatched.Load() == n
	})

	if m := maxInFlight.Load(); m != 1 {
		t.Errorf("expected at most 1 in-flight dispatch, observed %d", m)
	}
}

func TestQueueContinuesAfterDispatchFailure(t *testing.T) {
	var mu sync.Mutex
	var got []string

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		if upd.Update["k"] == "bad" {
			return errors.New("service unavailable")
		}
		mu.Lock()
		got = append(got, upd.Update["k"])
		mu.Unlock()
		return nil
	})
	defer q.Close()

	q.Enqueue(map[string]string{"k": "bad"}, nil)
	q.Enqueue(map[string]string{"k": "good"}, nil)

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	checkStringEqual(t, "surviving dispatch", got[0], "good")
}

func TestQueueClearDiscardsPending(t *testing.T) {
	release := make(chan struct{})
	var dispatched atomic.Int32

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		dispatched.Add(1)
		<-release
		return nil
	})
	defer q.Close()

	q.Enqueue(map[string]string{"k": "1"}, nil)
	waitUntil(t, 2*time.Second, func() bool { return dispatched.Load() == 1 })

	// Queued behind the blocked dispatch, then discarded.
	q.Enqueue(map[string]string{"k": "2"}, nil)
	q.Enqueue(map[string]string{"k": "3"}, nil)
	q.Clear()
	close(release)

	time.Sleep(50 * time.Millisecond)
	if n := dispatched.Load(); n != 1 {
		t.Errorf("expected cleared items to be dropped, dispatched %d", n)
	}
}

func TestQueueCloseStopsDrain(t *testing.T) {
	started := make(chan struct{})

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	})

	q.Enqueue(map[string]string{"k": "v"}, nil)
	<-started

	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after context cancellation")
	}
}

func TestQueueSetRevisionAdoptedByNextDispatch(t *testing.T) {
	var mu sync.Mutex
	var revisions []int

	q := NewPatchQueue("test", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		mu.Lock()
		revisions = append(revisions, revision)
		mu.Unlock()
		return nil
	})
	defer q.Close()

	q.SetRevision(42)
	q.Enqueue(map[string]string{"k": "v"}, nil)

	waitUntil(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(revisions) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	checkIntEqual(t, "adopted revision", revisions[0], 42)
}
