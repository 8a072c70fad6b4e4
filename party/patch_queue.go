// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
patch_queue.go - Revisioned PATCH Queue

Serializes concurrent local mutation intents into a single ordered stream of
remote PATCH calls. The remote document is guarded by an integer revision;
a PATCH is accepted only when the submitted revision matches server state.
On a stale-revision rejection the queue adopts the server's authoritative
revision and retries the same payload exactly once.

Concurrency invariant: at most one dispatch is in flight per queue at any
time. A drain goroutine is spawned lazily when the queue transitions from
empty to non-empty and exits when the queue empties; no second drain ever
runs concurrently.
*/

package party

import (
	"context"
	"errors"
	"sync"

	"github.com/partyline/partyline/internal/logging"
	"github.com/partyline/partyline/internal/metrics"
)

// DispatchFunc issues one PATCH for a pending update at the given revision.
type DispatchFunc func(ctx context.Context, upd PendingUpdate, revision int) error

// PatchQueue orders metadata deltas into sequential PATCH dispatches.
type PatchQueue struct {
	name     string
	dispatch DispatchFunc

	mu       sync.Mutex
	pending  []PendingUpdate
	draining bool
	revision int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPatchQueue creates a queue named for metrics/logging, starting at the
// given revision. dispatch runs on a background goroutine; Enqueue callers
// never observe its errors (they are logged and counted).
func NewPatchQueue(name string, revision int, dispatch DispatchFunc) *PatchQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &PatchQueue{
		name:     name,
		dispatch: dispatch,
		revision: revision,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue appends an update-or-delete delta. Never blocks. If no drain is
// active, one is started; otherwise the active drain picks the item up in
// arrival order after the current dispatch completes.
func (q *PatchQueue) Enqueue(update map[string]string, deletions []string) {
	q.mu.Lock()
	q.pending = append(q.pending, PendingUpdate{Update: update, Delete: deletions})
	depth := len(q.pending)
	start := !q.draining
	if start {
		q.draining = true
		q.wg.Add(1)
	}
	q.mu.Unlock()

	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))

	if start {
		go q.drain()
	}
}

// Revision returns the locally tracked revision.
func (q *PatchQueue) Revision() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.revision
}

// SetRevision adopts a revision, typically the server-reported value after
// a create or full re-fetch.
func (q *PatchQueue) SetRevision(revision int) {
	q.mu.Lock()
	q.revision = revision
	q.mu.Unlock()
}

// Clear discards all queued items. It does not abort a dispatch already in
// flight; the drain exits once the queue is observed empty.
func (q *PatchQueue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
	metrics.QueueDepth.WithLabelValues(q.name).Set(0)
}

// Close cancels the dispatch context and waits for the active drain, if
// any, to finish.
func (q *PatchQueue) Close() {
	q.cancel()
	q.wg.Wait()
}

// drain processes queued items in FIFO order until the queue is empty.
func (q *PatchQueue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.pending) == 0 || q.ctx.Err() != nil {
			q.draining = false
			q.mu.Unlock()
			return
		}
		item := q.pending[0]
		q.pending = q.pending[1:]
		revision := q.revision
		depth := len(q.pending)
		q.mu.Unlock()

		metrics.QueueDepth.WithLabelValues(q.name).Set(float64(depth))

		if err := q.dispatchOne(item, revision); err != nil {
			// The original caller returned long ago; log and keep draining.
			metrics.PatchesTotal.WithLabelValues(q.name, "failure").Inc()
			logging.Err(err).Str("queue", q.name).Msg("patch dispatch failed")
		}
	}
}

// dispatchOne issues a single PATCH, handling one stale-revision retry.
func (q *PatchQueue) dispatchOne(item PendingUpdate, revision int) error {
	err := q.dispatch(q.ctx, item, revision)
	if err == nil {
		q.SetRevision(revision + 1)
		metrics.PatchesTotal.WithLabelValues(q.name, "success").Inc()
		return nil
	}

	var apiErr *EpicError
	if !errors.As(err, &apiErr) || !apiErr.StaleRevision() {
		return err
	}

	authoritative, ok := apiErr.AuthoritativeRevision()
	if !ok {
		return err
	}

	metrics.StaleRevisionRetries.WithLabelValues(q.name).Inc()
	logging.Warn().
		Str("queue", q.name).
		Int("submitted", revision).
		Int("authoritative", authoritative).
		Msg("stale revision, retrying with server revision")

	q.SetRevision(authoritative)
	if err := q.dispatch(q.ctx, item, authoritative); err != nil {
		// Exactly one retry; a second failure surfaces to the drain loop.
		return err
	}

	q.SetRevision(authoritative + 1)
	metrics.PatchesTotal.WithLabelValues(q.name, "stale_retry_success").Inc()
	return nil
}
