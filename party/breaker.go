// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
breaker.go - Circuit Breaker Wrapper

Wraps the party REST client with a circuit breaker so a degraded or
unreachable party service fails fast instead of stacking timeouts. The
breaker guards availability, not data integrity; stale-revision conflicts
count as failures only at the HTTP level, the retry logic stays in the
patch queue.
*/

package party

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/partyline/partyline/internal/logging"
	"github.com/partyline/partyline/internal/metrics"
)

// Ensure BreakerService implements API.
var _ API = (*BreakerService)(nil)

// BreakerService wraps an API implementation with a circuit breaker.
type BreakerService struct {
	inner API
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerService wraps the given client. The breaker opens after a 60%
// failure rate over at least 10 requests, waits a minute before probing,
// and admits 3 requests in half-open state.
func NewBreakerService(inner API) *BreakerService {
	name := "party-service"
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	return &BreakerService{inner: inner, cb: cb, name: name}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// run executes an error-only call through the breaker.
func (b *BreakerService) run(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	b.countRejection(err)
	return err
}

func (b *BreakerService) countRejection(err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.BreakerRejections.WithLabelValues(b.name).Inc()
	}
}

// CreateParty implements API.
func (b *BreakerService) CreateParty(ctx context.Context, config Config, connectionID string, meta map[string]string) (*Party, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.CreateParty(ctx, config, connectionID, meta)
	})
	b.countRejection(err)
	if err != nil {
		return nil, err
	}
	return result.(*Party), nil
}

// FetchParty implements API.
func (b *BreakerService) FetchParty(ctx context.Context, partyID string) (*Party, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.FetchParty(ctx, partyID)
	})
	b.countRejection(err)
	if err != nil {
		return nil, err
	}
	return result.(*Party), nil
}

// PatchParty implements API.
func (b *BreakerService) PatchParty(ctx context.Context, partyID string, config Config, upd PendingUpdate, revision int) error {
	return b.run(func() error {
		return b.inner.PatchParty(ctx, partyID, config, upd, revision)
	})
}

// PatchMemberMeta implements API.
func (b *BreakerService) PatchMemberMeta(ctx context.Context, partyID, accountID string, upd PendingUpdate, revision int) error {
	return b.run(func() error {
		return b.inner.PatchMemberMeta(ctx, partyID, accountID, upd, revision)
	})
}

// JoinParty implements API.
func (b *BreakerService) JoinParty(ctx context.Context, partyID, accountID, connectionID string, meta map[string]string) error {
	return b.run(func() error {
		return b.inner.JoinParty(ctx, partyID, accountID, connectionID, meta)
	})
}

// JoinPartyFromPing implements API.
func (b *BreakerService) JoinPartyFromPing(ctx context.Context, accountID, pingerID, connectionID string, meta map[string]string) (string, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.JoinPartyFromPing(ctx, accountID, pingerID, connectionID, meta)
	})
	b.countRejection(err)
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// RemoveMember implements API.
func (b *BreakerService) RemoveMember(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.RemoveMember(ctx, partyID, accountID)
	})
}

// DeleteParty implements API.
func (b *BreakerService) DeleteParty(ctx context.Context, partyID string) error {
	return b.run(func() error {
		return b.inner.DeleteParty(ctx, partyID)
	})
}

// Promote implements API.
func (b *BreakerService) Promote(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.Promote(ctx, partyID, accountID)
	})
}

// ConfirmMember implements API.
func (b *BreakerService) ConfirmMember(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.ConfirmMember(ctx, partyID, accountID)
	})
}

// RejectMember implements API.
func (b *BreakerService) RejectMember(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.RejectMember(ctx, partyID, accountID)
	})
}

// SendInvite implements API.
func (b *BreakerService) SendInvite(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.SendInvite(ctx, partyID, accountID)
	})
}

// DeclineInvite implements API.
func (b *BreakerService) DeclineInvite(ctx context.Context, partyID, accountID string) error {
	return b.run(func() error {
		return b.inner.DeclineInvite(ctx, partyID, accountID)
	})
}

// FetchUserSummary implements API.
func (b *BreakerService) FetchUserSummary(ctx context.Context, accountID string) (*UserSummary, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.FetchUserSummary(ctx, accountID)
	})
	b.countRejection(err)
	if err != nil {
		return nil, err
	}
	return result.(*UserSummary), nil
}
