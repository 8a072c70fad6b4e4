// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestBreakerPassesThroughSuccess(t *testing.T) {
	api := &fakeAPI{}
	svc := NewBreakerService(api)

	p, err := svc.FetchParty(context.Background(), "party-1")
	checkNoError(t, "FetchParty", err)
	checkStringEqual(t, "party id", p.ID, "party-1")
	checkIntEqual(t, "inner calls", api.callCount("FetchParty"), 1)

	id, err := svc.JoinPartyFromPing(context.Background(), "me", "pinger", "conn", nil)
	checkNoError(t, "JoinPartyFromPing", err)
	checkStringEqual(t, "joined party id", id, "pinged-party")
}

func TestBreakerPassesThroughFailure(t *testing.T) {
	wantErr := errors.New("party not found")
	api := &fakeAPI{
		fetchPartyFn: func(ctx context.Context, partyID string) (*Party, error) {
			return nil, wantErr
		},
	}
	svc := NewBreakerService(api)

	_, err := svc.FetchParty(context.Background(), "party-1")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected inner error preserved, got %v", err)
	}
}

func TestBreakerOpensAfterSustainedFailures(t *testing.T) {
	api := &fakeAPI{
		fetchPartyFn: func(ctx context.Context, partyID string) (*Party, error) {
			return nil, errors.New("upstream down")
		},
	}
	svc := NewBreakerService(api)

	// The breaker trips at a 60% failure rate over at least 10 requests;
	// 10 straight failures is past both thresholds.
	for i := 0; i < 10; i++ {
		_, _ = svc.FetchParty(context.Background(), "party-1")
	}

	before := api.callCount("FetchParty")
	_, err := svc.FetchParty(context.Background(), "party-1")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	checkIntEqual(t, "inner not called while open", api.callCount("FetchParty"), before)
}

func TestBreakerCoversErrorOnlyMethods(t *testing.T) {
	api := &fakeAPI{
		removeMemberFn: func(ctx context.Context, partyID, accountID string) error {
			return errors.New("upstream down")
		},
	}
	svc := NewBreakerService(api)

	for i := 0; i < 10; i++ {
		_ = svc.RemoveMember(context.Background(), "p1", "a1")
	}

	if err := svc.RemoveMember(context.Background(), "p1", "a1"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	// The open breaker rejects every method, not just the failing one.
	if _, err := svc.FetchParty(context.Background(), "p1"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState on sibling method, got %v", err)
	}
}
