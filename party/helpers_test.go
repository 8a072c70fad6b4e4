// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"context"
	"sync"
	"testing"
	"time"
)

// Test assertion helpers with "check" prefix.
// Using t.Helper() ensures error messages point to the calling line.

// checkStringEqual checks that got equals want
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkBoolEqual checks that got equals want
func checkBoolEqual(t *testing.T, fieldName string, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %v, got %v", fieldName, want, got)
	}
}

// checkNoError fails the test immediately on err
func checkNoError(t *testing.T, op string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", op, err)
	}
}

// waitUntil polls cond until it holds or the timeout elapses.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// fakeAPI implements API with overridable function fields. Unset fields
// succeed with zero values. Calls are recorded by method name.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	createPartyFn      func(ctx context.Context, config Config, connectionID string, meta map[string]string) (*Party, error)
	fetchPartyFn       func(ctx context.Context, partyID string) (*Party, error)
	patchPartyFn       func(ctx context.Context, partyID string, config Config, upd PendingUpdate, revision int) error
	patchMemberMetaFn  func(ctx context.Context, partyID, accountID string, upd PendingUpdate, revision int) error
	joinPartyFn        func(ctx context.Context, partyID, accountID, connectionID string, meta map[string]string) error
	joinFromPingFn     func(ctx context.Context, accountID, pingerID, connectionID string, meta map[string]string) (string, error)
	removeMemberFn     func(ctx context.Context, partyID, accountID string) error
	deletePartyFn      func(ctx context.Context, partyID string) error
	promoteFn          func(ctx context.Context, partyID, accountID string) error
	confirmMemberFn    func(ctx context.Context, partyID, accountID string) error
	rejectMemberFn     func(ctx context.Context, partyID, accountID string) error
	sendInviteFn       func(ctx context.Context, partyID, accountID string) error
	declineInviteFn    func(ctx context.Context, partyID, accountID string) error
	fetchUserSummaryFn func(ctx context.Context, accountID string) (*UserSummary, error)
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeAPI) CreateParty(ctx context.Context, config Config, connectionID string, meta map[string]string) (*Party, error) {
	f.record("CreateParty")
	if f.createPartyFn != nil {
		return f.createPartyFn(ctx, config, connectionID, meta)
	}
	return &Party{ID: "created-party", Config: config, Meta: meta}, nil
}

func (f *fakeAPI) FetchParty(ctx context.Context, partyID string) (*Party, error) {
	f.record("FetchParty")
	if f.fetchPartyFn != nil {
		return f.fetchPartyFn(ctx, partyID)
	}
	return &Party{ID: partyID}, nil
}

func (f *fakeAPI) PatchParty(ctx context.Context, partyID string, config Config, upd PendingUpdate, revision int) error {
	f.record("PatchParty")
	if f.patchPartyFn != nil {
		return f.patchPartyFn(ctx, partyID, config, upd, revision)
	}
	return nil
}

func (f *fakeAPI) PatchMemberMeta(ctx context.Context, partyID, accountID string, upd PendingUpdate, revision int) error {
	f.record("PatchMemberMeta")
	if f.patchMemberMetaFn != nil {
		return f.patchMemberMetaFn(ctx, partyID, accountID, upd, revision)
	}
	return nil
}

func (f *fakeAPI) JoinParty(ctx context.Context, partyID, accountID, connectionID string, meta map[string]string) error {
	f.record("JoinParty")
	if f.joinPartyFn != nil {
		return f.joinPartyFn(ctx, partyID, accountID, connectionID, meta)
	}
	return nil
}

func (f *fakeAPI) JoinPartyFromPing(ctx context.Context, accountID, pingerID, connectionID string, meta map[string]string) (string, error) {
	f.record("JoinPartyFromPing")
	if f.joinFromPingFn != nil {
		return f.joinFromPingFn(ctx, accountID, pingerID, connectionID, meta)
	}
	return "pinged-party", nil
}

func (f *fakeAPI) RemoveMember(ctx context.Context, partyID, accountID string) error {
	f.record("RemoveMember")
	if f.removeMemberFn != nil {
		return f.removeMemberFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) DeleteParty(ctx context.Context, partyID string) error {
	f.record("DeleteParty")
	if f.deletePartyFn != nil {
		return f.deletePartyFn(ctx, partyID)
	}
	return nil
}

func (f *fakeAPI) Promote(ctx context.Context, partyID, accountID string) error {
	f.record("Promote")
	if f.promoteFn != nil {
		return f.promoteFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) ConfirmMember(ctx context.Context, partyID, accountID string) error {
	f.record("ConfirmMember")
	if f.confirmMemberFn != nil {
		return f.confirmMemberFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) RejectMember(ctx context.Context, partyID, accountID string) error {
	f.record("RejectMember")
	if f.rejectMemberFn != nil {
		return f.rejectMemberFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) SendInvite(ctx context.Context, partyID, accountID string) error {
	f.record("SendInvite")
	if f.sendInviteFn != nil {
		return f.sendInviteFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) DeclineInvite(ctx context.Context, partyID, accountID string) error {
	f.record("DeclineInvite")
	if f.declineInviteFn != nil {
		return f.declineInviteFn(ctx, partyID, accountID)
	}
	return nil
}

func (f *fakeAPI) FetchUserSummary(ctx context.Context, accountID string) (*UserSummary, error) {
	f.record("FetchUserSummary")
	if f.fetchUserSummaryFn != nil {
		return f.fetchUserSummaryFn(ctx, accountID)
	}
	return &UserSummary{}, nil
}

// fakeChat records chat transport calls.
type fakeChat struct {
	mu       sync.Mutex
	joined   []string
	left     []string
	messages []string
}

func (f *fakeChat) JoinRoom(roomID, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, roomID)
	return nil
}

func (f *fakeChat) LeaveRoom(roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, roomID)
	return nil
}

func (f *fakeChat) SendRoomMessage(roomID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, roomID+"|"+body)
	return nil
}
