// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
party_state.go - Party Snapshot and Structural Mutations

Tracks the authoritative Party snapshot and mediates structural changes
(privacy, playlist, squad assignments, custom key) through the party patch
queue. The snapshot is written by the notification dispatcher and read by
the controller from different goroutines, so published snapshots are
immutable: mutators clone the current snapshot, apply the delta to the
clone, then swap the pointer under the mutex. A *Party handed out by a
read accessor never changes after the fact.
*/

package party

import (
	"sync"

	"github.com/partyline/partyline/internal/logging"
)

// State tracks the local snapshot of the joined party.
type State struct {
	queue *PatchQueue

	mu    sync.RWMutex
	party *Party
}

// NewState creates a snapshot tracker flushing through the given queue.
func NewState(queue *PatchQueue) *State {
	return &State{queue: queue}
}

// ResetParty replaces the snapshot and resynchronizes the local revision
// counter to the server-reported value. Used after creating or fully
// re-fetching a party. The caller's Party is cloned so later mutations of
// the argument cannot leak into the published snapshot.
func (s *State) ResetParty(p *Party) {
	s.mu.Lock()
	s.party = p.clone()
	s.mu.Unlock()
	if p != nil {
		s.queue.SetRevision(p.Revision)
	}
}

// Clear drops the snapshot, used on leave/disband.
func (s *State) Clear() {
	s.mu.Lock()
	s.party = nil
	s.mu.Unlock()
}

// Party returns the current snapshot, or nil when not in a party. The
// returned value is immutable; a later delta swaps in a fresh clone.
func (s *State) Party() *Party {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.party
}

// PartyID returns the current party ID, or "".
func (s *State) PartyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.party == nil {
		return ""
	}
	return s.party.ID
}

// Config returns the current config block; the zero Config when not in a
// party. Re-embedded on every party PATCH by the dispatch closure.
func (s *State) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.party == nil {
		return Config{}
	}
	return s.party.Config
}

// Members returns a copy of the member list.
func (s *State) Members() []*Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.party == nil {
		return nil
	}
	out := make([]*Member, len(s.party.Members))
	copy(out, s.party.Members)
	return out
}

// SetPrivacy enqueues the privacy change delta. Switching to private sets
// the not-accepting reason and restricts presence permission; switching to
// public or friends-only deletes the not-accepting key and opens presence.
// The delete matters: the remote schema distinguishes an absent key from an
// explicit false.
func (s *State) SetPrivacy(p Privacy) {
	update := map[string]string{
		keyPrivacySettings: encodeDoc("PrivacySettings", privacySettingsFor(p)),
	}
	var deletions []string

	if p == PrivacyInviteAndFormer {
		update[keyNotAcceptingReason] = "7"
		update[keyPresencePerm] = "Noone"
		update[keyInvitePerm] = "Leader"
	} else {
		update[keyPresencePerm] = "Anyone"
		update[keyInvitePerm] = "Anyone"
		deletions = append(deletions, keyNotAcceptingReason)
	}

	s.queue.Enqueue(update, deletions)
}

// SetPlaylist enqueues a playlist selection delta.
func (s *State) SetPlaylist(playlist PlaylistInfo) {
	s.queue.Enqueue(map[string]string{
		keyPlaylistData: encodeDoc("PlaylistData", playlist),
	}, nil)
}

// SetSquadFill enqueues the squad fill flag delta.
func (s *State) SetSquadFill(fill bool) {
	s.queue.Enqueue(map[string]string{
		keySquadFill: encodeBool(fill),
	}, nil)
}

// SetCustomKey enqueues a custom matchmaking key delta. An empty key
// deletes it.
func (s *State) SetCustomKey(key string) {
	if key == "" {
		s.queue.Enqueue(nil, []string{keyCustomMatchKey})
		return
	}
	s.queue.Enqueue(map[string]string{
		keyCustomMatchKey: key,
	}, nil)
}

// SetSquadAssignments enqueues a recomputed squad assignment list.
func (s *State) SetSquadAssignments(assignments []SquadAssignment) {
	s.queue.Enqueue(map[string]string{
		keySquadAssignments: encodeSquadAssignments(assignments),
	}, nil)
}

// MergePartyMeta merges a party-level metadata delta into the snapshot.
func (s *State) MergePartyMeta(update map[string]string, deletions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.party == nil {
		return
	}
	next := s.party.clone()
	if next.Meta == nil {
		next.Meta = make(map[string]string, len(update))
	}
	for k, v := range update {
		next.Meta[k] = v
	}
	for _, k := range deletions {
		delete(next.Meta, k)
	}
	s.party = next
}

// MergeMemberMeta merges a member-level metadata delta into the matching
// member. Returns false when the member is not in the snapshot.
func (s *State) MergeMemberMeta(accountID string, update map[string]string, deletions []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.party == nil {
		return false
	}
	next := s.party.clone()
	member := next.Member(accountID)
	if member == nil {
		return false
	}
	if member.Meta == nil {
		member.Meta = make(map[string]string, len(update))
	}
	for k, v := range update {
		member.Meta[k] = v
	}
	for _, k := range deletions {
		delete(member.Meta, k)
	}
	s.party = next
	return true
}

// PromoteCaptain reassigns the captain role: the prior captain is demoted
// to member before the named member is promoted, so exactly one captain
// exists at every point.
func (s *State) PromoteCaptain(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.party == nil {
		return false
	}
	next := s.party.clone()
	promoted := next.Member(accountID)
	if promoted == nil {
		logging.Warn().Str("account_id", accountID).Msg("new captain not in local snapshot")
		return false
	}
	for _, m := range next.Members {
		if m.Role == RoleCaptain {
			m.Role = RoleMember
		}
	}
	promoted.Role = RoleCaptain
	s.party = next
	return true
}
