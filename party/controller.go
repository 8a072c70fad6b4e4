// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
controller.go - Party Controller Façade

The public surface of the party subsystem: join/create/leave/disband,
invites, kick/promote, squad-assignment computation, and the metadata
setters. Setters delegate to the member/party accumulators and flush
immediately; there is no explicit commit step.
*/

package party

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/partyline/partyline/internal/logging"
)

// ChatTransport is the party group-chat surface of the realtime transport.
// Rooms are keyed by party ID; the nickname encodes display name, account
// ID and connection resource.
type ChatTransport interface {
	JoinRoom(roomID, nickname string) error
	LeaveRoom(roomID string) error
	SendRoomMessage(roomID, body string) error
}

// connectionResource identifies this client on the realtime transport.
const connectionResource = "V2:Fortnite:WIN"

// chatJoinGrace delays the first chat message after joining a room, to
// avoid racing the room join on the transport side.
const chatJoinGrace = 2 * time.Second

// Controller owns the local party state and exposes the party operations.
type Controller struct {
	api       API
	chat      ChatTransport
	accountID string
	display   string

	partyQueue  *PatchQueue
	memberQueue *PatchQueue
	state       *State
	meta        *MemberMeta
	dispatcher  *Dispatcher

	mu       sync.Mutex
	joinedAt time.Time
}

// NewController wires the party subsystem. All collaborators are passed
// explicitly; the controller holds no global state.
func NewController(api API, chat ChatTransport, accountID, displayName string) *Controller {
	c := &Controller{
		api:       api,
		chat:      chat,
		accountID: accountID,
		display:   displayName,
	}

	c.partyQueue = NewPatchQueue("party", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		partyID := c.state.PartyID()
		if partyID == "" {
			return ErrNotInParty
		}
		return c.api.PatchParty(ctx, partyID, c.state.Config(), upd, revision)
	})

	c.memberQueue = NewPatchQueue("member", 0, func(ctx context.Context, upd PendingUpdate, revision int) error {
		partyID := c.state.PartyID()
		if partyID == "" {
			return ErrNotInParty
		}
		return c.api.PatchMemberMeta(ctx, partyID, c.accountID, upd, revision)
	})

	c.state = NewState(c.partyQueue)
	c.meta = NewMemberMeta(c.memberQueue)
	c.dispatcher = newDispatcher(c)
	return c
}

// Dispatcher returns the notification dispatcher; wire its HandleRaw as the
// realtime transport's message handler and register listeners on it.
func (c *Controller) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// CurrentParty returns the current party snapshot, or nil.
func (c *Controller) CurrentParty() *Party {
	return c.state.Party()
}

// Me returns the local player's member entry, or nil.
func (c *Controller) Me() *Member {
	p := c.state.Party()
	if p == nil {
		return nil
	}
	return p.Member(c.accountID)
}

// IsCaptain reports whether the local player holds the captain role.
func (c *Controller) IsCaptain() bool {
	p := c.state.Party()
	if p == nil {
		return false
	}
	captain := p.Captain()
	return captain != nil && captain.AccountID == c.accountID
}

// CreateParty creates a new party with the given privacy tier and joins it
// as captain. An existing party is left first.
func (c *Controller) CreateParty(ctx context.Context, privacy Privacy) (*Party, error) {
	if c.state.PartyID() != "" {
		if err := c.LeaveParty(ctx); err != nil {
			return nil, fmt.Errorf("leaving current party: %w", err)
		}
	}

	cfg := ConfigForPrivacy(privacy)
	created, err := c.api.CreateParty(ctx, cfg, c.connectionID(), baselinePartyMeta(privacy))
	if err != nil {
		return nil, err
	}
	c.ensureSelfMember(created)

	c.state.ResetParty(created)
	c.state.SetPrivacy(privacy)

	c.meta.Reset()
	c.memberQueue.SetRevision(0)
	c.meta.Update()

	c.joinChat(created.ID)
	logging.Info().Str("party_id", created.ID).Str("privacy", string(privacy)).Msg("party created")
	return created, nil
}

// JoinParty joins the given party, leaving the current one first.
func (c *Controller) JoinParty(ctx context.Context, partyID string) (*Party, error) {
	if c.state.PartyID() != "" {
		if err := c.LeaveParty(ctx); err != nil {
			return nil, fmt.Errorf("leaving current party: %w", err)
		}
	}

	target, err := c.api.FetchParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if target.IsFull() {
		return nil, ErrPartyFull
	}

	c.state.ResetParty(target)
	c.meta.Reset()
	c.memberQueue.SetRevision(0)

	if err := c.api.JoinParty(ctx, partyID, c.accountID, c.connectionID(), c.meta.Baseline()); err != nil {
		c.state.Clear()
		return nil, err
	}

	c.meta.Update()
	c.joinChat(partyID)
	logging.Info().Str("party_id", partyID).Int("members", target.Size()).Msg("party joined")
	return target, nil
}

// JoinPartyFromPing joins the party a pinger invited us to, resolving the
// target server-side from the pending ping. The current party, if any, is
// left first.
func (c *Controller) JoinPartyFromPing(ctx context.Context, pingerID string) (*Party, error) {
	if c.state.PartyID() != "" {
		if err := c.LeaveParty(ctx); err != nil {
			return nil, fmt.Errorf("leaving current party: %w", err)
		}
	}

	c.meta.Reset()
	c.memberQueue.SetRevision(0)

	partyID, err := c.api.JoinPartyFromPing(ctx, c.accountID, pingerID, c.connectionID(), c.meta.Baseline())
	if err != nil {
		return nil, err
	}

	joined, err := c.api.FetchParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("fetching joined party %s: %w", partyID, err)
	}

	c.state.ResetParty(joined)
	c.meta.Update()
	c.joinChat(partyID)
	logging.Info().Str("party_id", partyID).Str("pinger_id", pingerID).Msg("party joined from ping")
	return joined, nil
}

// LeaveParty leaves the current party. Pending patch deltas are discarded
// first so a party we just left never receives a late PATCH.
func (c *Controller) LeaveParty(ctx context.Context) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}

	c.partyQueue.Clear()
	c.memberQueue.Clear()

	if err := c.api.RemoveMember(ctx, partyID, c.accountID); err != nil {
		return err
	}

	c.leaveChat(partyID)
	c.state.Clear()
	c.meta.Reset()
	logging.Info().Str("party_id", partyID).Msg("party left")
	return nil
}

// DisbandParty deletes the current party. Captain only. Chat and queue
// cleanup mirror LeaveParty.
func (c *Controller) DisbandParty(ctx context.Context) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	if !c.IsCaptain() {
		return ErrNotCaptain
	}

	c.partyQueue.Clear()
	c.memberQueue.Clear()

	if err := c.api.DeleteParty(ctx, partyID); err != nil {
		return err
	}

	c.leaveChat(partyID)
	c.state.Clear()
	c.meta.Reset()
	logging.Info().Str("party_id", partyID).Msg("party disbanded")
	return nil
}

// InviteUser invites an account to the current party.
func (c *Controller) InviteUser(ctx context.Context, accountID string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	return c.api.SendInvite(ctx, partyID, accountID)
}

// DeclineInvite declines an invite to the given party.
func (c *Controller) DeclineInvite(ctx context.Context, partyID string) error {
	return c.api.DeclineInvite(ctx, partyID, c.accountID)
}

// Kick removes another member. The server enforces captain permission; the
// local snapshot changes only when the notification arrives.
func (c *Controller) Kick(ctx context.Context, accountID string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	return c.api.RemoveMember(ctx, partyID, accountID)
}

// Promote transfers the captain role to another member.
func (c *Controller) Promote(ctx context.Context, accountID string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	return c.api.Promote(ctx, partyID, accountID)
}

// ConfirmMember accepts a member awaiting join confirmation.
func (c *Controller) ConfirmMember(ctx context.Context, accountID string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	return c.api.ConfirmMember(ctx, partyID, accountID)
}

// RejectMember rejects a member awaiting join confirmation.
func (c *Controller) RejectMember(ctx context.Context, accountID string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}
	return c.api.RejectMember(ctx, partyID, accountID)
}

// ComputeSquadAssignments derives the assignment list from the member set:
// the captain at index 0, the remaining members on contiguous indices from
// 1 in encounter order.
func ComputeSquadAssignments(members []*Member) []SquadAssignment {
	assignments := make([]SquadAssignment, 0, len(members))
	next := 1
	for _, m := range members {
		if m.Role == RoleCaptain {
			assignments = append(assignments, SquadAssignment{MemberID: m.AccountID, AbsoluteMemberIdx: 0})
		} else {
			assignments = append(assignments, SquadAssignment{MemberID: m.AccountID, AbsoluteMemberIdx: next})
			next++
		}
	}
	return assignments
}

// RefreshSquadAssignments recomputes and pushes the squad assignment list.
// Only the captain may push assignments; for everyone else this is a no-op.
func (c *Controller) RefreshSquadAssignments() error {
	if c.state.PartyID() == "" {
		return ErrNotInParty
	}
	if !c.IsCaptain() {
		return nil
	}
	c.state.SetSquadAssignments(ComputeSquadAssignments(c.state.Members()))
	return nil
}

// SendPartyChat sends a message to the party chat room, waiting out the
// join grace period if needed.
func (c *Controller) SendPartyChat(message string) error {
	partyID := c.state.PartyID()
	if partyID == "" {
		return ErrNotInParty
	}

	c.mu.Lock()
	joinedAt := c.joinedAt
	c.mu.Unlock()

	if wait := chatJoinGrace - time.Since(joinedAt); wait > 0 {
		time.Sleep(wait)
	}
	return c.chat.SendRoomMessage(chatRoomID(partyID), message)
}

// Member metadata setters. Each stages the delta and flushes immediately.

// SetCharacter sets the character cosmetic and flushes.
func (c *Controller) SetCharacter(def string) error {
	return c.memberSet(func() { c.meta.SetCharacter(def) })
}

// SetBackpack sets the backpack cosmetic and flushes.
func (c *Controller) SetBackpack(def string) error {
	return c.memberSet(func() { c.meta.SetBackpack(def) })
}

// SetPickaxe sets the pickaxe cosmetic and flushes.
func (c *Controller) SetPickaxe(def string) error {
	return c.memberSet(func() { c.meta.SetPickaxe(def) })
}

// SetContrail sets the contrail cosmetic and flushes.
func (c *Controller) SetContrail(def string) error {
	return c.memberSet(func() { c.meta.SetContrail(def) })
}

// SetVariants replaces the cosmetic variants and flushes.
func (c *Controller) SetVariants(variants []CosmeticVariant) error {
	return c.memberSet(func() { c.meta.SetVariants(variants) })
}

// SetBanner sets the banner and flushes.
func (c *Controller) SetBanner(iconID, colorID string, seasonLevel int) error {
	return c.memberSet(func() { c.meta.SetBanner(iconID, colorID, seasonLevel) })
}

// SetBattlePass sets battle pass progress and flushes.
func (c *Controller) SetBattlePass(info BattlePassInfo) error {
	return c.memberSet(func() { c.meta.SetBattlePass(info) })
}

// SetEmote starts emote playback and flushes. A no-op while already
// emoting.
func (c *Controller) SetEmote(def string) error {
	return c.memberSet(func() { c.meta.SetEmote(def) })
}

// ClearEmote stops emote playback and flushes.
func (c *Controller) ClearEmote() error {
	return c.memberSet(func() { c.meta.ClearEmote() })
}

// SetReadiness sets lobby readiness and flushes.
func (c *Controller) SetReadiness(r Readiness) error {
	return c.memberSet(func() { c.meta.SetReadiness(r) })
}

// SetInputType sets the input device and flushes.
func (c *Controller) SetInputType(t InputType) error {
	return c.memberSet(func() { c.meta.SetInputType(t) })
}

// SetVoiceChatMuted sets the mute flag and flushes.
func (c *Controller) SetVoiceChatMuted(muted bool) error {
	return c.memberSet(func() { c.meta.SetVoiceChatMuted(muted) })
}

// SetAssistedChallenge sets the assisted challenge and flushes.
func (c *Controller) SetAssistedChallenge(info AssistedChallengeInfo) error {
	return c.memberSet(func() { c.meta.SetAssistedChallenge(info) })
}

// SetPreloaded sets the preload flag and flushes.
func (c *Controller) SetPreloaded(preloaded bool) error {
	return c.memberSet(func() { c.meta.SetPreloaded(preloaded) })
}

// SetLocation sets the lobby location and flushes.
func (c *Controller) SetLocation(location string) error {
	return c.memberSet(func() { c.meta.SetLocation(location) })
}

// SetPlatform sets the reported platform and flushes.
func (c *Controller) SetPlatform(platform string) error {
	return c.memberSet(func() { c.meta.SetPlatform(platform) })
}

// Party-level setters. Captain-gated where the remote service requires it.

// SetPrivacy changes the party privacy tier.
func (c *Controller) SetPrivacy(p Privacy) error {
	return c.partySet(func() { c.state.SetPrivacy(p) })
}

// SetPlaylist selects the playlist.
func (c *Controller) SetPlaylist(playlist PlaylistInfo) error {
	return c.partySet(func() { c.state.SetPlaylist(playlist) })
}

// SetSquadFill sets the squad fill flag.
func (c *Controller) SetSquadFill(fill bool) error {
	return c.partySet(func() { c.state.SetSquadFill(fill) })
}

// SetCustomKey sets or clears the custom matchmaking key.
func (c *Controller) SetCustomKey(key string) error {
	return c.partySet(func() { c.state.SetCustomKey(key) })
}

// Close releases the patch queues. The controller is unusable afterwards.
func (c *Controller) Close() {
	c.partyQueue.Close()
	c.memberQueue.Close()
}

// memberSet runs a member metadata mutation and flushes it.
func (c *Controller) memberSet(mutate func()) error {
	if c.state.PartyID() == "" {
		return ErrNotInParty
	}
	mutate()
	c.meta.Update()
	return nil
}

// partySet runs a party metadata mutation; the State methods enqueue
// directly, no separate flush step exists at party level.
func (c *Controller) partySet(mutate func()) error {
	if c.state.PartyID() == "" {
		return ErrNotInParty
	}
	mutate()
	return nil
}

// connectionID is this client's identity on the realtime transport.
func (c *Controller) connectionID() string {
	return c.accountID + "@prod.ol.epicgames.com/" + connectionResource
}

// chatRoomID derives the group-chat room for a party.
func chatRoomID(partyID string) string {
	return "Party-" + partyID
}

// chatNickname encodes display name, account ID and connection resource.
func (c *Controller) chatNickname() string {
	return c.display + ":" + c.accountID + ":" + connectionResource
}

// joinChat enters the party chat room and records the join time.
func (c *Controller) joinChat(partyID string) {
	if err := c.chat.JoinRoom(chatRoomID(partyID), c.chatNickname()); err != nil {
		logging.Err(err).Str("party_id", partyID).Msg("failed to join party chat room")
	}
	c.mu.Lock()
	c.joinedAt = time.Now()
	c.mu.Unlock()
}

// leaveChat exits the party chat room.
func (c *Controller) leaveChat(partyID string) {
	if err := c.chat.LeaveRoom(chatRoomID(partyID)); err != nil {
		logging.Err(err).Str("party_id", partyID).Msg("failed to leave party chat room")
	}
}

// ensureSelfMember guarantees the local player appears in a freshly created
// party as captain even when the create response omits the member list.
func (c *Controller) ensureSelfMember(p *Party) {
	if p.HasMember(c.accountID) {
		return
	}
	p.Members = append(p.Members, &Member{
		AccountID: c.accountID,
		Role:      RoleCaptain,
		Meta:      map[string]string{},
		JoinedAt:  time.Now(),
	})
}

// baselinePartyMeta is the initial party metadata document sent on create.
func baselinePartyMeta(privacy Privacy) map[string]string {
	return map[string]string{
		keyPartyState:      "BattleRoyaleView",
		keyPrivacySettings: encodeDoc("PrivacySettings", privacySettingsFor(privacy)),
		keySquadFill:       encodeBool(false),
		keyMatchmakingInfo: encodeDoc("PartyMatchmakingInfo", map[string]any{
			"buildId":       "",
			"hotfixVersion": -1,
			"regionId":      "",
			"playlistName":  "None",
			"tournamentId":  "",
			"eventWindowId": "",
		}),
	}
}
