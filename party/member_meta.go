// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
member_meta.go - Local Member Metadata Accumulator

Holds the local player's party-member metadata between flushes. Setters
stage deltas; Update() snapshots the staged delta onto the patch queue and
resets the accumulator, so each flush carries only the changes made since
the previous flush, never the full document.
*/

package party

import "sync"

// MemberMeta accumulates the local player's member metadata deltas.
type MemberMeta struct {
	queue *PatchQueue

	mu        sync.Mutex
	delta     map[string]string
	deletions []string

	// Structured documents re-serialized on change so partial setters
	// (e.g. character only) keep the rest of the document intact.
	loadout    CosmeticLoadout
	banner     BannerInfo
	battlePass BattlePassInfo
	emote      FrontendEmote
	emoting    bool
}

// NewMemberMeta creates an accumulator flushing through the given queue,
// staged with the baseline document the service expects from a new member.
func NewMemberMeta(queue *PatchQueue) *MemberMeta {
	m := &MemberMeta{queue: queue}
	m.Reset()
	return m
}

// Reset discards staged deltas and document state, then stages the baseline
// document. The service rejects a first PATCH without these defaults.
func (m *MemberMeta) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadout = CosmeticLoadout{Variants: []CosmeticVariant{}}
	m.banner = BannerInfo{}
	m.battlePass = BattlePassInfo{}
	m.emote = FrontendEmote{ItemDef: emoteNone, Section: -1}
	m.emoting = false
	m.deletions = nil

	m.delta = map[string]string{
		keyCosmeticLoadout:   encodeDoc("AthenaCosmeticLoadout", m.loadout),
		keyBannerInfo:        encodeDoc("AthenaBannerInfo", m.banner),
		keyBattlePassInfo:    encodeDoc("BattlePassInfo", m.battlePass),
		keyFrontendEmote:     encodeDoc("FrontendEmote", m.emote),
		keyGameReadiness:     string(ReadinessNotReady),
		keyCurrentInputType:  string(InputMouseAndKeyboard),
		keyReadyInputType:    "Count",
		keyVoiceChatMuted:    encodeBool(false),
		keyLocation:          "PreLobby",
		keyPreloaded:         encodeBool(false),
		keyMatchmakingDelay:  encodeUint(0),
		keyHomeBaseVersion:   encodeUint(1),
		keyCrossplayPref:     "OptedIn",
		keyNumPlayersLeft:    encodeUint(0),
		keySpectateAvailable: encodeBool(false),
		keyPlatformData:      encodeDoc("PlatformData", map[string]string{"platform": "WIN"}),
		keyLobbyState:        encodeDoc("LobbyState", map[string]bool{"inGameReady_b": false, "hasPreloadedAthena": false}),
	}
}

// Update flushes the staged delta through the patch queue and resets the
// accumulator to empty. A no-op when nothing is staged.
func (m *MemberMeta) Update() {
	m.mu.Lock()
	if len(m.delta) == 0 && len(m.deletions) == 0 {
		m.mu.Unlock()
		return
	}
	update := m.delta
	deletions := m.deletions
	m.delta = map[string]string{}
	m.deletions = nil
	m.mu.Unlock()

	m.queue.Enqueue(update, deletions)
}

// stage records a single key delta. Caller must hold m.mu.
func (m *MemberMeta) stage(key, value string) {
	m.delta[key] = value
}

// SetCharacter stages the character cosmetic.
func (m *MemberMeta) SetCharacter(def string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadout.Character = def
	m.stage(keyCosmeticLoadout, encodeDoc("AthenaCosmeticLoadout", m.loadout))
}

// SetBackpack stages the backpack cosmetic.
func (m *MemberMeta) SetBackpack(def string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadout.Backpack = def
	m.stage(keyCosmeticLoadout, encodeDoc("AthenaCosmeticLoadout", m.loadout))
}

// SetPickaxe stages the pickaxe cosmetic.
func (m *MemberMeta) SetPickaxe(def string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadout.Pickaxe = def
	m.stage(keyCosmeticLoadout, encodeDoc("AthenaCosmeticLoadout", m.loadout))
}

// SetContrail stages the contrail cosmetic.
func (m *MemberMeta) SetContrail(def string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadout.Contrail = def
	m.stage(keyCosmeticLoadout, encodeDoc("AthenaCosmeticLoadout", m.loadout))
}

// SetVariants replaces the cosmetic style variants.
func (m *MemberMeta) SetVariants(variants []CosmeticVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if variants == nil {
		variants = []CosmeticVariant{}
	}
	m.loadout.Variants = variants
	m.stage(keyCosmeticLoadout, encodeDoc("AthenaCosmeticLoadout", m.loadout))
}

// SetBanner stages the banner icon, color and season level.
func (m *MemberMeta) SetBanner(iconID, colorID string, seasonLevel int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banner = BannerInfo{IconID: iconID, ColorID: colorID, SeasonLevel: seasonLevel}
	m.stage(keyBannerInfo, encodeDoc("AthenaBannerInfo", m.banner))
}

// SetBattlePass stages the battle pass progress.
func (m *MemberMeta) SetBattlePass(info BattlePassInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.battlePass = info
	m.stage(keyBattlePassInfo, encodeDoc("BattlePassInfo", m.battlePass))
}

// SetEmote starts emote playback. A no-op while an emote is already
// playing; use SetEmoteDefinition to replace an active emote.
func (m *MemberMeta) SetEmote(def string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emoting {
		return
	}
	m.setEmoteLocked(FrontendEmote{ItemDef: def, Section: -1})
}

// SetEmoteDefinition stages the full emote document, replacing any active
// playback. The emoting flag follows whether the definition is the
// stop sentinel.
func (m *MemberMeta) SetEmoteDefinition(emote FrontendEmote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setEmoteLocked(emote)
}

// ClearEmote stops emote playback by staging the sentinel document.
func (m *MemberMeta) ClearEmote() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setEmoteLocked(FrontendEmote{ItemDef: emoteNone, Section: -1})
}

// setEmoteLocked stages an emote document. Caller must hold m.mu.
func (m *MemberMeta) setEmoteLocked(emote FrontendEmote) {
	m.emote = emote
	m.emoting = emote.ItemDef != emoteNone
	m.stage(keyFrontendEmote, encodeDoc("FrontendEmote", m.emote))
}

// Emoting reports whether an emote is currently playing.
func (m *MemberMeta) Emoting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emoting
}

// SetReadiness stages the lobby readiness state.
func (m *MemberMeta) SetReadiness(r Readiness) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyGameReadiness, string(r))
}

// SetInputType stages the current input device.
func (m *MemberMeta) SetInputType(t InputType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyCurrentInputType, string(t))
}

// SetVoiceChatMuted stages the voice chat mute flag.
func (m *MemberMeta) SetVoiceChatMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyVoiceChatMuted, encodeBool(muted))
}

// SetAssistedChallenge stages the assisted challenge document.
func (m *MemberMeta) SetAssistedChallenge(info AssistedChallengeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyAssistedChallenge, encodeDoc("AssistedChallengeInfo", info))
}

// SetPreloaded stages the content preload flag.
func (m *MemberMeta) SetPreloaded(preloaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyPreloaded, encodeBool(preloaded))
}

// SetLocation stages the lobby location string.
func (m *MemberMeta) SetLocation(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyLocation, location)
}

// SetPlatform stages the platform document.
func (m *MemberMeta) SetPlatform(platform string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage(keyPlatformData, encodeDoc("PlatformData", map[string]string{"platform": platform}))
}

// Baseline returns a copy of the currently staged delta without consuming
// it. Used to seed the member document on join/create.
func (m *MemberMeta) Baseline() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.delta))
	for k, v := range m.delta {
		out[k] = v
	}
	return out
}
