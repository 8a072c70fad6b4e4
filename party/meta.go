// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
meta.go - Metadata Keys and Documents

Party and member metadata travel as flat string-to-string maps. Keys follow
the "Default:<Name>_<suffix>" convention where the suffix encodes the value
type: _j JSON document, _s string, _b boolean, _U unsigned integer, _i
integer. Every name below was observed on the wire and must be preserved
exactly; the remote service is not under our control.
*/

package party

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Party-level metadata keys.
const (
	keySquadAssignments   = "Default:RawSquadAssignments_j"
	keyPlaylistData       = "Default:PlaylistData_j"
	keyPrivacySettings    = "Default:PrivacySettings_j"
	keySquadFill          = "Default:AthenaSquadFill_b"
	keyCustomMatchKey     = "Default:CustomMatchKey_s"
	keyPartyState         = "Default:PartyState_s"
	keyMatchmakingInfo    = "Default:PartyMatchmakingInfo_j"
	keyNotAcceptingReason = "Default:NotAcceptingMembersReason_i"
	keyPresencePerm       = "Default:PresencePerm_s"
	keyInvitePerm         = "Default:InvitePermission_s"
)

// Member-level metadata keys.
const (
	keyCosmeticLoadout    = "Default:AthenaCosmeticLoadout_j"
	keyBannerInfo         = "Default:AthenaBannerInfo_j"
	keyBattlePassInfo     = "Default:BattlePassInfo_j"
	keyFrontendEmote      = "Default:FrontendEmote_j"
	keyGameReadiness      = "Default:GameReadiness_s"
	keyCurrentInputType   = "Default:CurrentInputType_s"
	keyVoiceChatMuted     = "Default:VoiceChatMuted_b"
	keyAssistedChallenge  = "Default:AssistedChallengeInfo_j"
	keyLocation           = "Default:Location_s"
	keyPlatformData       = "Default:PlatformData_j"
	keyPreloaded          = "Default:Preloaded_b"
	keyMatchmakingDelay   = "Default:MatchmakingDelayMax_U"
	keyHomeBaseVersion    = "Default:HomeBaseVersion_U"
	keyCrossplayPref      = "Default:CrossplayPreference_s"
	keyLobbyState         = "Default:LobbyState_j"
	keyNumPlayersLeft     = "Default:NumAthenaPlayersLeft_U"
	keySpectateAvailable  = "Default:SpectateAPartyMemberAvailable_b"
	keyReadyInputType     = "Default:ReadyInputType_s"
)

// emoteNone is the sentinel written when emote playback stops.
const emoteNone = "None"

// CosmeticLoadout is the member's cosmetic selection document.
type CosmeticLoadout struct {
	Character string            `json:"characterDef"`
	Backpack  string            `json:"backpackDef"`
	Pickaxe   string            `json:"pickaxeDef"`
	Contrail  string            `json:"contrailDef"`
	Variants  []CosmeticVariant `json:"variants"`
}

// CosmeticVariant selects a style channel on a cosmetic item.
type CosmeticVariant struct {
	Item    string `json:"item"`
	Channel string `json:"channel"`
	Variant string `json:"variant"`
}

// BannerInfo is the member's banner document.
type BannerInfo struct {
	IconID      string `json:"bannerIconId"`
	ColorID     string `json:"bannerColorId"`
	SeasonLevel int    `json:"seasonLevel"`
}

// BattlePassInfo is the member's battle pass progress document.
type BattlePassInfo struct {
	HasPurchased  bool `json:"bHasPurchasedPass"`
	Level         int  `json:"passLevel"`
	SelfBoostXP   int  `json:"selfBoostXp"`
	FriendBoostXP int  `json:"friendBoostXp"`
}

// FrontendEmote is the member's emote playback document.
type FrontendEmote struct {
	ItemDef string `json:"emoteItemDef"`
	Section int    `json:"emoteSection"`
}

// AssistedChallengeInfo is the member's assisted challenge document.
type AssistedChallengeInfo struct {
	QuestItemDef        string `json:"questItemDef"`
	ObjectivesCompleted int    `json:"objectivesCompleted"`
}

// PlaylistInfo selects the game mode the party will matchmake into.
type PlaylistInfo struct {
	Name          string `json:"playlistName"`
	TournamentID  string `json:"tournamentId"`
	EventWindowID string `json:"eventWindowId"`
	RegionID      string `json:"regionId"`
}

// PrivacySettings is the party privacy document under keyPrivacySettings.
type PrivacySettings struct {
	PartyType                string `json:"partyType"`
	InviteRestriction        string `json:"partyInviteRestriction"`
	OnlyLeaderFriendsCanJoin bool   `json:"bOnlyLeaderFriendsCanJoin"`
}

// privacySettingsFor maps a privacy tier to its wire document.
func privacySettingsFor(p Privacy) PrivacySettings {
	switch p {
	case PrivacyInviteAndFormer:
		return PrivacySettings{
			PartyType:                "Private",
			InviteRestriction:        "LeaderOnly",
			OnlyLeaderFriendsCanJoin: true,
		}
	case PrivacyFriendsOnly:
		return PrivacySettings{
			PartyType:                "FriendsOnly",
			InviteRestriction:        "AnyMember",
			OnlyLeaderFriendsCanJoin: true,
		}
	default:
		return PrivacySettings{
			PartyType:                "Public",
			InviteRestriction:        "AnyMember",
			OnlyLeaderFriendsCanJoin: false,
		}
	}
}

// encodeDoc serializes a _j document: the value wrapped in an object under
// its wrapper name, e.g. {"AthenaCosmeticLoadout":{...}}.
func encodeDoc(wrapper string, v any) string {
	data, err := json.Marshal(map[string]any{wrapper: v})
	if err != nil {
		// The document types above contain only marshalable fields; an
		// error here is a programming bug.
		panic(fmt.Sprintf("party: failed to encode %s document: %v", wrapper, err))
	}
	return string(data)
}

// decodeDoc unwraps a _j document previously produced by encodeDoc.
func decodeDoc(raw, wrapper string, v any) error {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &outer); err != nil {
		return fmt.Errorf("party: malformed %s document: %w", wrapper, err)
	}
	inner, ok := outer[wrapper]
	if !ok {
		return fmt.Errorf("party: document missing %s wrapper", wrapper)
	}
	return json.Unmarshal(inner, v)
}

// encodeBool serializes a _b value.
func encodeBool(b bool) string {
	return strconv.FormatBool(b)
}

// encodeUint serializes a _U value.
func encodeUint(n int) string {
	return strconv.Itoa(n)
}

// encodeSquadAssignments serializes the assignment list under its wire
// wrapper name.
func encodeSquadAssignments(assignments []SquadAssignment) string {
	return encodeDoc("RawSquadAssignments", assignments)
}

// decodeSquadAssignments parses a squad assignment document.
func decodeSquadAssignments(raw string) ([]SquadAssignment, error) {
	var assignments []SquadAssignment
	if err := decodeDoc(raw, "RawSquadAssignments", &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}
