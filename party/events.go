// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import "github.com/goccy/go-json"

// notificationPrefix is the common prefix of all party notification type
// discriminators on the wire.
const notificationPrefix = "com.epicgames.social.party.notification.v0."

// Kind identifies a party notification. Values are the full wire
// discriminator strings.
type Kind string

const (
	KindPing                      Kind = Kind(notificationPrefix + "PING")
	KindInitialInvite             Kind = Kind(notificationPrefix + "INITIAL_INVITE")
	KindMemberJoined              Kind = Kind(notificationPrefix + "MEMBER_JOINED")
	KindMemberLeft                Kind = Kind(notificationPrefix + "MEMBER_LEFT")
	KindMemberKicked              Kind = Kind(notificationPrefix + "MEMBER_KICKED")
	KindMemberExpired             Kind = Kind(notificationPrefix + "MEMBER_EXPIRED")
	KindMemberDisconnected        Kind = Kind(notificationPrefix + "MEMBER_DISCONNECTED")
	KindMemberStateUpdated        Kind = Kind(notificationPrefix + "MEMBER_STATE_UPDATED")
	KindMemberNewCaptain          Kind = Kind(notificationPrefix + "MEMBER_NEW_CAPTAIN")
	KindPartyUpdated              Kind = Kind(notificationPrefix + "PARTY_UPDATED")
	KindMemberRequireConfirmation Kind = Kind(notificationPrefix + "MEMBER_REQUIRE_CONFIRMATION")
)

// knownKinds is the set of notification kinds the dispatcher reacts to.
var knownKinds = map[Kind]struct{}{
	KindPing:                      {},
	KindInitialInvite:             {},
	KindMemberJoined:              {},
	KindMemberLeft:                {},
	KindMemberKicked:              {},
	KindMemberExpired:             {},
	KindMemberDisconnected:        {},
	KindMemberStateUpdated:        {},
	KindMemberNewCaptain:          {},
	KindPartyUpdated:              {},
	KindMemberRequireConfirmation: {},
}

// Event is the typed notification published to listeners after local state
// reconciliation.
type Event struct {
	Kind Kind

	// PartyID is the party the notification concerns, where present.
	PartyID string

	// AccountID is the subject member: the joiner, leaver, kicked or
	// disconnected member, the newly promoted captain, the pinger or the
	// inviter depending on Kind.
	AccountID string

	// DisplayName is the subject's display name when the wire carries it.
	DisplayName string

	// Party is the snapshot attached per the notification's reaction:
	// the pinger's first current party for PING, the referenced party for
	// INITIAL_INVITE, the refreshed local snapshot for membership changes.
	Party *Party

	// Update and Deleted carry the metadata delta for state-update
	// notifications.
	Update  map[string]string
	Deleted []string
}

// Listener receives events for the kind it was registered on. Listeners run
// synchronously on the goroutine delivering the inbound message and must
// not block.
type Listener func(Event)

// envelope is the inbound notification shape. The wire reuses one envelope
// for all kinds; unused fields are simply absent.
type envelope struct {
	Type               string            `json:"type"`
	Sent               string            `json:"sent"`
	PartyID            string            `json:"party_id"`
	AccountID          string            `json:"account_id"`
	AccountDN          string            `json:"account_dn"`
	PingerID           string            `json:"pinger_id"`
	PingerDN           string            `json:"pinger_dn"`
	InviterID          string            `json:"inviter_id"`
	InviterDN          string            `json:"inviter_dn"`
	Revision           int               `json:"revision"`
	CaptainID          string            `json:"captain_id"`
	MemberStateUpdated map[string]string `json:"member_state_updated"`
	MemberStateRemoved []string          `json:"member_state_removed"`
	PartyStateUpdated  map[string]string `json:"party_state_updated"`
	PartyStateRemoved  []string          `json:"party_state_removed"`
}

// decodeEnvelope parses an inbound notification frame.
func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
