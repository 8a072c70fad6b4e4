// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"time"

	"github.com/goccy/go-json"
)

// Joinability controls who may join a party, as carried in the party config.
type Joinability string

const (
	JoinabilityOpen            Joinability = "OPEN"
	JoinabilityFriendsOnly     Joinability = "FRIENDS_ONLY"
	JoinabilityInviteAndFormer Joinability = "INVITE_AND_FORMER"
)

// Privacy is the user-facing privacy tier selected when creating a party.
// Its values mirror Joinability, but the tier maps to a full config plus
// privacy metadata rather than the single joinability field.
type Privacy string

const (
	PrivacyPublic          Privacy = "OPEN"
	PrivacyFriendsOnly     Privacy = "FRIENDS_ONLY"
	PrivacyInviteAndFormer Privacy = "INVITE_AND_FORMER"
)

// Role is a member's role within a party. Exactly one member holds
// RoleCaptain at any time.
type Role string

const (
	RoleCaptain Role = "CAPTAIN"
	RoleMember  Role = "MEMBER"
)

// Readiness is the lobby readiness state carried in member metadata.
type Readiness string

const (
	ReadinessReady      Readiness = "Ready"
	ReadinessNotReady   Readiness = "NotReady"
	ReadinessSittingOut Readiness = "SittingOut"
)

// InputType identifies the local player's input device.
type InputType string

const (
	InputMouseAndKeyboard InputType = "MouseAndKeyboard"
	InputGamepad          InputType = "Gamepad"
	InputTouch            InputType = "Touch"
)

// Config is the party configuration block. The remote service requires it
// to be re-embedded on every party PATCH even when unchanged.
type Config struct {
	Joinability      Joinability `json:"joinability"`
	Discoverability  string      `json:"discoverability"`
	MaxSize          int         `json:"max_size"`
	JoinConfirmation bool        `json:"join_confirmation"`
	InviteTTL        int         `json:"invite_ttl"`
}

// ConfigForPrivacy maps a privacy tier to its party config. Public and
// friends-only share the permissive config; the tiers differ only in the
// privacy metadata document. Invite-and-former is the restrictive tier.
func ConfigForPrivacy(p Privacy) Config {
	switch p {
	case PrivacyInviteAndFormer:
		return Config{
			Joinability:      JoinabilityInviteAndFormer,
			Discoverability:  "INVITED_ONLY",
			MaxSize:          16,
			JoinConfirmation: true,
			InviteTTL:        14400,
		}
	default:
		return Config{
			Joinability:      JoinabilityOpen,
			Discoverability:  "ALL",
			MaxSize:          16,
			JoinConfirmation: false,
			InviteTTL:        14400,
		}
	}
}

// Party is the local snapshot of a party document. It is owned by the
// Controller: replaced wholesale on every full re-fetch and mutated
// field-by-field by targeted notification handling.
type Party struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Config    Config            `json:"config"`
	Members   []*Member         `json:"members"`
	Meta      map[string]string `json:"meta"`
	Revision  int               `json:"revision"`
}

// Member is one party member. AccountID is unique within a party.
type Member struct {
	AccountID string            `json:"account_id"`
	Role      Role              `json:"role"`
	Meta      map[string]string `json:"meta"`
	JoinedAt  time.Time         `json:"joined_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Revision  int               `json:"revision"`
}

// Member returns the member with the given account ID, or nil.
func (p *Party) Member(accountID string) *Member {
	for _, m := range p.Members {
		if m.AccountID == accountID {
			return m
		}
	}
	return nil
}

// Captain returns the member holding RoleCaptain, or nil.
func (p *Party) Captain() *Member {
	for _, m := range p.Members {
		if m.Role == RoleCaptain {
			return m
		}
	}
	return nil
}

// HasMember reports whether the given account is in the party.
func (p *Party) HasMember(accountID string) bool {
	return p.Member(accountID) != nil
}

// Size returns the number of members.
func (p *Party) Size() int {
	return len(p.Members)
}

// IsFull reports whether the party has reached its configured max size.
func (p *Party) IsFull() bool {
	return p.Config.MaxSize > 0 && len(p.Members) >= p.Config.MaxSize
}

// clone returns a deep copy of the snapshot. Member structs and meta maps
// are copied too, so a snapshot already handed to a caller stays stable
// while newer deltas land on a fresh copy.
func (p *Party) clone() *Party {
	if p == nil {
		return nil
	}
	out := *p
	out.Meta = cloneMeta(p.Meta)
	out.Members = make([]*Member, len(p.Members))
	for i, m := range p.Members {
		mc := *m
		mc.Meta = cloneMeta(m.Meta)
		out.Members[i] = &mc
	}
	return &out
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SquadAssignment maps a member to an absolute seat index. Index 0 is
// always the captain; the remaining members occupy contiguous indices
// starting at 1 in insertion order. The JSON field names are wire contract.
type SquadAssignment struct {
	MemberID          string `json:"memberId"`
	AbsoluteMemberIdx int    `json:"absoluteMemberIdx"`
}

// PendingUpdate is an update-or-delete metadata delta queued for dispatch.
type PendingUpdate struct {
	Update map[string]string
	Delete []string
}

// UserSummary is the response of the user party-listing endpoint: the
// parties the account is currently in plus pending joins and invites.
type UserSummary struct {
	Current []*Party          `json:"current"`
	Pending []json.RawMessage `json:"pending"`
	Invites []json.RawMessage `json:"invites"`
}
