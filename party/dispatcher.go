// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
dispatcher.go - Party Notification Dispatcher

Single subscriber to the realtime transport's inbound message stream.
Decodes the tagged-union notification envelope, reconciles the local party
snapshot per notification kind, then publishes a typed event to listeners
registered for that kind. Each message is handled independently; there is
no session state beyond subscribed/unsubscribed.

Malformed or unrecognized notifications are logged and dropped, never
propagated as errors.
*/

package party

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/partyline/partyline/internal/logging"
	"github.com/partyline/partyline/internal/metrics"
)

// handleTimeout bounds the remote calls a single notification may trigger.
const handleTimeout = 15 * time.Second

// Dispatcher decodes inbound notifications and drives snapshot
// reconciliation.
type Dispatcher struct {
	ctrl *Controller

	mu        sync.RWMutex
	listeners map[Kind][]Listener
}

// newDispatcher wires a dispatcher to its controller.
func newDispatcher(ctrl *Controller) *Dispatcher {
	return &Dispatcher{
		ctrl:      ctrl,
		listeners: make(map[Kind][]Listener),
	}
}

// On registers a listener for a notification kind. Listeners for one kind
// run in registration order, synchronously on the delivering goroutine.
func (d *Dispatcher) On(kind Kind, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[kind] = append(d.listeners[kind], fn)
}

// HandleRaw processes one inbound frame from the realtime transport. It is
// the transport's message handler and never returns an error: decode
// failures and unknown discriminators are logged and dropped.
func (d *Dispatcher) HandleRaw(data []byte) {
	env, err := decodeEnvelope(data)
	if err != nil {
		logging.Err(err).Msg("failed to decode notification envelope")
		return
	}
	if !strings.HasPrefix(env.Type, notificationPrefix) {
		// Other message families (chat, presence) share the stream.
		return
	}

	kind := Kind(env.Type)
	if _, ok := knownKinds[kind]; !ok {
		metrics.NotificationsUnknown.Inc()
		logging.Debug().Str("type", env.Type).Msg("unknown notification type, dropping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	d.handle(ctx, kind, env)
}

// handle applies the per-kind reaction, then publishes.
func (d *Dispatcher) handle(ctx context.Context, kind Kind, env *envelope) {
	ev := Event{
		Kind:        kind,
		PartyID:     env.PartyID,
		AccountID:   env.AccountID,
		DisplayName: env.AccountDN,
	}

	switch kind {
	case KindPing:
		ev.AccountID = env.PingerID
		ev.DisplayName = env.PingerDN
		summary, err := d.ctrl.api.FetchUserSummary(ctx, env.PingerID)
		if err != nil {
			logging.Err(err).Str("pinger_id", env.PingerID).Msg("failed to fetch pinger parties")
		} else if len(summary.Current) > 0 {
			ev.Party = summary.Current[0]
			ev.PartyID = ev.Party.ID
		}

	case KindInitialInvite:
		ev.AccountID = env.InviterID
		ev.DisplayName = env.InviterDN
		p, err := d.ctrl.api.FetchParty(ctx, env.PartyID)
		if err != nil {
			logging.Err(err).Str("party_id", env.PartyID).Msg("failed to fetch invited party")
		} else {
			ev.Party = p
		}

	case KindMemberJoined:
		d.refetch(ctx)
		d.refreshAssignments()
		ev.Party = d.ctrl.state.Party()

	case KindMemberLeft, KindMemberKicked, KindMemberExpired:
		d.refetch(ctx)
		if env.AccountID != d.ctrl.accountID {
			d.refreshAssignments()
		}
		ev.Party = d.ctrl.state.Party()

	case KindMemberDisconnected:
		d.refetch(ctx)
		ev.Party = d.ctrl.state.Party()

	case KindMemberStateUpdated:
		if env.AccountID == d.ctrl.accountID {
			// Our own flush echoed back; reacting would loop.
			return
		}
		if !d.ctrl.state.MergeMemberMeta(env.AccountID, env.MemberStateUpdated, env.MemberStateRemoved) {
			logging.Debug().Str("account_id", env.AccountID).Msg("state update for member not in snapshot")
		}
		ev.Update = env.MemberStateUpdated
		ev.Deleted = env.MemberStateRemoved
		ev.Party = d.ctrl.state.Party()

	case KindMemberNewCaptain:
		d.ctrl.state.MergeMemberMeta(env.AccountID, env.MemberStateUpdated, env.MemberStateRemoved)
		d.ctrl.state.PromoteCaptain(env.AccountID)
		if env.AccountID == d.ctrl.accountID {
			// Promoted to captain: adopt the server's view wholesale.
			d.refetch(ctx)
		}
		ev.Party = d.ctrl.state.Party()

	case KindPartyUpdated:
		d.ctrl.state.MergePartyMeta(env.PartyStateUpdated, env.PartyStateRemoved)
		ev.Update = env.PartyStateUpdated
		ev.Deleted = env.PartyStateRemoved
		ev.Party = d.ctrl.state.Party()

	case KindMemberRequireConfirmation:
		// Confirming or rejecting is a caller decision via the controller.
	}

	d.publish(ev)
}

// refetch replaces the local snapshot with the server's current document.
func (d *Dispatcher) refetch(ctx context.Context) {
	partyID := d.ctrl.state.PartyID()
	if partyID == "" {
		return
	}
	p, err := d.ctrl.api.FetchParty(ctx, partyID)
	if err != nil {
		logging.Err(err).Str("party_id", partyID).Msg("party re-fetch failed")
		return
	}
	d.ctrl.state.ResetParty(p)
}

// refreshAssignments recomputes squad assignments; a no-op unless the local
// player is the captain.
func (d *Dispatcher) refreshAssignments() {
	if err := d.ctrl.RefreshSquadAssignments(); err != nil {
		logging.Err(err).Msg("squad assignment refresh failed")
	}
}

// publish invokes the listeners registered for the event's kind.
func (d *Dispatcher) publish(ev Event) {
	d.mu.RLock()
	listeners := d.listeners[ev.Kind]
	d.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
