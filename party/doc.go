// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
Package party implements the party state-synchronization client.

It wraps the party REST service behind a typed client, keeps a local
snapshot of the joined party, and reconciles it with the notification
stream delivered by the realtime transport.

Architecture:

  - Service: REST client for the party endpoints (fixed wire contract).
  - PatchQueue: serializes local mutations into ordered PATCH calls
    guarded by the server's optimistic-concurrency revision counter.
  - MemberMeta / State: accumulators for the local player's member
    metadata and the party document, each flushed through its own queue.
  - Dispatcher: decodes inbound notification envelopes, reconciles the
    snapshot, and publishes typed events to registered listeners.
  - Controller: the public façade (join/create/leave/invite/kick/promote
    plus metadata setters that flush implicitly).

All metadata flows as flat "Default:<Name>_<suffix>" string keys whose
values are JSON-encoded documents; the exact key and field names are a
wire contract with the remote service and must not be altered.
*/
package party
