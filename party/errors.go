// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Sentinel errors returned by the Controller's local precondition checks.
var (
	// ErrNotInParty is returned by mutators called while not in a party.
	ErrNotInParty = errors.New("party: not in a party")

	// ErrNotCaptain is returned by captain-only operations when the local
	// player does not hold the captain role.
	ErrNotCaptain = errors.New("party: local player is not the captain")

	// ErrPartyFull is returned by join operations when the fetched party
	// already holds its configured maximum number of members.
	ErrPartyFull = errors.New("party: party is full")
)

// staleRevisionCode is the error code the service returns when a PATCH
// carries a revision that no longer matches server state.
const staleRevisionCode = "errors.com.epicgames.social.party.stale_revision"

// EpicError is the structured error body returned by the party service on
// non-2xx responses. Field names are wire contract.
type EpicError struct {
	Code        string   `json:"errorCode"`
	Message     string   `json:"errorMessage"`
	MessageVars []string `json:"messageVars"`
	NumericCode int      `json:"numericErrorCode"`
	Service     string   `json:"originatingService"`
	Intent      string   `json:"intent"`

	// HTTPStatus is the response status code; not part of the body.
	HTTPStatus int `json:"-"`
}

func (e *EpicError) Error() string {
	return fmt.Sprintf("party service error %s (%d): %s", e.Code, e.NumericCode, e.Message)
}

// StaleRevision reports whether this error is a stale-revision rejection.
func (e *EpicError) StaleRevision() bool {
	return e.Code == staleRevisionCode
}

// AuthoritativeRevision extracts the server's current revision from the
// error's message variables. The service reports the submitted and the
// authoritative revision; the authoritative one is the second variable,
// so the last parseable integer wins when scanning front to back.
func (e *EpicError) AuthoritativeRevision() (int, bool) {
	revision := 0
	found := false
	for _, v := range e.MessageVars {
		if n, err := strconv.Atoi(v); err == nil {
			revision = n
			found = true
		}
	}
	return revision, found
}

// decodeEpicError builds an *EpicError from a non-2xx response body. A body
// that is not the structured error shape still yields an *EpicError carrying
// the status code, so callers can always errors.As on remote failures.
func decodeEpicError(status int, body []byte) *EpicError {
	apiErr := &EpicError{HTTPStatus: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "errors.partyline.unexpected_response"
		apiErr.Message = string(body)
	}
	return apiErr
}

// IsStaleRevision reports whether err wraps a stale-revision rejection.
func IsStaleRevision(err error) bool {
	var apiErr *EpicError
	return errors.As(err, &apiErr) && apiErr.StaleRevision()
}
