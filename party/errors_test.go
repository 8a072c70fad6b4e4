// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package party

import (
	"fmt"
	"testing"
)

func TestAuthoritativeRevision(t *testing.T) {
	tests := []struct {
		name  string
		vars  []string
		want  int
		found bool
	}{
		{
			name:  "submitted and authoritative",
			vars:  []string{"4", "11"},
			want:  11,
			found: true,
		},
		{
			name:  "party id then revision",
			vars:  []string{"8a9f31ce44f0427e9f71da2597343bfb", "27"},
			want:  27,
			found: true,
		},
		{
			name:  "single integer",
			vars:  []string{"3"},
			want:  3,
			found: true,
		},
		{
			name:  "no integers",
			vars:  []string{"abc", "def"},
			found: false,
		},
		{
			name:  "empty",
			vars:  nil,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &EpicError{Code: staleRevisionCode, MessageVars: tt.vars}
			got, found := e.AuthoritativeRevision()
			checkBoolEqual(t, "found", found, tt.found)
			if tt.found {
				checkIntEqual(t, "revision", got, tt.want)
			}
		})
	}
}

func TestDecodeEpicError(t *testing.T) {
	body := []byte(`{
		"errorCode": "errors.com.epicgames.social.party.stale_revision",
		"errorMessage": "Stale revision",
		"messageVars": ["partyid", "14"],
		"numericErrorCode": 51021,
		"originatingService": "party",
		"intent": "prod"
	}`)

	e := decodeEpicError(409, body)
	checkStringEqual(t, "Code", e.Code, staleRevisionCode)
	checkStringEqual(t, "Message", e.Message, "Stale revision")
	checkIntEqual(t, "NumericCode", e.NumericCode, 51021)
	checkStringEqual(t, "Service", e.Service, "party")
	checkIntEqual(t, "HTTPStatus", e.HTTPStatus, 409)
	checkBoolEqual(t, "StaleRevision", e.StaleRevision(), true)
}

func TestDecodeEpicErrorMalformedBody(t *testing.T) {
	e := decodeEpicError(502, []byte("<html>bad gateway</html>"))
	checkStringEqual(t, "Code", e.Code, "errors.partyline.unexpected_response")
	checkIntEqual(t, "HTTPStatus", e.HTTPStatus, 502)
	checkBoolEqual(t, "StaleRevision", e.StaleRevision(), false)
}

func TestIsStaleRevision(t *testing.T) {
	stale := &EpicError{Code: staleRevisionCode}
	other := &EpicError{Code: "errors.com.epicgames.social.party.party_not_found"}

	checkBoolEqual(t, "stale direct", IsStaleRevision(stale), true)
	checkBoolEqual(t, "stale wrapped", IsStaleRevision(fmt.Errorf("patch: %w", stale)), true)
	checkBoolEqual(t, "other code", IsStaleRevision(other), false)
	checkBoolEqual(t, "plain error", IsStaleRevision(fmt.Errorf("network down")), false)
	checkBoolEqual(t, "nil", IsStaleRevision(nil), false)
}
