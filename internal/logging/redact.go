// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

package logging

// RedactToken returns a loggable form of a bearer token: the first four
// characters followed by "...". Tokens shorter than eight characters are
// fully masked. Never log raw tokens.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) < 8 {
		return "****"
	}
	return token[:4] + "..."
}
