// Partyline - Epic Party Services Client SDK for Go
// Copyright 2026 Partyline Contributors
// SPDX-License-Identifier: MIT
// https://github.com/partyline/partyline

/*
service.go - Party REST Service Client

This file implements the REST client for the party service. All paths and
payload shapes are a fixed wire contract dictated by the remote backend;
they were observed from traffic and must be preserved exactly.
*/

package party

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/partyline/partyline/internal/logging"
)

// basePath is the party service API root, relative to the service base URL.
const basePath = "/party/api/v1/Fortnite"

// API defines the party service operations. Service implements it directly;
// BreakerService wraps it with a circuit breaker.
type API interface {
	CreateParty(ctx context.Context, config Config, connectionID string, meta map[string]string) (*Party, error)
	FetchParty(ctx context.Context, partyID string) (*Party, error)
	PatchParty(ctx context.Context, partyID string, config Config, upd PendingUpdate, revision int) error
	PatchMemberMeta(ctx context.Context, partyID, accountID string, upd PendingUpdate, revision int) error
	JoinParty(ctx context.Context, partyID, accountID, connectionID string, meta map[string]string) error
	JoinPartyFromPing(ctx context.Context, accountID, pingerID, connectionID string, meta map[string]string) (string, error)
	RemoveMember(ctx context.Context, partyID, accountID string) error
	DeleteParty(ctx context.Context, partyID string) error
	Promote(ctx context.Context, partyID, accountID string) error
	ConfirmMember(ctx context.Context, partyID, accountID string) error
	RejectMember(ctx context.Context, partyID, accountID string) error
	SendInvite(ctx context.Context, partyID, accountID string) error
	DeclineInvite(ctx context.Context, partyID, accountID string) error
	FetchUserSummary(ctx context.Context, accountID string) (*UserSummary, error)
}

// Ensure Service implements API.
var _ API = (*Service)(nil)

// TokenSource supplies the bearer token for each request, letting a host
// application rotate tokens without rebuilding the client.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed token string.
type StaticToken string

// Token returns the token string.
func (s StaticToken) Token() string { return string(s) }

// ServiceOptions tunes the REST client.
type ServiceOptions struct {
	// Timeout bounds each HTTP request. Default: 30s.
	Timeout time.Duration

	// RateLimit and RateBurst bound the request rate against the remote
	// service. Defaults: 10 req/s, burst 20.
	RateLimit float64
	RateBurst int
}

// Service provides access to the party REST service.
type Service struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewService creates a party service client.
//
// Parameters:
//   - baseURL: party service base URL, without the API path
//   - tokens: bearer token source (the auth flow lives outside this SDK)
func NewService(baseURL string, tokens TokenSource, opts ServiceOptions) *Service {
	baseURL = strings.TrimSuffix(baseURL, "/")

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}

	s := &Service{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
	}
	s.warnIfTokenExpiring()
	return s
}

// warnIfTokenExpiring parses the current bearer token without verifying
// its signature and logs a warning when it is expired or about to expire.
// Refreshing the token is the host application's job.
func (s *Service) warnIfTokenExpiring() {
	token := s.tokens.Token()
	if token == "" {
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Epic also issues opaque tokens; nothing to inspect.
		return
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}

	remaining := time.Until(exp.Time)
	if remaining < 5*time.Minute {
		logging.Warn().
			Str("token", logging.RedactToken(token)).
			Dur("remaining", remaining).
			Msg("bearer token expired or expiring soon")
	}
}

// createPartyRequest is the create endpoint body.
type createPartyRequest struct {
	Config   Config            `json:"config"`
	JoinInfo joinInfo          `json:"join_info"`
	Meta     map[string]string `json:"meta"`
}

// joinRequest is the member join endpoint body.
type joinRequest struct {
	Connection connection        `json:"connection"`
	Meta       map[string]string `json:"meta"`
}

type joinInfo struct {
	Connection connection `json:"connection"`
}

type connection struct {
	ID string `json:"id"`
}

// partyPatchRequest is the party PATCH body: the metadata delta plus the
// revision guard, with the current config always re-embedded.
type partyPatchRequest struct {
	Config   Config    `json:"config"`
	Meta     metaDelta `json:"meta"`
	Revision int       `json:"revision"`
}

// memberPatchRequest is the member meta PATCH body.
type memberPatchRequest struct {
	Update   map[string]string `json:"update"`
	Delete   []string          `json:"delete"`
	Revision int               `json:"revision"`
}

type metaDelta struct {
	Update map[string]string `json:"update"`
	Delete []string          `json:"delete"`
}

// CreateParty creates a new party with the given config and baseline
// metadata, joining the local player as captain.
func (s *Service) CreateParty(ctx context.Context, config Config, connectionID string, meta map[string]string) (*Party, error) {
	body := createPartyRequest{
		Config:   config,
		JoinInfo: joinInfo{Connection: connection{ID: connectionID}},
		Meta:     nonNilMap(meta),
	}

	var created Party
	if err := s.doJSON(ctx, http.MethodPost, basePath+"/parties", body, &created); err != nil {
		return nil, fmt.Errorf("create party failed: %w", err)
	}
	return &created, nil
}

// FetchParty retrieves a party document by ID.
func (s *Service) FetchParty(ctx context.Context, partyID string) (*Party, error) {
	var p Party
	path := fmt.Sprintf("%s/parties/%s", basePath, partyID)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, fmt.Errorf("fetch party %s failed: %w", partyID, err)
	}
	return &p, nil
}

// PatchParty applies a metadata delta to the party document guarded by the
// given revision. The current config block is always included.
func (s *Service) PatchParty(ctx context.Context, partyID string, config Config, upd PendingUpdate, revision int) error {
	body := partyPatchRequest{
		Config: config,
		Meta: metaDelta{
			Update: nonNilMap(upd.Update),
			Delete: nonNilSlice(upd.Delete),
		},
		Revision: revision,
	}
	path := fmt.Sprintf("%s/parties/%s", basePath, partyID)
	return s.doJSON(ctx, http.MethodPatch, path, body, nil)
}

// PatchMemberMeta applies a metadata delta to the local member's document.
func (s *Service) PatchMemberMeta(ctx context.Context, partyID, accountID string, upd PendingUpdate, revision int) error {
	body := memberPatchRequest{
		Update:   nonNilMap(upd.Update),
		Delete:   nonNilSlice(upd.Delete),
		Revision: revision,
	}
	path := fmt.Sprintf("%s/parties/%s/members/%s/meta", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPatch, path, body, nil)
}

// JoinParty joins the given account to a party.
func (s *Service) JoinParty(ctx context.Context, partyID, accountID, connectionID string, meta map[string]string) error {
	body := joinRequest{
		Connection: connection{ID: connectionID},
		Meta:       nonNilMap(meta),
	}
	path := fmt.Sprintf("%s/parties/%s/members/%s/join", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPost, path, body, nil)
}

// pingJoinResponse is the ping-join endpoint response, carrying the ID of
// the party the member just joined.
type pingJoinResponse struct {
	Status  string `json:"status"`
	PartyID string `json:"party_id"`
}

// JoinPartyFromPing joins the party a pinger invited the account to,
// resolving the target party server-side from the pending ping. Returns
// the joined party's ID.
func (s *Service) JoinPartyFromPing(ctx context.Context, accountID, pingerID, connectionID string, meta map[string]string) (string, error) {
	body := joinRequest{
		Connection: connection{ID: connectionID},
		Meta:       nonNilMap(meta),
	}
	path := fmt.Sprintf("%s/user/%s/pings/%s/join", basePath, accountID, pingerID)

	var resp pingJoinResponse
	if err := s.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", fmt.Errorf("join from ping by %s failed: %w", pingerID, err)
	}
	return resp.PartyID, nil
}

// RemoveMember removes a member from a party. The same endpoint serves both
// voluntary leave (own account) and kick (captain removing another member).
func (s *Service) RemoveMember(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/members/%s", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// DeleteParty disbands a party. Captain only.
func (s *Service) DeleteParty(ctx context.Context, partyID string) error {
	path := fmt.Sprintf("%s/parties/%s", basePath, partyID)
	return s.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// Promote transfers the captain role to the given member.
func (s *Service) Promote(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/members/%s/promote", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// ConfirmMember accepts a member awaiting join confirmation.
func (s *Service) ConfirmMember(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/members/%s/confirm", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// RejectMember rejects a member awaiting join confirmation.
func (s *Service) RejectMember(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/members/%s/reject", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// SendInvite invites an account to the party, pinging them through the
// presence channel.
func (s *Service) SendInvite(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/invites/%s?sendPing=true", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// DeclineInvite declines an invite to the given party.
func (s *Service) DeclineInvite(ctx context.Context, partyID, accountID string) error {
	path := fmt.Sprintf("%s/parties/%s/invites/%s", basePath, partyID, accountID)
	return s.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// FetchUserSummary retrieves the parties an account is currently in, plus
// pending joins and invites.
func (s *Service) FetchUserSummary(ctx context.Context, accountID string) (*UserSummary, error) {
	var summary UserSummary
	path := fmt.Sprintf("%s/user/%s", basePath, accountID)
	if err := s.doJSON(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, fmt.Errorf("fetch user summary for %s failed: %w", accountID, err)
	}
	return &summary, nil
}

// doJSON performs a rate-limited request with a JSON body and decodes a JSON
// response into out when out is non-nil. Non-2xx responses are decoded into
// *EpicError.
func (s *Service) doJSON(ctx context.Context, method, path string, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.tokens.Token())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &EpicError{
				Code:       "errors.partyline.unexpected_response",
				Message:    fmt.Sprintf("status %d (failed to read body)", resp.StatusCode),
				HTTPStatus: resp.StatusCode,
			}
		}
		return decodeEpicError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// nonNilMap normalizes a nil map so the wire always carries {}.
func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// nonNilSlice normalizes a nil slice so the wire always carries [].
func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
