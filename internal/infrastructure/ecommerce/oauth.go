package ecommerce

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stocklink/backend/internal/domain/integration"
)

// Errors for the OAuth authorization flow
var (
	ErrOAuthNoPendingFlow = errors.New("oauth: no authorization flow in progress")
	ErrOAuthStateMismatch = errors.New("oauth: state does not match pending flow")
	ErrOAuthFlowExpired   = errors.New("oauth: authorization flow expired")
	ErrOAuthMissingConfig = errors.New("oauth: app credentials are incomplete")
)

// oauthDefaultFlowTTL bounds how long a started authorization may stay pending
const oauthDefaultFlowTTL = 10 * time.Minute

// OAuthAppConfig holds the registered app credentials and endpoints for one
// platform's authorization code flow.
type OAuthAppConfig struct {
	// AuthorizeEndpoint is the platform's authorization page URL
	AuthorizeEndpoint string
	// TokenEndpoint is the code-for-token exchange URL
	TokenEndpoint string
	// ClientID is the registered app client id
	ClientID string
	// ClientSecret is the registered app client secret
	ClientSecret string
	// RedirectURI is the callback registered with the platform
	RedirectURI string
	// Scopes are the requested access scopes
	Scopes []string
}

// Validate checks the app credentials
func (c *OAuthAppConfig) Validate() error {
	if c.AuthorizeEndpoint == "" || c.TokenEndpoint == "" || c.ClientID == "" || c.RedirectURI == "" {
		return ErrOAuthMissingConfig
	}
	return nil
}

// OAuthTokens is the outcome of a completed authorization.
type OAuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// oauthFlow is one pending authorization. The PKCE verifier lives only here,
// in memory, until the flow completes or is replaced.
type oauthFlow struct {
	state        string
	verifier     string
	connectionID uuid.UUID
	platform     integration.PlatformCode
	expiresAt    time.Time
}

// OAuthManager runs the PKCE authorization code flow against a platform. At
// most one flow is pending at a time: starting a new one abandons the old,
// so a stale browser tab can never complete against fresh credentials.
type OAuthManager struct {
	config     *OAuthAppConfig
	httpClient *http.Client
	flowTTL    time.Duration

	mu      sync.Mutex
	pending *oauthFlow
}

// NewOAuthManager creates an OAuth manager for one platform app registration
func NewOAuthManager(config *OAuthAppConfig) (*OAuthManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OAuthManager{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		flowTTL:    oauthDefaultFlowTTL,
	}, nil
}

// Begin starts a new authorization flow for a connection and returns the URL
// the merchant must visit. Any previously pending flow is discarded.
func (m *OAuthManager) Begin(connectionID uuid.UUID, platform integration.PlatformCode) (string, error) {
	state, err := randomURLToken(32)
	if err != nil {
		return "", fmt.Errorf("oauth: failed to generate state: %w", err)
	}
	verifier, err := randomURLToken(64)
	if err != nil {
		return "", fmt.Errorf("oauth: failed to generate verifier: %w", err)
	}

	m.mu.Lock()
	m.pending = &oauthFlow{
		state:        state,
		verifier:     verifier,
		connectionID: connectionID,
		platform:     platform,
		expiresAt:    time.Now().Add(m.flowTTL),
	}
	m.mu.Unlock()

	challenge := sha256.Sum256([]byte(verifier))

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", m.config.ClientID)
	query.Set("redirect_uri", m.config.RedirectURI)
	query.Set("state", state)
	query.Set("code_challenge", base64.RawURLEncoding.EncodeToString(challenge[:]))
	query.Set("code_challenge_method", "S256")
	if len(m.config.Scopes) > 0 {
		query.Set("scope", strings.Join(m.config.Scopes, " "))
	}
	return m.config.AuthorizeEndpoint + "?" + query.Encode(), nil
}

// Complete finishes the pending flow with the callback's state and code. The
// state must match the pending flow exactly; anything else fails closed
// without touching the slot. Once the exchange is attempted the slot is
// cleared no matter the outcome: a failed exchange means starting over with
// Begin, the spent code is useless.
func (m *OAuthManager) Complete(ctx context.Context, state, code string) (uuid.UUID, integration.PlatformCode, *OAuthTokens, error) {
	m.mu.Lock()
	flow := m.pending
	if flow == nil {
		m.mu.Unlock()
		return uuid.Nil, "", nil, ErrOAuthNoPendingFlow
	}
	if time.Now().After(flow.expiresAt) {
		m.pending = nil
		m.mu.Unlock()
		return uuid.Nil, "", nil, ErrOAuthFlowExpired
	}
	if state == "" || state != flow.state {
		m.mu.Unlock()
		return uuid.Nil, "", nil, ErrOAuthStateMismatch
	}
	m.mu.Unlock()

	tokens, err := m.exchangeCode(ctx, code, flow.verifier)

	// Clear the slot only if it still belongs to this flow
	m.mu.Lock()
	if m.pending == flow {
		m.pending = nil
	}
	m.mu.Unlock()

	if err != nil {
		return uuid.Nil, "", nil, err
	}
	return flow.connectionID, flow.platform, tokens, nil
}

// HasPendingFlow reports whether an unexpired authorization is in progress
func (m *OAuthManager) HasPendingFlow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil && time.Now().Before(m.pending.expiresAt)
}

// exchangeCode trades the authorization code plus verifier for tokens
func (m *OAuthManager) exchangeCode(ctx context.Context, code, verifier string) (*OAuthTokens, error) {
	payload := map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     m.config.ClientID,
		"client_secret": m.config.ClientSecret,
		"redirect_uri":  m.config.RedirectURI,
		"code_verifier": verifier,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopifyResponseSize))
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("oauth: token exchange rejected with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ShopifyAccessTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("oauth: failed to parse token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return nil, integration.ErrPlatformInvalidResponse
	}

	tokens := &OAuthTokens{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		Scope:        parsed.Scope,
	}
	if parsed.ExpiresIn > 0 {
		tokens.ExpiresAt = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}
	return tokens, nil
}

// randomURLToken returns n bytes of cryptographic randomness, URL-safe encoded
func randomURLToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
