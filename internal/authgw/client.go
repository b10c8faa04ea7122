package authgw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/revlinehq/revline-api/internal/config"
	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/pkg/middleware"
)

// Client talks to the hosted auth platform: current-session fetch, sign-out,
// identity metadata (token claims) and the auth-state event stream.
type Client struct {
	http       *http.Client
	issuerURL  string
	serviceKey string
	verifier   middleware.Verifier
	events     *redis.Client
	channel    string
}

// New builds a Client. events may be nil; Subscribe then reports the stream
// as unconfigured and callers fall back to the initial session fetch only.
func New(ctx context.Context, cfg *config.AuthConfig, events *redis.Client) (*Client, error) {
	c := &Client{
		http:       &http.Client{Timeout: 15 * time.Second},
		issuerURL:  strings.TrimRight(cfg.IssuerURL, "/"),
		serviceKey: cfg.ServiceKey,
		events:     events,
		channel:    cfg.EventsChannel,
	}
	if cfg.Insecure {
		c.verifier = NewInsecureVerifier()
	} else {
		v, err := NewOIDCVerifier(ctx, cfg.IssuerURL, cfg.ClientID)
		if err != nil {
			return nil, err
		}
		c.verifier = v
	}
	return c, nil
}

// Verifier exposes the token verifier for the HTTP auth middleware.
func (c *Client) Verifier() middleware.Verifier { return c.verifier }

// sessionPayload is the wire shape of the platform's session endpoint.
type sessionPayload struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	User        *struct {
		ID       string                 `json:"id"`
		Email    string                 `json:"email"`
		Metadata map[string]interface{} `json:"user_metadata"`
	} `json:"user"`
}

func (p *sessionPayload) toSession() *models.Session {
	s := &models.Session{
		AccessToken: p.AccessToken,
		ExpiresAt:   time.Unix(p.ExpiresAt, 0).UTC(),
	}
	if p.User != nil {
		s.Identity = &models.Identity{
			ID:       p.User.ID,
			Email:    p.User.Email,
			Metadata: p.User.Metadata,
		}
	}
	return s
}

// CurrentSession fetches the currently established session. Returns (nil, nil)
// when no session exists.
func (c *Client) CurrentSession(ctx context.Context) (*models.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.issuerURL+"/auth/v1/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session fetch: %w", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var p sessionPayload
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return nil, fmt.Errorf("session decode: %w", err)
		}
		return p.toSession(), nil
	default:
		return nil, &AuthOperationError{Op: "session fetch", Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}
}

// SignOut invalidates the session on the platform side. State clearing is the
// caller's responsibility and must only happen when this returns nil.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.issuerURL+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &AuthOperationError{Op: "sign out", Status: resp.StatusCode, Message: readErrorBody(resp.Body)}
}

// IdentityMetadata re-fetches the identity's free-form metadata by extracting
// the claims carried in the session token.
func (c *Client) IdentityMetadata(ctx context.Context, rawToken string) (map[string]interface{}, error) {
	tok, err := c.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	// common platform error shapes: {"error":...} or {"message":...}
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return strings.TrimSpace(string(b))
}
