// Package auth implements the Twitch OAuth authorization-code flow: a
// redirect to the Twitch consent page and a callback that exchanges the code
// for a token. Tokens are handed straight back to the client; there is no
// refresh, revocation, or server-side storage.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"k8s.io/klog/v2"
)

const (
	defaultAuthorizeURL = "https://id.twitch.tv/oauth2/authorize"
	defaultTokenURL     = "https://id.twitch.tv/oauth2/token"

	stateTTL = 15 * time.Minute
)

var defaultScopes = []string{"user:read:email", "channel:read:redemptions"}

// Config holds the Twitch OAuth application settings. AuthorizeURL and
// TokenURL override the Twitch endpoints, mainly for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// StateSecret signs the state parameter. Empty disables state
	// signing and verification.
	StateSecret string

	AuthorizeURL string
	TokenURL     string
	Scopes       []string
}

// Token is the Twitch token-endpoint response, relayed to the client as-is.
type Token struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	Scope        []string `json:"scope"`
	TokenType    string   `json:"token_type"`
}

// Handler serves the OAuth routes.
type Handler struct {
	cfg    Config
	client *http.Client
}

// NewHandler fills config defaults and returns a Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = defaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}
	return &Handler{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register mounts the OAuth routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/auth/twitch", h.handleLogin)
	mux.HandleFunc("/auth/callback", h.handleCallback)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	u, err := url.Parse(h.cfg.AuthorizeURL)
	if err != nil {
		klog.Errorf("auth: bad authorize URL: %v", err)
		http.Error(w, "oauth misconfigured", http.StatusInternalServerError)
		return
	}
	q := u.Query()
	q.Set("client_id", h.cfg.ClientID)
	q.Set("redirect_uri", h.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(h.cfg.Scopes, " "))
	if h.cfg.StateSecret != "" {
		state, err := h.newState()
		if err != nil {
			klog.Errorf("auth: sign state: %v", err)
			http.Error(w, "oauth misconfigured", http.StatusInternalServerError)
			return
		}
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if h.cfg.StateSecret != "" {
		if err := h.verifyState(r.URL.Query().Get("state")); err != nil {
			klog.V(1).Infof("auth: state rejected: %v", err)
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
	}

	token, err := h.exchangeCode(r.Context(), code)
	if err != nil {
		klog.Errorf("auth: token exchange failed: %v", err)
		http.Error(w, "oauth failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(token); err != nil {
		klog.Errorf("auth: write token response: %v", err)
	}
}

func (h *Handler) exchangeCode(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"client_id":     {h.cfg.ClientID},
		"client_secret": {h.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {h.cfg.RedirectURI},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("twitch token error %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &token, nil
}

// newState issues a short-lived signed state value for CSRF protection.
func (h *Handler) newState() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.StateSecret))
}

func (h *Handler) verifyState(state string) error {
	if state == "" {
		return fmt.Errorf("state is required")
	}
	_, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.cfg.StateSecret), nil
	})
	return err
}
