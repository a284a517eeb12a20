package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, tokenStatus int, tokenBody string) (*Handler, *url.Values) {
	t.Helper()
	var gotForm url.Values
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.WriteHeader(tokenStatus)
		w.Write([]byte(tokenBody))
	}))
	t.Cleanup(tokenSrv.Close)

	h := NewHandler(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:5173/auth/callback",
		TokenURL:     tokenSrv.URL,
	})
	return h, &gotForm
}

func TestLoginRedirect(t *testing.T) {
	h := NewHandler(Config{ClientID: "cid", RedirectURI: "http://localhost:5173/auth/callback"})

	rec := httptest.NewRecorder()
	h.handleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/twitch", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "id.twitch.tv", u.Host)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:5173/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "user:read:email channel:read:redemptions", q.Get("scope"))
	assert.Empty(t, q.Get("state"), "state is only sent when a secret is configured")
}

func TestLoginRedirectSignsState(t *testing.T) {
	h := NewHandler(Config{ClientID: "cid", StateSecret: "hush"})

	rec := httptest.NewRecorder()
	h.handleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/twitch", nil))

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.NoError(t, h.verifyState(state))
}

func TestCallbackMissingCode(t *testing.T) {
	h, _ := newTestHandler(t, http.StatusOK, `{}`)

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing code", strings.TrimSpace(rec.Body.String()))
}

func TestCallbackExchangesCode(t *testing.T) {
	body := `{"access_token":"at","refresh_token":"rt","expires_in":3600,"scope":["user:read:email"],"token_type":"bearer"}`
	h, gotForm := newTestHandler(t, http.StatusOK, body)

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc123", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, body, rec.Body.String())

	assert.Equal(t, "abc123", gotForm.Get("code"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "cid", gotForm.Get("client_id"))
	assert.Equal(t, "secret", gotForm.Get("client_secret"))
}

func TestCallbackUpstreamFailure(t *testing.T) {
	h, _ := newTestHandler(t, http.StatusForbidden, `denied`)

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc123", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "oauth failed", strings.TrimSpace(rec.Body.String()))
}

func TestCallbackRejectsBadState(t *testing.T) {
	h, _ := newTestHandler(t, http.StatusOK, `{}`)
	h.cfg.StateSecret = "hush"

	rec := httptest.NewRecorder()
	h.handleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc123&state=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid state", strings.TrimSpace(rec.Body.String()))
}

func TestVerifyStateRejectsForeignSignature(t *testing.T) {
	issuer := NewHandler(Config{StateSecret: "one"})
	verifier := NewHandler(Config{StateSecret: "two"})

	state, err := issuer.newState()
	require.NoError(t, err)
	assert.Error(t, verifier.verifyState(state))
	assert.Error(t, verifier.verifyState(""))
}
