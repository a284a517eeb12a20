// Package points proxies the Twitch Helix custom-rewards endpoint so the
// client can show a viewer's channel-points budget without holding the app's
// client id.
package points

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

const defaultHelixURL = "https://api.twitch.tv/helix"

// Client calls the Helix API.
type Client struct {
	clientID string
	helixURL string
	http     *http.Client
}

// NewClient creates a Helix client. helixURL overrides the API base, mainly
// for tests; empty means the real endpoint.
func NewClient(clientID, helixURL string) *Client {
	if helixURL == "" {
		helixURL = defaultHelixURL
	}
	return &Client{
		clientID: clientID,
		helixURL: strings.TrimRight(helixURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// CustomRewards fetches the broadcaster's custom channel-point rewards and
// returns the response body verbatim.
func (c *Client) CustomRewards(ctx context.Context, accessToken, broadcasterID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/channel_points/custom_rewards?broadcaster_id=%s", c.helixURL, broadcasterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build rewards request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rewards request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("twitch channel points error %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rewards response: %w", err)
	}
	return body, nil
}

// Handler serves GET /twitch/channel-points. The access token comes from the
// Authorization header or an access_token query parameter; the broadcaster id
// from the query or the configured default.
type Handler struct {
	client               *Client
	defaultBroadcasterID string
}

// NewHandler creates the proxy handler.
func NewHandler(client *Client, defaultBroadcasterID string) *Handler {
	return &Handler{client: client, defaultBroadcasterID: defaultBroadcasterID}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("access_token")
	}
	broadcasterID := r.URL.Query().Get("broadcaster_id")
	if broadcasterID == "" {
		broadcasterID = h.defaultBroadcasterID
	}
	if token == "" || broadcasterID == "" {
		http.Error(w, "missing token or broadcaster_id", http.StatusBadRequest)
		return
	}

	data, err := h.client.CustomRewards(r.Context(), token, broadcasterID)
	if err != nil {
		klog.Errorf("points: channel points fetch failed: %v", err)
		http.Error(w, "channel points error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
