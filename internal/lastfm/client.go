// Package lastfm implements the signed-request scrobbling API: session
// authentication, now-playing and scrobble submission, and track
// love/unlove.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Result is how remote failures surface to the binding layer: a success
// flag plus a human-readable message, never a thrown fault.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Session struct {
	Username   string
	SessionKey string
}

type Track struct {
	Artist string
	Name   string
	Album  string
}

type Client struct {
	apiKey     string
	secret     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, secret string) *Client {
	return &Client{
		apiKey:  apiKey,
		secret:  secret,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBaseURL points the client at a different endpoint; used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetSession exchanges an authorized token for a session key.
func (c *Client) GetSession(ctx context.Context, token string) (Session, error) {
	params := map[string]string{
		"method": "auth.getSession",
		"token":  token,
	}

	body, err := c.call(ctx, params)
	if err != nil {
		return Session{}, err
	}

	var parsed struct {
		Session struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		} `json:"session"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Session{}, fmt.Errorf("decode session response: %w", err)
	}
	if parsed.Session.Key == "" {
		return Session{}, fmt.Errorf("session response missing key")
	}

	return Session{Username: parsed.Session.Name, SessionKey: parsed.Session.Key}, nil
}

// UpdateNowPlaying reports the currently playing track.
func (c *Client) UpdateNowPlaying(ctx context.Context, sessionKey string, track Track) Result {
	params := map[string]string{
		"method": "track.updateNowPlaying",
		"artist": track.Artist,
		"track":  track.Name,
		"sk":     sessionKey,
	}
	if track.Album != "" {
		params["album"] = track.Album
	}

	return c.submit(ctx, params)
}

// Scrobble submits one listened track with its start timestamp.
func (c *Client) Scrobble(ctx context.Context, sessionKey string, track Track, startedAt time.Time) Result {
	params := map[string]string{
		"method":    "track.scrobble",
		"artist":    track.Artist,
		"track":     track.Name,
		"timestamp": strconv.FormatInt(startedAt.Unix(), 10),
		"sk":        sessionKey,
	}
	if track.Album != "" {
		params["album"] = track.Album
	}

	return c.submit(ctx, params)
}

// Love marks a track loved (or unloved) for the session user.
func (c *Client) Love(ctx context.Context, sessionKey string, track Track, loved bool) Result {
	method := "track.love"
	if !loved {
		method = "track.unlove"
	}

	return c.submit(ctx, map[string]string{
		"method": method,
		"artist": track.Artist,
		"track":  track.Name,
		"sk":     sessionKey,
	})
}

func (c *Client) submit(ctx context.Context, params map[string]string) Result {
	if _, err := c.call(ctx, params); err != nil {
		return Result{Success: false, Message: err.Error()}
	}

	return Result{Success: true}
}

func (c *Client) call(ctx context.Context, params map[string]string) ([]byte, error) {
	signed := make(map[string]string, len(params)+2)
	for name, value := range params {
		signed[name] = value
	}
	signed["api_key"] = c.apiKey
	signed["api_sig"] = Sign(mergedForSigning(params, c.apiKey), c.secret)
	signed["format"] = "json"

	form := url.Values{}
	for name, value := range signed {
		form.Set(name, value)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", params["method"], err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", params["method"], err)
	}

	var failure struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &failure); err == nil && failure.Error != 0 {
		return nil, fmt.Errorf("%s failed: %s (code %d)", params["method"], failure.Message, failure.Error)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed with status %d", params["method"], response.StatusCode)
	}

	return body, nil
}

func mergedForSigning(params map[string]string, apiKey string) map[string]string {
	merged := make(map[string]string, len(params)+1)
	for name, value := range params {
		merged[name] = value
	}
	merged["api_key"] = apiKey
	return merged
}
