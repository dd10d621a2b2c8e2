package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetSessionSendsSignedRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}

		if got := req.PostFormValue("method"); got != "auth.getSession" {
			t.Errorf("expected auth.getSession, got %q", got)
		}
		if got := req.PostFormValue("format"); got != "json" {
			t.Errorf("expected json format, got %q", got)
		}

		expected := Sign(map[string]string{
			"method":  "auth.getSession",
			"token":   "the-token",
			"api_key": "api-key",
		}, "api-secret")
		if got := req.PostFormValue("api_sig"); got != expected {
			t.Errorf("expected signature %q, got %q", expected, got)
		}

		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"session":{"name":"listener","key":"session-key","subscriber":0}}`))
	}))
	defer server.Close()

	client := NewClient("api-key", "api-secret")
	client.SetBaseURL(server.URL)

	session, err := client.GetSession(context.Background(), "the-token")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Username != "listener" || session.SessionKey != "session-key" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestScrobbleSurfacesAPIErrorsAsResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"error":9,"message":"Invalid session key"}`))
	}))
	defer server.Close()

	client := NewClient("api-key", "api-secret")
	client.SetBaseURL(server.URL)

	result := client.Scrobble(context.Background(), "stale-key", Track{
		Artist: "The Testers",
		Name:   "Unit",
	}, time.Unix(1700000000, 0))

	if result.Success {
		t.Fatalf("expected failure result")
	}
	if result.Message == "" {
		t.Fatalf("expected a failure message")
	}
}

func TestScrobbleSendsTimestampAndSession(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}

		if got := req.PostFormValue("timestamp"); got != "1700000000" {
			t.Errorf("expected unix timestamp, got %q", got)
		}
		if got := req.PostFormValue("sk"); got != "session-key" {
			t.Errorf("expected session key, got %q", got)
		}
		if got := req.PostFormValue("album"); got != "Records" {
			t.Errorf("expected album param, got %q", got)
		}

		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{"scrobbles":{}}`))
	}))
	defer server.Close()

	client := NewClient("api-key", "api-secret")
	client.SetBaseURL(server.URL)

	result := client.Scrobble(context.Background(), "session-key", Track{
		Artist: "The Testers",
		Name:   "Unit",
		Album:  "Records",
	}, time.Unix(1700000000, 0))

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestUpdateNowPlayingAndLove(t *testing.T) {
	t.Parallel()

	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		methods = append(methods, req.PostFormValue("method"))

		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("api-key", "api-secret")
	client.SetBaseURL(server.URL)
	track := Track{Artist: "The Testers", Name: "Unit"}
	ctx := context.Background()

	if result := client.UpdateNowPlaying(ctx, "sk", track); !result.Success {
		t.Fatalf("now playing failed: %+v", result)
	}
	if result := client.Love(ctx, "sk", track, true); !result.Success {
		t.Fatalf("love failed: %+v", result)
	}
	if result := client.Love(ctx, "sk", track, false); !result.Success {
		t.Fatalf("unlove failed: %+v", result)
	}

	want := []string{"track.updateNowPlaying", "track.love", "track.unlove"}
	if len(methods) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), methods)
	}
	for i := range want {
		if methods[i] != want[i] {
			t.Fatalf("expected call order %v, got %v", want, methods)
		}
	}
}
