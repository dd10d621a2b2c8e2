// Package scrobble bridges playback to Last.fm: now-playing on track start
// and a single scrobble once the configured share of a track has played.
package scrobble

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zevinDev/wora/internal/lastfm"
	"github.com/zevinDev/wora/internal/library"
)

type submitter interface {
	UpdateNowPlaying(ctx context.Context, sessionKey string, track lastfm.Track) lastfm.Result
	Scrobble(ctx context.Context, sessionKey string, track lastfm.Track, startedAt time.Time) lastfm.Result
}

// Dispatcher implements player.Listener. Submission failures are logged and
// swallowed; scrobbling must never disturb playback.
type Dispatcher struct {
	client   submitter
	settings *library.SettingsRepository

	mu             sync.Mutex
	currentSongID  int64
	currentStarted time.Time
	scrobbled      bool

	launch func(task func())
}

func NewDispatcher(client submitter, settings *library.SettingsRepository) *Dispatcher {
	return &Dispatcher{
		client:   client,
		settings: settings,
		launch:   func(task func()) { go task() },
	}
}

func (d *Dispatcher) OnTrackStart(song library.Song, startedAt time.Time) {
	sessionKey, _, ok := d.scrobbleConfig()
	if !ok {
		return
	}

	d.mu.Lock()
	d.currentSongID = song.ID
	d.currentStarted = startedAt
	d.scrobbled = false
	d.mu.Unlock()

	track := trackFromSong(song)
	d.launch(func() {
		result := d.client.UpdateNowPlaying(context.Background(), sessionKey, track)
		if !result.Success {
			log.Warn().Str("track", track.Name).Str("reason", result.Message).Msg("scrobble: now playing failed")
		}
	})
}

func (d *Dispatcher) OnProgress(song library.Song, positionSec int, startedAt time.Time) {
	if song.Duration <= 0 {
		return
	}

	sessionKey, thresholdPercent, ok := d.scrobbleConfig()
	if !ok {
		return
	}

	if positionSec*100 < thresholdPercent*song.Duration {
		return
	}

	d.mu.Lock()
	sameInstance := d.currentSongID == song.ID && d.currentStarted.Equal(startedAt)
	if sameInstance && d.scrobbled {
		d.mu.Unlock()
		return
	}
	if !sameInstance {
		d.currentSongID = song.ID
		d.currentStarted = startedAt
	}
	d.scrobbled = true
	d.mu.Unlock()

	track := trackFromSong(song)
	d.launch(func() {
		result := d.client.Scrobble(context.Background(), sessionKey, track, startedAt)
		if !result.Success {
			log.Warn().Str("track", track.Name).Str("reason", result.Message).Msg("scrobble: submission failed")
		}
	})
}

func (d *Dispatcher) scrobbleConfig() (sessionKey string, thresholdPercent int, ok bool) {
	settings, err := d.settings.GetLastFM(context.Background())
	if err != nil {
		log.Debug().Err(err).Msg("scrobble: read settings")
		return "", 0, false
	}
	if !settings.ScrobbleEnabled || settings.SessionKey == nil {
		return "", 0, false
	}

	return *settings.SessionKey, settings.ScrobbleThreshold, true
}

func trackFromSong(song library.Song) lastfm.Track {
	return lastfm.Track{
		Artist: song.Artist,
		Name:   song.Name,
	}
}
