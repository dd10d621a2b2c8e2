package main

import (
	"context"
	"errors"

	"github.com/zevinDev/wora/internal/lastfm"
	"github.com/zevinDev/wora/internal/library"
)

type LastFMService struct {
	client   *lastfm.Client
	settings *library.SettingsRepository
	songs    *library.SongRepository
}

func NewLastFMService(client *lastfm.Client, settings *library.SettingsRepository, songs *library.SongRepository) *LastFMService {
	return &LastFMService{client: client, settings: settings, songs: songs}
}

func (s *LastFMService) GetLastFMSettings() (library.LastFMSettings, error) {
	return s.settings.GetLastFM(context.Background())
}

// Authenticate exchanges a user-authorized token for a session and stores
// it. The session key never leaves the settings row.
func (s *LastFMService) Authenticate(token string) (library.LastFMSettings, error) {
	if s.client == nil {
		return library.LastFMSettings{}, errors.New("last.fm is not configured")
	}

	ctx := context.Background()
	session, err := s.client.GetSession(ctx, token)
	if err != nil {
		return library.LastFMSettings{}, err
	}

	if err := s.settings.SetLastFMSession(ctx, session.Username, session.SessionKey); err != nil {
		return library.LastFMSettings{}, err
	}

	return s.settings.GetLastFM(ctx)
}

func (s *LastFMService) Disconnect() error {
	return s.settings.ClearLastFMSession(context.Background())
}

func (s *LastFMService) UpdateScrobbleSettings(enabled bool, thresholdPercent int) (library.LastFMSettings, error) {
	ctx := context.Background()
	if err := s.settings.UpdateScrobbleSettings(ctx, enabled, thresholdPercent); err != nil {
		return library.LastFMSettings{}, err
	}

	return s.settings.GetLastFM(ctx)
}

// LoveTrack marks a song loved or unloved on Last.fm. Failures come back as
// a Result, never as an error, so the UI can surface them inline.
func (s *LastFMService) LoveTrack(songID int64, loved bool) (lastfm.Result, error) {
	if s.client == nil {
		return lastfm.Result{Success: false, Message: "last.fm is not configured"}, nil
	}

	ctx := context.Background()
	settings, err := s.settings.GetLastFM(ctx)
	if err != nil {
		return lastfm.Result{}, err
	}
	if settings.SessionKey == nil {
		return lastfm.Result{Success: false, Message: "not connected to last.fm"}, nil
	}

	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return lastfm.Result{}, err
	}

	return s.client.Love(ctx, *settings.SessionKey, lastfm.Track{
		Artist: song.Artist,
		Name:   song.Name,
	}, loved), nil
}
