package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Settings struct {
	MusicFolder    *string `json:"musicFolder,omitempty"`
	Name           string  `json:"name"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

type LastFMSettings struct {
	Username          *string `json:"username,omitempty"`
	SessionKey        *string `json:"-"`
	ScrobbleEnabled   bool    `json:"scrobbleEnabled"`
	ScrobbleThreshold int     `json:"scrobbleThreshold"`
}

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(database *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: database}
}

func (r *SettingsRepository) Get(ctx context.Context) (Settings, error) {
	var settings Settings
	var musicFolder sql.NullString
	var profilePicture sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT music_folder, name, profile_picture
		FROM settings
		WHERE id = 1
	`).Scan(&musicFolder, &settings.Name, &profilePicture)
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}

	settings.MusicFolder = nullableStringValue(musicFolder)
	settings.ProfilePicture = nullableStringValue(profilePicture)
	return settings, nil
}

func (r *SettingsRepository) MusicFolder(ctx context.Context) (string, error) {
	settings, err := r.Get(ctx)
	if err != nil {
		return "", err
	}
	if settings.MusicFolder == nil {
		return "", errors.New("music folder is not configured")
	}

	return *settings.MusicFolder, nil
}

func (r *SettingsRepository) SetMusicFolder(ctx context.Context, path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return errors.New("music folder path is required")
	}

	if _, err := r.db.ExecContext(ctx, "UPDATE settings SET music_folder = ? WHERE id = 1", trimmed); err != nil {
		return fmt.Errorf("update music folder: %w", err)
	}

	return nil
}

func (r *SettingsRepository) UpdateProfile(ctx context.Context, name string, profilePicture string) error {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return errors.New("profile name is required")
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE settings
		SET name = ?, profile_picture = ?
		WHERE id = 1
	`, trimmedName, nullableArg(profilePicture)); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *SettingsRepository) GetLastFM(ctx context.Context) (LastFMSettings, error) {
	var settings LastFMSettings
	var username sql.NullString
	var sessionKey sql.NullString
	var enabledInt int
	err := r.db.QueryRowContext(ctx, `
		SELECT lastfm_username, lastfm_session_key, scrobble_enabled, scrobble_threshold
		FROM settings
		WHERE id = 1
	`).Scan(&username, &sessionKey, &enabledInt, &settings.ScrobbleThreshold)
	if err != nil {
		return LastFMSettings{}, fmt.Errorf("get lastfm settings: %w", err)
	}

	settings.Username = nullableStringValue(username)
	settings.SessionKey = nullableStringValue(sessionKey)
	settings.ScrobbleEnabled = enabledInt == 1
	return settings, nil
}

func (r *SettingsRepository) SetLastFMSession(ctx context.Context, username string, sessionKey string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(sessionKey) == "" {
		return errors.New("lastfm username and session key are required")
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE settings
		SET lastfm_username = ?, lastfm_session_key = ?
		WHERE id = 1
	`, strings.TrimSpace(username), strings.TrimSpace(sessionKey)); err != nil {
		return fmt.Errorf("update lastfm session: %w", err)
	}

	return nil
}

func (r *SettingsRepository) ClearLastFMSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE settings
		SET lastfm_username = NULL, lastfm_session_key = NULL, scrobble_enabled = 0
		WHERE id = 1
	`); err != nil {
		return fmt.Errorf("clear lastfm session: %w", err)
	}

	return nil
}

func (r *SettingsRepository) UpdateScrobbleSettings(ctx context.Context, enabled bool, thresholdPercent int) error {
	if thresholdPercent < 1 {
		thresholdPercent = 1
	}
	if thresholdPercent > 100 {
		thresholdPercent = 100
	}

	enabledInt := 0
	if enabled {
		enabledInt = 1
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE settings
		SET scrobble_enabled = ?, scrobble_threshold = ?
		WHERE id = 1
	`, enabledInt, thresholdPercent); err != nil {
		return fmt.Errorf("update scrobble settings: %w", err)
	}

	return nil
}
