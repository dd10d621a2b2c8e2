package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrPlaylistNotFound = errors.New("playlist not found")

var ErrFavouritesProtected = errors.New("the favourites playlist cannot be removed")

// FavouritesPlaylistID is reserved for the implicit Favourites playlist,
// seeded on first initialization.
const FavouritesPlaylistID int64 = 1

const defaultPlaylistDescription = "A collection of your favourite tracks."

type Playlist struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Cover       *string `json:"cover,omitempty"`
}

type PlaylistWithSongs struct {
	Playlist
	Songs []Song `json:"songs"`
}

// AddSongResult reports whether the song was added or was already a member.
type AddSongResult struct {
	Added         bool `json:"added"`
	AlreadyExists bool `json:"alreadyExists"`
}

type PlaylistRepository struct {
	db *sql.DB
}

func NewPlaylistRepository(database *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: database}
}

func (r *PlaylistRepository) List(ctx context.Context) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, cover
		FROM playlists
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, name COLLATE NOCASE
	`, FavouritesPlaylistID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]Playlist, 0)
	for rows.Next() {
		var playlist Playlist
		var cover sql.NullString
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.Description, &cover); err != nil {
			return nil, fmt.Errorf("scan playlist row: %w", err)
		}
		playlist.Cover = nullableStringValue(cover)
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist rows: %w", err)
	}

	return playlists, nil
}

func (r *PlaylistRepository) Create(ctx context.Context, name string, description string, cover string) (Playlist, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Playlist{}, errors.New("playlist name is required")
	}

	trimmedDescription := strings.TrimSpace(description)
	if trimmedDescription == "" {
		trimmedDescription = defaultPlaylistDescription
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO playlists (name, description, cover)
		VALUES (?, ?, ?)
	`, trimmedName, trimmedDescription, nullableArg(cover))
	if err != nil {
		return Playlist{}, fmt.Errorf("insert playlist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Playlist{}, fmt.Errorf("read playlist id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *PlaylistRepository) GetByID(ctx context.Context, id int64) (Playlist, error) {
	var playlist Playlist
	var cover sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, cover
		FROM playlists
		WHERE id = ?
	`, id).Scan(&playlist.ID, &playlist.Name, &playlist.Description, &cover)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrPlaylistNotFound
		}
		return Playlist{}, fmt.Errorf("get playlist %d: %w", id, err)
	}

	playlist.Cover = nullableStringValue(cover)
	return playlist, nil
}

func (r *PlaylistRepository) GetWithSongs(ctx context.Context, id int64) (PlaylistWithSongs, error) {
	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return PlaylistWithSongs{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.file_path, s.name, s.artist, s.duration, s.album_id
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.id
	`, id)
	if err != nil {
		return PlaylistWithSongs{}, fmt.Errorf("list playlist songs %d: %w", id, err)
	}
	defer rows.Close()

	songs, err := collectSongs(rows)
	if err != nil {
		return PlaylistWithSongs{}, err
	}

	return PlaylistWithSongs{Playlist: playlist, Songs: songs}, nil
}

func (r *PlaylistRepository) Update(ctx context.Context, id int64, name string, description string, cover string) (Playlist, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return Playlist{}, errors.New("playlist name is required")
	}

	trimmedDescription := strings.TrimSpace(description)
	if trimmedDescription == "" {
		trimmedDescription = defaultPlaylistDescription
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE playlists
		SET name = ?, description = ?, cover = ?
		WHERE id = ?
	`, trimmedName, trimmedDescription, nullableArg(cover), id)
	if err != nil {
		return Playlist{}, fmt.Errorf("update playlist %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Playlist{}, fmt.Errorf("read updated playlist count: %w", err)
	}
	if rowsAffected == 0 {
		return Playlist{}, ErrPlaylistNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PlaylistRepository) Delete(ctx context.Context, id int64) error {
	if id == FavouritesPlaylistID {
		return ErrFavouritesProtected
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete playlist %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted playlist count: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlaylistNotFound
	}

	return nil
}

// AddSong relies on the UNIQUE(playlist_id, song_id) constraint for
// duplicate prevention; a constraint violation is the already-exists
// signal, not an error.
func (r *PlaylistRepository) AddSong(ctx context.Context, playlistID int64, songID int64) (AddSongResult, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id)
		VALUES (?, ?)
	`, playlistID, songID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return AddSongResult{AlreadyExists: true}, nil
		}
		return AddSongResult{}, fmt.Errorf("add song %d to playlist %d: %w", songID, playlistID, err)
	}

	return AddSongResult{Added: true}, nil
}

func (r *PlaylistRepository) RemoveSong(ctx context.Context, playlistID int64, songID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM playlist_songs
		WHERE playlist_id = ? AND song_id = ?
	`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("remove song %d from playlist %d: %w", songID, playlistID, err)
	}

	return nil
}

func (r *PlaylistRepository) ContainsSong(ctx context.Context, playlistID int64, songID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM playlist_songs
		WHERE playlist_id = ? AND song_id = ?
	`, playlistID, songID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check playlist %d membership for song %d: %w", playlistID, songID, err)
	}

	return count > 0, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullableArg(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	return trimmed
}
