package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrSongNotFound = errors.New("song not found")

type Song struct {
	ID       int64  `json:"id"`
	FilePath string `json:"filePath"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
	AlbumID  int64  `json:"albumId"`
}

type PageInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SongsPage struct {
	Items []Song   `json:"items"`
	Page  PageInfo `json:"page"`
}

type SongRepository struct {
	db *sql.DB
}

const defaultSongLimit = 50

const maxSongLimit = 500

func NewSongRepository(database *sql.DB) *SongRepository {
	return &SongRepository{db: database}
}

func (r *SongRepository) ListPage(ctx context.Context, limit int, offset int) (SongsPage, error) {
	limit, offset = normalizeSongPagination(limit, offset)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM songs").Scan(&total); err != nil {
		return SongsPage{}, fmt.Errorf("count songs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_path, name, artist, duration, album_id
		FROM songs
		ORDER BY name COLLATE NOCASE, id
		LIMIT ?
		OFFSET ?
	`, limit, offset)
	if err != nil {
		return SongsPage{}, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	songs, err := collectSongs(rows)
	if err != nil {
		return SongsPage{}, err
	}

	return SongsPage{
		Items: songs,
		Page: PageInfo{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	}, nil
}

func (r *SongRepository) Search(ctx context.Context, query string, limit int) ([]Song, error) {
	pattern := makeSearchPattern(query)
	if pattern == "" {
		return []Song{}, nil
	}

	if limit <= 0 || limit > maxSongLimit {
		limit = defaultSongLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_path, name, artist, duration, album_id
		FROM songs
		WHERE LOWER(name) LIKE ? OR LOWER(artist) LIKE ?
		ORDER BY name COLLATE NOCASE, id
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search songs %q: %w", query, err)
	}
	defer rows.Close()

	return collectSongs(rows)
}

func (r *SongRepository) GetByID(ctx context.Context, id int64) (Song, error) {
	var song Song
	err := r.db.QueryRowContext(ctx, `
		SELECT id, file_path, name, artist, duration, album_id
		FROM songs
		WHERE id = ?
	`, id).Scan(&song.ID, &song.FilePath, &song.Name, &song.Artist, &song.Duration, &song.AlbumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Song{}, ErrSongNotFound
		}
		return Song{}, fmt.Errorf("get song %d: %w", id, err)
	}

	return song, nil
}

// ListPaths loads every stored file path once, as a set, for O(1)
// membership tests during reconciliation.
func (r *SongRepository) ListPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT file_path FROM songs")
	if err != nil {
		return nil, fmt.Errorf("list song paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan song path: %w", err)
		}
		paths[path] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song paths: %w", err)
	}

	return paths, nil
}

func collectSongs(rows *sql.Rows) ([]Song, error) {
	songs := make([]Song, 0)
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.FilePath, &song.Name, &song.Artist, &song.Duration, &song.AlbumID); err != nil {
			return nil, fmt.Errorf("scan song row: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song rows: %w", err)
	}

	return songs, nil
}

func normalizeSongPagination(limit int, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultSongLimit
	}
	if limit > maxSongLimit {
		limit = maxSongLimit
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

func makeSearchPattern(search string) string {
	trimmed := strings.TrimSpace(search)
	if trimmed == "" {
		return ""
	}

	return "%" + strings.ToLower(trimmed) + "%"
}
