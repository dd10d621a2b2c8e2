package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrAlbumNotFound = errors.New("album not found")

var ErrArtistNotFound = errors.New("artist not found")

type Album struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Artist string  `json:"artist"`
	Year   *int    `json:"year,omitempty"`
	Cover  *string `json:"cover,omitempty"`
}

type AlbumSummary struct {
	Album
	SongCount int `json:"songCount"`
	// Duration is the summed song duration in seconds.
	Duration int `json:"duration"`
}

type AlbumWithSongs struct {
	Album
	Songs []Song `json:"songs"`
}

type ArtistWithAlbums struct {
	Name      string         `json:"name"`
	SongCount int            `json:"songCount"`
	Albums    []AlbumSummary `json:"albums"`
}

type AlbumsPage struct {
	Items []AlbumSummary `json:"items"`
	Page  PageInfo       `json:"page"`
}

type AlbumRepository struct {
	db *sql.DB
}

const defaultAlbumLimit = 24

const maxAlbumLimit = 200

func NewAlbumRepository(database *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: database}
}

func (r *AlbumRepository) ListPageWithDuration(ctx context.Context, limit int, offset int) (AlbumsPage, error) {
	if limit <= 0 {
		limit = defaultAlbumLimit
	}
	if limit > maxAlbumLimit {
		limit = maxAlbumLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM albums").Scan(&total); err != nil {
		return AlbumsPage{}, fmt.Errorf("count albums: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			a.id,
			a.name,
			a.artist,
			a.year,
			a.cover,
			COALESCE(totals.song_count, 0) AS song_count,
			COALESCE(totals.duration, 0) AS duration
		FROM albums a
		LEFT JOIN (
			SELECT album_id, COUNT(1) AS song_count, SUM(duration) AS duration
			FROM songs
			GROUP BY album_id
		) totals ON totals.album_id = a.id
		ORDER BY a.name COLLATE NOCASE, a.id
		LIMIT ?
		OFFSET ?
	`, limit, offset)
	if err != nil {
		return AlbumsPage{}, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	albums, err := collectAlbumSummaries(rows)
	if err != nil {
		return AlbumsPage{}, err
	}

	return AlbumsPage{
		Items: albums,
		Page: PageInfo{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	}, nil
}

func (r *AlbumRepository) GetWithSongs(ctx context.Context, id int64) (AlbumWithSongs, error) {
	var detail AlbumWithSongs
	var year sql.NullInt64
	var cover sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, artist, year, cover
		FROM albums
		WHERE id = ?
	`, id).Scan(&detail.ID, &detail.Name, &detail.Artist, &year, &cover)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AlbumWithSongs{}, ErrAlbumNotFound
		}
		return AlbumWithSongs{}, fmt.Errorf("get album %d: %w", id, err)
	}

	detail.Year = nullableIntValue(year)
	detail.Cover = nullableStringValue(cover)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, file_path, name, artist, duration, album_id
		FROM songs
		WHERE album_id = ?
		ORDER BY file_path
	`, id)
	if err != nil {
		return AlbumWithSongs{}, fmt.Errorf("list album songs %d: %w", id, err)
	}
	defer rows.Close()

	songs, err := collectSongs(rows)
	if err != nil {
		return AlbumWithSongs{}, err
	}

	detail.Songs = songs
	return detail, nil
}

func (r *AlbumRepository) GetArtistWithAlbums(ctx context.Context, name string) (ArtistWithAlbums, error) {
	artistName := strings.TrimSpace(name)
	if artistName == "" {
		return ArtistWithAlbums{}, errors.New("artist name is required")
	}

	var songCount int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM songs
		WHERE LOWER(artist) = LOWER(?)
	`, artistName).Scan(&songCount); err != nil {
		return ArtistWithAlbums{}, fmt.Errorf("count artist songs for %q: %w", artistName, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			a.id,
			a.name,
			a.artist,
			a.year,
			a.cover,
			COALESCE(totals.song_count, 0) AS song_count,
			COALESCE(totals.duration, 0) AS duration
		FROM albums a
		LEFT JOIN (
			SELECT album_id, COUNT(1) AS song_count, SUM(duration) AS duration
			FROM songs
			GROUP BY album_id
		) totals ON totals.album_id = a.id
		WHERE LOWER(a.artist) = LOWER(?)
		   OR a.id IN (SELECT album_id FROM songs WHERE LOWER(artist) = LOWER(?))
		ORDER BY CASE WHEN a.year IS NULL THEN 1 ELSE 0 END, a.year DESC, a.name COLLATE NOCASE
	`, artistName, artistName)
	if err != nil {
		return ArtistWithAlbums{}, fmt.Errorf("list artist albums for %q: %w", artistName, err)
	}
	defer rows.Close()

	albums, err := collectAlbumSummaries(rows)
	if err != nil {
		return ArtistWithAlbums{}, err
	}

	if songCount == 0 && len(albums) == 0 {
		return ArtistWithAlbums{}, ErrArtistNotFound
	}

	return ArtistWithAlbums{
		Name:      artistName,
		SongCount: songCount,
		Albums:    albums,
	}, nil
}

func collectAlbumSummaries(rows *sql.Rows) ([]AlbumSummary, error) {
	albums := make([]AlbumSummary, 0)
	for rows.Next() {
		var album AlbumSummary
		var year sql.NullInt64
		var cover sql.NullString
		if err := rows.Scan(
			&album.ID,
			&album.Name,
			&album.Artist,
			&year,
			&cover,
			&album.SongCount,
			&album.Duration,
		); err != nil {
			return nil, fmt.Errorf("scan album row: %w", err)
		}
		album.Year = nullableIntValue(year)
		album.Cover = nullableStringValue(cover)
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate album rows: %w", err)
	}

	return albums, nil
}

func nullableIntValue(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}

	intValue := int(value.Int64)
	return &intValue
}

func nullableStringValue(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}

	trimmed := strings.TrimSpace(value.String)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
