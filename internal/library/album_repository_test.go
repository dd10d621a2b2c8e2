package library

import (
	"context"
	"errors"
	"testing"
)

func TestListPageWithDurationSumsSongs(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	albums := NewAlbumRepository(database)
	ctx := context.Background()

	withSongs := insertAlbumForTest(t, database, "Full Album", "Band A", 2019)
	insertSongForTest(t, database, withSongs, "One", "Band A", 100)
	insertSongForTest(t, database, withSongs, "Two", "Band A", 150)
	insertAlbumForTest(t, database, "Ghost Album", "Band B", nil)

	page, err := albums.ListPageWithDuration(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list albums: %v", err)
	}
	if page.Page.Total != 2 {
		t.Fatalf("expected 2 albums, got %d", page.Page.Total)
	}

	byName := make(map[string]AlbumSummary, len(page.Items))
	for _, album := range page.Items {
		byName[album.Name] = album
	}

	full, ok := byName["Full Album"]
	if !ok {
		t.Fatalf("missing Full Album in %+v", page.Items)
	}
	if full.SongCount != 2 || full.Duration != 250 {
		t.Fatalf("expected 2 songs / 250s, got %d songs / %ds", full.SongCount, full.Duration)
	}
	if full.Year == nil || *full.Year != 2019 {
		t.Fatalf("expected year 2019, got %v", full.Year)
	}

	ghost, ok := byName["Ghost Album"]
	if !ok {
		t.Fatalf("missing Ghost Album in %+v", page.Items)
	}
	if ghost.SongCount != 0 || ghost.Duration != 0 {
		t.Fatalf("expected empty album totals to be zero, got %+v", ghost)
	}
	if ghost.Year != nil {
		t.Fatalf("expected missing year to stay nil, got %v", *ghost.Year)
	}
}

func TestGetWithSongsOrdersByFilePath(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	albums := NewAlbumRepository(database)
	ctx := context.Background()

	albumID := insertAlbumForTest(t, database, "Ordered", "Band C", nil)
	insertSongForTest(t, database, albumID, "b-second", "Band C", 90)
	insertSongForTest(t, database, albumID, "a-first", "Band C", 80)

	detail, err := albums.GetWithSongs(ctx, albumID)
	if err != nil {
		t.Fatalf("get album: %v", err)
	}
	if len(detail.Songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(detail.Songs))
	}
	if detail.Songs[0].Name != "a-first" {
		t.Fatalf("expected file-path order, got %q first", detail.Songs[0].Name)
	}

	if _, err := albums.GetWithSongs(ctx, 9999); !errors.Is(err, ErrAlbumNotFound) {
		t.Fatalf("expected ErrAlbumNotFound, got %v", err)
	}
}

func TestGetArtistWithAlbumsCollectsContributions(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	albums := NewAlbumRepository(database)
	ctx := context.Background()

	ownAlbum := insertAlbumForTest(t, database, "Own Record", "Solo Act", 2020)
	insertSongForTest(t, database, ownAlbum, "Own Song", "Solo Act", 200)

	compilation := insertAlbumForTest(t, database, "Various Hits", "Various Artists", 2022)
	insertSongForTest(t, database, compilation, "Guest Spot", "Solo Act", 180)
	insertSongForTest(t, database, compilation, "Someone Else", "Other Act", 175)

	artist, err := albums.GetArtistWithAlbums(ctx, "solo act")
	if err != nil {
		t.Fatalf("get artist: %v", err)
	}
	if artist.SongCount != 2 {
		t.Fatalf("expected 2 artist songs, got %d", artist.SongCount)
	}
	if len(artist.Albums) != 2 {
		t.Fatalf("expected the artist's album plus the compilation, got %d", len(artist.Albums))
	}

	if _, err := albums.GetArtistWithAlbums(ctx, "Nobody Here"); !errors.Is(err, ErrArtistNotFound) {
		t.Fatalf("expected ErrArtistNotFound, got %v", err)
	}
}
