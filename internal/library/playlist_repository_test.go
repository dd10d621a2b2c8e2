package library

import (
	"context"
	"errors"
	"testing"
)

func TestAddSongReportsDuplicateMembership(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	playlists := NewPlaylistRepository(database)
	ctx := context.Background()

	albumID := insertAlbumForTest(t, database, "First Steps", "The Openers", 2021)
	songID := insertSongForTest(t, database, albumID, "Track One", "The Openers", 180)

	playlist, err := playlists.Create(ctx, "Road Trip", "", "")
	if err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	if playlist.Description == "" {
		t.Fatalf("expected a default description for an empty one")
	}

	first, err := playlists.AddSong(ctx, playlist.ID, songID)
	if err != nil {
		t.Fatalf("add song: %v", err)
	}
	if !first.Added || first.AlreadyExists {
		t.Fatalf("expected first add to insert, got %+v", first)
	}

	second, err := playlists.AddSong(ctx, playlist.ID, songID)
	if err != nil {
		t.Fatalf("add song again: %v", err)
	}
	if second.Added || !second.AlreadyExists {
		t.Fatalf("expected second add to report existing membership, got %+v", second)
	}

	withSongs, err := playlists.GetWithSongs(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("get playlist with songs: %v", err)
	}
	if len(withSongs.Songs) != 1 {
		t.Fatalf("expected 1 playlist song, got %d", len(withSongs.Songs))
	}
}

func TestFavouritesPlaylistCannotBeDeleted(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	playlists := NewPlaylistRepository(database)
	ctx := context.Background()

	if err := playlists.Delete(ctx, FavouritesPlaylistID); !errors.Is(err, ErrFavouritesProtected) {
		t.Fatalf("expected ErrFavouritesProtected, got %v", err)
	}

	favourites, err := playlists.GetByID(ctx, FavouritesPlaylistID)
	if err != nil {
		t.Fatalf("favourites playlist missing: %v", err)
	}
	if favourites.Name != "Favourites" {
		t.Fatalf("expected seeded favourites playlist, got %q", favourites.Name)
	}
}

func TestRemoveSongAndContainsSong(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	playlists := NewPlaylistRepository(database)
	ctx := context.Background()

	albumID := insertAlbumForTest(t, database, "Membership", "Testers", nil)
	songID := insertSongForTest(t, database, albumID, "In And Out", "Testers", 120)

	if _, err := playlists.AddSong(ctx, FavouritesPlaylistID, songID); err != nil {
		t.Fatalf("add favourite: %v", err)
	}

	contains, err := playlists.ContainsSong(ctx, FavouritesPlaylistID, songID)
	if err != nil {
		t.Fatalf("contains song: %v", err)
	}
	if !contains {
		t.Fatalf("expected song to be a favourite")
	}

	if err := playlists.RemoveSong(ctx, FavouritesPlaylistID, songID); err != nil {
		t.Fatalf("remove song: %v", err)
	}

	contains, err = playlists.ContainsSong(ctx, FavouritesPlaylistID, songID)
	if err != nil {
		t.Fatalf("contains song after removal: %v", err)
	}
	if contains {
		t.Fatalf("expected membership to be gone")
	}
}

func TestDeletePlaylistRequiresExistingRow(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	playlists := NewPlaylistRepository(database)

	if err := playlists.Delete(context.Background(), 9999); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestUpdatePlaylistRejectsEmptyName(t *testing.T) {
	t.Parallel()

	database := newTestDatabase(t)
	playlists := NewPlaylistRepository(database)
	ctx := context.Background()

	playlist, err := playlists.Create(ctx, "Before", "desc", "")
	if err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if _, err := playlists.Update(ctx, playlist.ID, "   ", "desc", ""); err == nil {
		t.Fatalf("expected an error for a blank name")
	}

	updated, err := playlists.Update(ctx, playlist.ID, "After", "", "")
	if err != nil {
		t.Fatalf("update playlist: %v", err)
	}
	if updated.Name != "After" {
		t.Fatalf("expected renamed playlist, got %q", updated.Name)
	}
}
