package main

import (
	"context"

	"github.com/zevinDev/wora/internal/library"
)

type PlaylistService struct {
	playlists *library.PlaylistRepository
}

func NewPlaylistService(playlists *library.PlaylistRepository) *PlaylistService {
	return &PlaylistService{playlists: playlists}
}

func (s *PlaylistService) GetPlaylists() ([]library.Playlist, error) {
	return s.playlists.List(context.Background())
}

func (s *PlaylistService) CreatePlaylist(name string, description string, cover string) (library.Playlist, error) {
	return s.playlists.Create(context.Background(), name, description, cover)
}

func (s *PlaylistService) GetPlaylistWithSongs(id int64) (library.PlaylistWithSongs, error) {
	return s.playlists.GetWithSongs(context.Background(), id)
}

func (s *PlaylistService) UpdatePlaylist(id int64, name string, description string, cover string) (library.Playlist, error) {
	return s.playlists.Update(context.Background(), id, name, description, cover)
}

func (s *PlaylistService) DeletePlaylist(id int64) error {
	return s.playlists.Delete(context.Background(), id)
}

func (s *PlaylistService) AddSongToPlaylist(playlistID int64, songID int64) (library.AddSongResult, error) {
	return s.playlists.AddSong(context.Background(), playlistID, songID)
}

func (s *PlaylistService) RemoveSongFromPlaylist(playlistID int64, songID int64) error {
	return s.playlists.RemoveSong(context.Background(), playlistID, songID)
}

func (s *PlaylistService) AddToFavourites(songID int64) (library.AddSongResult, error) {
	return s.playlists.AddSong(context.Background(), library.FavouritesPlaylistID, songID)
}

func (s *PlaylistService) RemoveFromFavourites(songID int64) error {
	return s.playlists.RemoveSong(context.Background(), library.FavouritesPlaylistID, songID)
}

func (s *PlaylistService) IsFavourite(songID int64) (bool, error) {
	return s.playlists.ContainsSong(context.Background(), library.FavouritesPlaylistID, songID)
}
