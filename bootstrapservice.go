package main

import (
	"context"

	"github.com/zevinDev/wora/internal/library"
	"github.com/zevinDev/wora/internal/player"
	"github.com/zevinDev/wora/internal/scanner"
)

const defaultBootstrapAlbumsLimit = 100

// StartupSnapshot is everything the frontend needs to render its first
// frame in one round trip.
type StartupSnapshot struct {
	Settings    library.Settings   `json:"settings"`
	Playlists   []library.Playlist `json:"playlists"`
	AlbumsPage  library.AlbumsPage `json:"albumsPage"`
	PlayerState player.State       `json:"playerState"`
	ScanStatus  scanner.Status     `json:"scanStatus"`
}

type BootstrapService struct {
	settings  *library.SettingsRepository
	playlists *library.PlaylistRepository
	albums    *library.AlbumRepository
	player    *player.Service
	scanner   *scanner.Service
}

func NewBootstrapService(
	settings *library.SettingsRepository,
	playlists *library.PlaylistRepository,
	albums *library.AlbumRepository,
	playerService *player.Service,
	scanService *scanner.Service,
) *BootstrapService {
	return &BootstrapService{
		settings:  settings,
		playlists: playlists,
		albums:    albums,
		player:    playerService,
		scanner:   scanService,
	}
}

func (s *BootstrapService) GetInitialState(albumsLimit int) (StartupSnapshot, error) {
	if albumsLimit <= 0 {
		albumsLimit = defaultBootstrapAlbumsLimit
	}

	ctx := context.Background()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return StartupSnapshot{}, err
	}

	playlists, err := s.playlists.List(ctx)
	if err != nil {
		return StartupSnapshot{}, err
	}

	albumsPage, err := s.albums.ListPageWithDuration(ctx, albumsLimit, 0)
	if err != nil {
		return StartupSnapshot{}, err
	}

	return StartupSnapshot{
		Settings:    settings,
		Playlists:   playlists,
		AlbumsPage:  albumsPage,
		PlayerState: s.player.GetState(),
		ScanStatus:  s.scanner.GetStatus(),
	}, nil
}
