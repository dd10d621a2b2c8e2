package main

import (
	"context"
	"embed"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/zevinDev/wora/internal/artwork"
	"github.com/zevinDev/wora/internal/config"
	"github.com/zevinDev/wora/internal/db"
	"github.com/zevinDev/wora/internal/lastfm"
	"github.com/zevinDev/wora/internal/library"
	"github.com/zevinDev/wora/internal/player"
	"github.com/zevinDev/wora/internal/scanner"
	"github.com/zevinDev/wora/internal/scrobble"
)

//go:embed all:frontend/dist
var assets embed.FS

// Last.fm credentials are baked in at build time:
//
//	go build -ldflags "-X main.lastFMAPIKey=... -X main.lastFMSecret=..."
var (
	lastFMAPIKey string
	lastFMSecret string
)

func init() {
	application.RegisterEvent[scanner.Progress](scanner.EventProgress)
	application.RegisterEvent[player.State](player.EventStateChanged)
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if os.Getenv("WORA_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	paths, err := config.ResolvePaths("wora")
	if err != nil {
		log.Fatal().Err(err).Msg("resolve app paths")
	}

	sqliteDB, err := db.Bootstrap(paths.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open library database")
	}
	defer sqliteDB.Close()

	songRepo := library.NewSongRepository(sqliteDB)
	albumRepo := library.NewAlbumRepository(sqliteDB)
	playlistRepo := library.NewPlaylistRepository(sqliteDB)
	settingsRepo := library.NewSettingsRepository(sqliteDB)

	artResolver := artwork.NewResolver(paths.ArtCacheDir)
	scannerDomain := scanner.NewService(sqliteDB, songRepo, artResolver)
	playerDomain := player.NewService(songRepo)
	defer playerDomain.Close()

	var lastFMClient *lastfm.Client
	if lastFMAPIKey != "" && lastFMSecret != "" {
		lastFMClient = lastfm.NewClient(lastFMAPIKey, lastFMSecret)
		playerDomain.AddListener(scrobble.NewDispatcher(lastFMClient, settingsRepo))
	} else {
		log.Info().Msg("last.fm credentials not set, scrobbling disabled")
	}

	libraryService := NewLibraryService(songRepo, albumRepo)
	scannerDomain.SetOnLibraryChanged(libraryService.InvalidateCaches)

	app := application.New(application.Options{
		Name:        "Wora",
		Description: "Desktop music player",
		Services: []application.Service{
			application.NewService(NewBootstrapService(settingsRepo, playlistRepo, albumRepo, playerDomain, scannerDomain)),
			application.NewService(libraryService),
			application.NewService(NewPlaylistService(playlistRepo)),
			application.NewService(NewScannerService(scannerDomain, settingsRepo)),
			application.NewService(NewSettingsService(settingsRepo, paths.UploadsDir)),
			application.NewService(NewPlayerService(playerDomain)),
			application.NewService(NewLastFMService(lastFMClient, settingsRepo, songRepo)),
			application.NewServiceWithOptions(NewCoverService(paths.ArtCacheDir), application.ServiceOptions{
				Route: "/covers",
			}),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	scannerDomain.SetEmitter(func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	})
	playerDomain.SetEmitter(func(eventName string, payload any) {
		app.Event.Emit(eventName, payload)
	})

	if folder, err := settingsRepo.MusicFolder(context.Background()); err == nil {
		if err := scannerDomain.TriggerScan(folder, true); err != nil {
			log.Warn().Err(err).Msg("startup scan not started")
		}
		if err := scannerDomain.StartWatching(folder); err != nil {
			log.Warn().Err(err).Msg("library watcher disabled")
		}
	}
	defer scannerDomain.StopWatching()

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title: "Wora",
		Mac: application.MacWindow{
			InvisibleTitleBarHeight: 50,
			Backdrop:                application.MacBackdropTranslucent,
			TitleBar:                application.MacTitleBarHiddenInset,
		},
		BackgroundColour: application.NewRGB(16, 16, 20),
		URL:              "/",
	})

	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("run application")
	}
}
