package main

import (
	"context"
	"strings"

	"github.com/zevinDev/wora/internal/library"
	"github.com/zevinDev/wora/internal/viewcache"
)

// SongsView is a cached, sorted slice of the song library plus the
// pagination cursor for fetching the next page.
type SongsView struct {
	Items      []library.Song `json:"items"`
	NextOffset int            `json:"nextOffset"`
	Total      int            `json:"total"`
	Query      string         `json:"query,omitempty"`
}

type AlbumsView struct {
	Items      []library.AlbumSummary `json:"items"`
	NextOffset int                    `json:"nextOffset"`
	Total      int                    `json:"total"`
}

type LibraryService struct {
	songs  *library.SongRepository
	albums *library.AlbumRepository

	songCache  *viewcache.Collection[library.Song]
	albumCache *viewcache.Collection[library.AlbumSummary]
}

func NewLibraryService(songs *library.SongRepository, albums *library.AlbumRepository) *LibraryService {
	songCache := viewcache.New(
		func(song library.Song) int64 { return song.ID },
		map[string]viewcache.Comparator[library.Song]{
			"name":     viewcache.StringField(func(song library.Song) string { return song.Name }),
			"artist":   viewcache.StringField(func(song library.Song) string { return song.Artist }),
			"duration": viewcache.NumberField(func(song library.Song) int { return song.Duration }),
		},
	)

	albumCache := viewcache.New(
		func(album library.AlbumSummary) int64 { return album.ID },
		map[string]viewcache.Comparator[library.AlbumSummary]{
			"name":     viewcache.StringField(func(album library.AlbumSummary) string { return album.Name }),
			"artist":   viewcache.StringField(func(album library.AlbumSummary) string { return album.Artist }),
			"year":     viewcache.NullableNumberField(func(album library.AlbumSummary) *int { return album.Year }),
			"duration": viewcache.NumberField(func(album library.AlbumSummary) int { return album.Duration }),
		},
	)

	return &LibraryService{
		songs:      songs,
		albums:     albums,
		songCache:  songCache,
		albumCache: albumCache,
	}
}

// GetSongs returns the cached song view, fetching the requested page from
// the store and merging it in. Stale caches are rebuilt from scratch.
func (s *LibraryService) GetSongs(limit int, offset int) (SongsView, error) {
	ctx := context.Background()

	if s.songCache.Stale() {
		s.songCache.Invalidate()
		offset = 0
	}

	page, err := s.songs.ListPage(ctx, limit, offset)
	if err != nil {
		return SongsView{}, err
	}
	s.songCache.MergePage(page.Items, page.Page.Offset+len(page.Items))

	return SongsView{
		Items:      s.songCache.Displayed(),
		NextOffset: s.songCache.Offset(),
		Total:      page.Page.Total,
		Query:      s.songCache.Query(),
	}, nil
}

// SearchSongs queries the store first; when the store returns nothing the
// cached full set is filtered by substring as a fallback.
func (s *LibraryService) SearchSongs(query string) (SongsView, error) {
	serverResults, err := s.songs.Search(context.Background(), query, 0)
	if err != nil {
		return SongsView{}, err
	}

	items := s.songCache.Search(query, serverResults, func(song library.Song, lowered string) bool {
		return strings.Contains(strings.ToLower(song.Name), lowered) ||
			strings.Contains(strings.ToLower(song.Artist), lowered)
	})

	return SongsView{
		Items:      items,
		NextOffset: s.songCache.Offset(),
		Total:      len(items),
		Query:      s.songCache.Query(),
	}, nil
}

func (s *LibraryService) SetSongSort(field string, direction string) SongsView {
	items := s.songCache.SetSort(field, viewcache.Direction(direction))
	return SongsView{
		Items:      items,
		NextOffset: s.songCache.Offset(),
		Total:      len(items),
		Query:      s.songCache.Query(),
	}
}

func (s *LibraryService) GetAlbums(limit int, offset int) (AlbumsView, error) {
	ctx := context.Background()

	if s.albumCache.Stale() {
		s.albumCache.Invalidate()
		offset = 0
	}

	page, err := s.albums.ListPageWithDuration(ctx, limit, offset)
	if err != nil {
		return AlbumsView{}, err
	}
	s.albumCache.MergePage(page.Items, page.Page.Offset+len(page.Items))

	return AlbumsView{
		Items:      s.albumCache.Displayed(),
		NextOffset: s.albumCache.Offset(),
		Total:      page.Page.Total,
	}, nil
}

func (s *LibraryService) SetAlbumSort(field string, direction string) AlbumsView {
	items := s.albumCache.SetSort(field, viewcache.Direction(direction))
	return AlbumsView{
		Items:      items,
		NextOffset: s.albumCache.Offset(),
		Total:      len(items),
	}
}

func (s *LibraryService) GetAlbumWithSongs(id int64) (library.AlbumWithSongs, error) {
	return s.albums.GetWithSongs(context.Background(), id)
}

func (s *LibraryService) GetArtistWithAlbums(name string) (library.ArtistWithAlbums, error) {
	return s.albums.GetArtistWithAlbums(context.Background(), name)
}

func (s *LibraryService) GetSong(id int64) (library.Song, error) {
	return s.songs.GetByID(context.Background(), id)
}

// InvalidateCaches drops both view caches; the scanner calls this after a
// scan commits changes.
func (s *LibraryService) InvalidateCaches() {
	s.songCache.Invalidate()
	s.albumCache.Invalidate()
}
