package scanner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zevinDev/wora/internal/artwork"
	"github.com/zevinDev/wora/internal/library"
)

const EventProgress = "scanner:progress"

const (
	incrementalBatchSize = 10
	fullBatchSize        = 50
	orphanBatchSize      = 50

	// shallowSettleDelay separates the shallow pass (fast first paint)
	// from the exhaustive background walk.
	shallowSettleDelay = 250 * time.Millisecond

	// batchYield keeps long incremental scans from starving other work on
	// the store.
	batchYield = 25 * time.Millisecond
)

type Progress struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
	At      string `json:"at"`
}

type Status struct {
	Running       bool   `json:"running"`
	LastRunAt     string `json:"lastRunAt"`
	LastError     string `json:"lastError,omitempty"`
	LastFilesSeen int    `json:"lastFilesSeen"`
	LastIndexed   int    `json:"lastIndexed"`
	LastSkipped   int    `json:"lastSkipped"`
	LastRemoved   int    `json:"lastRemoved"`
}

type Emitter func(eventName string, payload any)

type scanTotals struct {
	filesSeen int
	indexed   int
	skipped   int
	removed   int
}

// Service reconciles the filesystem against the library store: it walks the
// configured folder, indexes new audio files, refreshes album fields, and
// removes rows whose backing files disappeared. A newly triggered scan
// cancels any scan still in flight.
type Service struct {
	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	done          chan struct{}
	lastRun       time.Time
	lastError     string
	lastFilesSeen int
	lastIndexed   int
	lastSkipped   int
	lastRemoved   int
	emit          Emitter
	onChanged     func()

	db    *sql.DB
	songs *library.SongRepository
	art   *artwork.Resolver

	extract func(path string) (Metadata, bool, error)

	watchMu sync.Mutex
	watcher *folderWatcher
}

func NewService(database *sql.DB, songs *library.SongRepository, art *artwork.Resolver) *Service {
	return &Service{
		db:      database,
		songs:   songs,
		art:     art,
		extract: ExtractMetadata,
	}
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// SetOnLibraryChanged registers a callback invoked after a scan commits
// changes, so cached views can be invalidated.
func (s *Service) SetOnLibraryChanged(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChanged = callback
}

// TriggerScan starts a reconcile of folder. Any scan already in flight is
// cancelled and waited for before the new one begins.
func (s *Service) TriggerScan(folder string, incremental bool) error {
	cleanFolder := filepath.Clean(folder)
	if cleanFolder == "." || cleanFolder == "" {
		return errors.New("music folder is required")
	}

	s.mu.Lock()
	previousCancel := s.cancel
	previousDone := s.done
	s.mu.Unlock()

	if previousCancel != nil {
		previousCancel()
		<-previousDone
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	if s.running {
		// Lost the race against another trigger.
		s.mu.Unlock()
		cancel()
		return errors.New("scan already in progress")
	}
	s.running = true
	s.cancel = cancel
	s.done = done
	s.lastError = ""
	s.mu.Unlock()

	go s.run(ctx, done, cleanFolder, incremental)
	return nil
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:       s.running,
		LastError:     s.lastError,
		LastFilesSeen: s.lastFilesSeen,
		LastIndexed:   s.lastIndexed,
		LastSkipped:   s.lastSkipped,
		LastRemoved:   s.lastRemoved,
	}
	if !s.lastRun.IsZero() {
		status.LastRunAt = s.lastRun.UTC().Format(time.RFC3339)
	}

	return status
}

func (s *Service) run(ctx context.Context, done chan struct{}, folder string, incremental bool) {
	defer close(done)

	totals, err := s.Reconcile(ctx, folder, incremental)
	cancelled := errors.Is(err, context.Canceled)

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	switch {
	case cancelled:
		s.lastError = ""
	case err != nil:
		s.lastError = err.Error()
	default:
		s.lastError = ""
		s.lastRun = time.Now().UTC()
		s.lastFilesSeen = totals.filesSeen
		s.lastIndexed = totals.indexed
		s.lastSkipped = totals.skipped
		s.lastRemoved = totals.removed
	}
	onChanged := s.onChanged
	s.mu.Unlock()

	switch {
	case cancelled:
		s.emitProgress(Progress{
			Phase:   "cancelled",
			Message: "Scan superseded by a newer request",
			Percent: 100,
			Status:  "cancelled",
			At:      time.Now().UTC().Format(time.RFC3339),
		})
	case err != nil:
		s.emitProgress(Progress{
			Phase:   "failed",
			Message: err.Error(),
			Percent: 100,
			Status:  "failed",
			At:      time.Now().UTC().Format(time.RFC3339),
		})
	default:
		s.emitProgress(Progress{
			Phase: "done",
			Message: fmt.Sprintf(
				"Scan complete: %d files seen, %d indexed, %d skipped, %d removed",
				totals.filesSeen,
				totals.indexed,
				totals.skipped,
				totals.removed,
			),
			Percent: 100,
			Status:  "completed",
			At:      time.Now().UTC().Format(time.RFC3339),
		})
		if onChanged != nil {
			onChanged()
		}
	}
}

// Reconcile converges the store to match the filesystem under folder.
// Incremental mode indexes a shallow pass first for fast initial data, then
// walks the full tree in small yielding batches skipping paths already
// known; full mode reprocesses everything in larger batches. Both finish
// with orphan cleanup. Running it twice with no filesystem changes creates
// no rows and deletes nothing.
func (s *Service) Reconcile(ctx context.Context, folder string, incremental bool) (scanTotals, error) {
	s.emitProgress(Progress{
		Phase:   "start",
		Message: fmt.Sprintf("Scanning %s", folder),
		Percent: 5,
		Status:  "running",
		At:      time.Now().UTC().Format(time.RFC3339),
	})

	s.art.ResetSession()

	knownPaths, err := s.songs.ListPaths(ctx)
	if err != nil {
		return scanTotals{}, err
	}

	totals := scanTotals{}
	seenPaths := make(map[string]struct{}, len(knownPaths))

	if incremental {
		shallow := WalkShallow(folder)
		if err := s.processBatch(ctx, shallow, knownPaths, seenPaths, true, &totals); err != nil {
			return scanTotals{}, err
		}

		s.emitProgress(Progress{
			Phase:   "shallow",
			Message: fmt.Sprintf("Initial pass indexed %d files", totals.indexed),
			Percent: 30,
			Status:  "running",
			At:      time.Now().UTC().Format(time.RFC3339),
		})

		select {
		case <-ctx.Done():
			return scanTotals{}, ctx.Err()
		case <-time.After(shallowSettleDelay):
		}

		err = WalkFull(ctx, folder, incrementalBatchSize, func(paths []string) error {
			if err := s.processBatch(ctx, paths, knownPaths, seenPaths, true, &totals); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(batchYield):
			}
			return nil
		})
	} else {
		err = WalkFull(ctx, folder, fullBatchSize, func(paths []string) error {
			return s.processBatch(ctx, paths, knownPaths, seenPaths, false, &totals)
		})
	}
	if err != nil {
		return scanTotals{}, err
	}

	s.emitProgress(Progress{
		Phase:   "cleanup",
		Message: "Removing entries for deleted files",
		Percent: 90,
		Status:  "running",
		At:      time.Now().UTC().Format(time.RFC3339),
	})

	removed, err := s.cleanupOrphans(ctx, seenPaths)
	if err != nil {
		return scanTotals{}, err
	}
	totals.removed = removed

	return totals, nil
}

func (s *Service) processBatch(
	ctx context.Context,
	paths []string,
	knownPaths map[string]struct{},
	seenPaths map[string]struct{},
	skipKnown bool,
	totals *scanTotals,
) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		cleanPath := filepath.Clean(path)
		if _, alreadySeen := seenPaths[cleanPath]; alreadySeen {
			continue
		}
		seenPaths[cleanPath] = struct{}{}
		totals.filesSeen++

		if skipKnown {
			if _, known := knownPaths[cleanPath]; known {
				continue
			}
		}

		indexed, err := s.indexFile(ctx, cleanPath)
		if err != nil {
			return err
		}
		if indexed {
			totals.indexed++
		} else {
			totals.skipped++
		}
	}

	return nil
}

// indexFile runs one file's classify → extract → art → album-upsert →
// song-insert sequence inside a single transaction, so a crash mid-scan
// never leaves a song without its album.
func (s *Service) indexFile(ctx context.Context, path string) (bool, error) {
	metadata, ok, err := s.extract(path)
	if err != nil {
		// Corrupt or unreadable files never abort the surrounding batch.
		log.Warn().Err(err).Str("path", path).Msg("scanner: metadata extraction failed")
		return false, nil
	}
	if !ok {
		log.Debug().Str("path", path).Msg("scanner: no title tag, skipping")
		return false, nil
	}

	coverPath, artErr := s.art.Resolve(filepath.Dir(path), path)
	if artErr != nil {
		log.Warn().Err(artErr).Str("path", path).Msg("scanner: art resolution failed")
		coverPath = ""
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert tx for %s: %w", path, err)
	}
	defer tx.Rollback()

	albumID, err := upsertAlbum(ctx, tx, metadata, coverPath)
	if err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO songs (file_path, name, artist, duration, album_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (file_path) DO NOTHING
	`, path, metadata.Title, metadata.Artist, metadata.DurationSeconds, albumID)
	if err != nil {
		return false, fmt.Errorf("insert song %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert for %s: %w", path, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read inserted song count for %s: %w", path, err)
	}

	return inserted > 0, nil
}

// upsertAlbum matches albums by name alone; the artist falls back to the
// track artist when no album-artist tag exists. Artist, year, and cover are
// refreshed in place when the observed values differ.
func upsertAlbum(ctx context.Context, tx *sql.Tx, metadata Metadata, coverPath string) (int64, error) {
	albumArtist := metadata.AlbumArtist
	if albumArtist == "" {
		albumArtist = metadata.Artist
	}

	var (
		albumID       int64
		currentArtist string
		currentYear   sql.NullInt64
		currentCover  sql.NullString
	)

	err := tx.QueryRowContext(ctx, `
		SELECT id, artist, year, cover
		FROM albums
		WHERE name = ?
		LIMIT 1
	`, metadata.Album).Scan(&albumID, &currentArtist, &currentYear, &currentCover)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get album %q: %w", metadata.Album, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		result, insertErr := tx.ExecContext(ctx, `
			INSERT INTO albums (name, artist, year, cover)
			VALUES (?, ?, ?, ?)
		`, metadata.Album, albumArtist, nullableYear(metadata.Year), nullableCover(coverPath))
		if insertErr != nil {
			return 0, fmt.Errorf("insert album %q: %w", metadata.Album, insertErr)
		}

		insertID, idErr := result.LastInsertId()
		if idErr != nil {
			return 0, fmt.Errorf("read album id %q: %w", metadata.Album, idErr)
		}
		return insertID, nil
	}

	newArtist := currentArtist
	if albumArtist != "" && albumArtist != currentArtist {
		newArtist = albumArtist
	}

	newYear := currentYear
	if metadata.Year != nil && (!currentYear.Valid || int(currentYear.Int64) != *metadata.Year) {
		newYear = sql.NullInt64{Int64: int64(*metadata.Year), Valid: true}
	}

	newCover := currentCover
	if coverPath != "" && coverPath != currentCover.String {
		newCover = sql.NullString{String: coverPath, Valid: true}
	}

	if newArtist != currentArtist || newYear != currentYear || newCover != currentCover {
		if _, updateErr := tx.ExecContext(ctx, `
			UPDATE albums
			SET artist = ?, year = ?, cover = ?
			WHERE id = ?
		`, newArtist, newYear, newCover, albumID); updateErr != nil {
			return 0, fmt.Errorf("update album %q: %w", metadata.Album, updateErr)
		}
	}

	return albumID, nil
}

// cleanupOrphans deletes songs whose file paths were not seen in the
// completed walk, along with their playlist membership, in small
// transactional batches to limit lock duration. Albums left with zero songs
// are then removed.
func (s *Service) cleanupOrphans(ctx context.Context, seenPaths map[string]struct{}) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, file_path FROM songs")
	if err != nil {
		return 0, fmt.Errorf("list songs for cleanup: %w", err)
	}

	orphanIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan song for cleanup: %w", err)
		}
		if _, seen := seenPaths[path]; !seen {
			orphanIDs = append(orphanIDs, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate songs for cleanup: %w", err)
	}
	rows.Close()

	for start := 0; start < len(orphanIDs); start += orphanBatchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		end := start + orphanBatchSize
		if end > len(orphanIDs) {
			end = len(orphanIDs)
		}

		if err := s.deleteSongBatch(ctx, orphanIDs[start:end]); err != nil {
			return 0, err
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM albums
		WHERE id NOT IN (SELECT DISTINCT album_id FROM songs)
	`); err != nil {
		return 0, fmt.Errorf("delete empty albums: %w", err)
	}

	return len(orphanIDs), nil
}

func (s *Service) deleteSongBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cleanup tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM playlist_songs WHERE song_id IN ("+string(placeholders)+")",
		args...,
	); err != nil {
		return fmt.Errorf("delete playlist membership batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM songs WHERE id IN ("+string(placeholders)+")",
		args...,
	); err != nil {
		return fmt.Errorf("delete song batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cleanup batch: %w", err)
	}

	return nil
}

func nullableYear(year *int) any {
	if year == nil {
		return nil
	}

	return *year
}

func nullableCover(cover string) any {
	if cover == "" {
		return nil
	}

	return cover
}

func (s *Service) emitProgress(progress Progress) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventProgress, progress)
	}
}
