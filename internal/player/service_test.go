package player

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zevinDev/wora/internal/db"
	"github.com/zevinDev/wora/internal/library"
)

func newPlayerForTest(t *testing.T) (*Service, []int64) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "library.db")
	database, err := db.Bootstrap(databasePath)
	if err != nil {
		t.Fatalf("bootstrap test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	albumResult, err := database.Exec(`INSERT INTO albums (name, artist) VALUES ('Test Album', 'Tester')`)
	if err != nil {
		t.Fatalf("insert album: %v", err)
	}
	albumID, err := albumResult.LastInsertId()
	if err != nil {
		t.Fatalf("read album id: %v", err)
	}

	ids := make([]int64, 0, 3)
	for _, name := range []string{"One", "Two", "Three"} {
		result, err := database.Exec(
			`INSERT INTO songs (file_path, name, artist, duration, album_id) VALUES (?, ?, 'Tester', 200, ?)`,
			filepath.Join("/music", name+".mp3"), name, albumID,
		)
		if err != nil {
			t.Fatalf("insert song %s: %v", name, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			t.Fatalf("read song id: %v", err)
		}
		ids = append(ids, id)
	}

	service := NewService(library.NewSongRepository(database))
	t.Cleanup(func() { service.Close() })

	return service, ids
}

func TestSetQueueStartsPlayback(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)

	state, err := service.SetQueue(context.Background(), ids, 1)
	if err != nil {
		t.Fatalf("set queue: %v", err)
	}

	if state.Status != StatusPlaying {
		t.Fatalf("expected playing, got %q", state.Status)
	}
	if state.CurrentSong == nil || state.CurrentSong.ID != ids[1] {
		t.Fatalf("expected the start index song, got %+v", state.CurrentSong)
	}
	if state.QueueLength != 3 {
		t.Fatalf("expected queue length 3, got %d", state.QueueLength)
	}
}

func TestSetQueueSkipsMissingSongs(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)

	state, err := service.SetQueue(context.Background(), append([]int64{999999}, ids...), 0)
	if err != nil {
		t.Fatalf("set queue: %v", err)
	}
	if state.QueueLength != 3 {
		t.Fatalf("expected unknown ids dropped, got queue length %d", state.QueueLength)
	}
}

func TestPauseAndResume(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)
	if _, err := service.SetQueue(context.Background(), ids, 0); err != nil {
		t.Fatalf("set queue: %v", err)
	}

	state, err := service.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if state.Status != StatusPaused {
		t.Fatalf("expected paused, got %q", state.Status)
	}

	state, err = service.TogglePlayback()
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state.Status != StatusPlaying {
		t.Fatalf("expected playing after toggle, got %q", state.Status)
	}
}

func TestNextStopsAtQueueEnd(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)
	if _, err := service.SetQueue(context.Background(), ids, 2); err != nil {
		t.Fatalf("set queue: %v", err)
	}

	state, err := service.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if state.Status != StatusStopped {
		t.Fatalf("expected stopped at queue end, got %q", state.Status)
	}
	if state.PositionSec != 0 {
		t.Fatalf("expected position reset, got %d", state.PositionSec)
	}
}

func TestPreviousRestartsLateInTrack(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)
	if _, err := service.SetQueue(context.Background(), ids, 1); err != nil {
		t.Fatalf("set queue: %v", err)
	}

	if _, err := service.Seek(30); err != nil {
		t.Fatalf("seek: %v", err)
	}

	state, err := service.Previous()
	if err != nil {
		t.Fatalf("previous: %v", err)
	}
	if state.CurrentSong == nil || state.CurrentSong.ID != ids[1] {
		t.Fatalf("expected the same song restarted, got %+v", state.CurrentSong)
	}
	if state.PositionSec != 0 {
		t.Fatalf("expected position 0 after restart, got %d", state.PositionSec)
	}

	state, err = service.Previous()
	if err != nil {
		t.Fatalf("previous at track start: %v", err)
	}
	if state.CurrentSong == nil || state.CurrentSong.ID != ids[0] {
		t.Fatalf("expected the previous song, got %+v", state.CurrentSong)
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)
	if _, err := service.SetQueue(context.Background(), ids, 0); err != nil {
		t.Fatalf("set queue: %v", err)
	}

	state, err := service.Seek(100000)
	if err != nil {
		t.Fatalf("seek past end: %v", err)
	}
	if state.PositionSec != 200 {
		t.Fatalf("expected clamp to song duration, got %d", state.PositionSec)
	}

	state, err = service.Seek(-5)
	if err != nil {
		t.Fatalf("seek before start: %v", err)
	}
	if state.PositionSec != 0 {
		t.Fatalf("expected clamp to 0, got %d", state.PositionSec)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	t.Parallel()

	service, _ := newPlayerForTest(t)

	state, err := service.SetVolume(150)
	if err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if state.Volume != 100 {
		t.Fatalf("expected 100, got %d", state.Volume)
	}

	state, err = service.SetVolume(-10)
	if err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if state.Volume != 0 {
		t.Fatalf("expected 0, got %d", state.Volume)
	}
}

func TestListenersSeeTrackStarts(t *testing.T) {
	t.Parallel()

	service, ids := newPlayerForTest(t)

	recorder := &recordingListener{}
	service.AddListener(recorder)

	if _, err := service.SetQueue(context.Background(), ids, 0); err != nil {
		t.Fatalf("set queue: %v", err)
	}
	if _, err := service.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	if len(recorder.started) != 2 {
		t.Fatalf("expected 2 track starts, got %d", len(recorder.started))
	}
	if recorder.started[0] != ids[0] || recorder.started[1] != ids[1] {
		t.Fatalf("expected starts %v then %v, got %v", ids[0], ids[1], recorder.started)
	}
}

type recordingListener struct {
	started []int64
}

func (r *recordingListener) OnTrackStart(song library.Song, _ time.Time) {
	r.started = append(r.started, song.ID)
}

func (r *recordingListener) OnProgress(library.Song, int, time.Time) {}
