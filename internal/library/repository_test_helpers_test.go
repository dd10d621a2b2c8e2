package library

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/zevinDev/wora/internal/db"
)

func newTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "library.db")
	database, err := db.Bootstrap(databasePath)
	if err != nil {
		t.Fatalf("bootstrap test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}

func insertAlbumForTest(t *testing.T, database *sql.DB, name string, artist string, year any) int64 {
	t.Helper()

	result, err := database.Exec(
		`INSERT INTO albums (name, artist, year) VALUES (?, ?, ?)`,
		name, artist, year,
	)
	if err != nil {
		t.Fatalf("insert album row: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("read album id: %v", err)
	}

	return id
}

func insertSongForTest(t *testing.T, database *sql.DB, albumID int64, name string, artist string, duration int) int64 {
	t.Helper()

	result, err := database.Exec(
		`INSERT INTO songs (file_path, name, artist, duration, album_id) VALUES (?, ?, ?, ?, ?)`,
		filepath.Join("/music", name+".flac"), name, artist, duration, albumID,
	)
	if err != nil {
		t.Fatalf("insert song row: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("read song id: %v", err)
	}

	return id
}
