package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// WalkChunkSize bounds how many discovered audio paths are buffered before
// being handed to the caller during a full walk.
const WalkChunkSize = 50

// WalkShallow returns the audio files directly inside root plus the files
// directly inside each immediate subdirectory (one level only), for fast
// first paint. Unreadable directories are logged and skipped; a partial
// walk is never a failure.
func WalkShallow(root string) []string {
	paths := make([]string, 0)

	entries, err := os.ReadDir(root)
	if err != nil {
		log.Warn().Err(err).Str("dir", root).Msg("shallow walk: unreadable root")
		return paths
	}

	subdirs := make([]string, 0)
	for _, entry := range entries {
		fullPath := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, fullPath)
			continue
		}
		if IsAudioPath(fullPath) {
			paths = append(paths, fullPath)
		}
	}

	for _, subdir := range subdirs {
		subEntries, err := os.ReadDir(subdir)
		if err != nil {
			log.Warn().Err(err).Str("dir", subdir).Msg("shallow walk: unreadable subdirectory")
			continue
		}
		for _, entry := range subEntries {
			if entry.IsDir() {
				continue
			}
			fullPath := filepath.Join(subdir, entry.Name())
			if IsAudioPath(fullPath) {
				paths = append(paths, fullPath)
			}
		}
	}

	return paths
}

// WalkFull walks the tree under root exhaustively, delivering audio paths
// to fn in chunks of at most chunkSize. Inaccessible subtrees are logged
// and skipped. The walk stops early only on context cancellation or a
// non-nil error from fn.
func WalkFull(ctx context.Context, root string, chunkSize int, fn func(paths []string) error) error {
	if chunkSize <= 0 {
		chunkSize = WalkChunkSize
	}

	chunk := make([]string, 0, chunkSize)
	pending := []string{root}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := pending[0]
		pending = pending[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("full walk: unreadable directory")
			continue
		}

		for _, entry := range entries {
			fullPath := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				pending = append(pending, fullPath)
				continue
			}
			if !IsAudioPath(fullPath) {
				continue
			}

			chunk = append(chunk, fullPath)
			if len(chunk) < chunkSize {
				continue
			}

			if err := fn(chunk); err != nil {
				return err
			}
			chunk = make([]string, 0, chunkSize)
		}
	}

	if len(chunk) > 0 {
		return fn(chunk)
	}

	return nil
}
