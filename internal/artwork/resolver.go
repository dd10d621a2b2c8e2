package artwork

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.senan.xyz/taglib"
)

// embeddedSampleSize is how much of an embedded picture is hashed for the
// cache key. Hashing a fixed prefix instead of the full buffer trades a
// small collision risk for not rehashing large embedded art on every scan.
const embeddedSampleSize = 4096

var coverImageExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".webp": {},
}

// Resolver locates cover art for an album folder and materializes it into
// the content-keyed art cache. It is constructed once by the application
// context and carries a session-local memo per folder; the memo is reset at
// the start of each scan.
type Resolver struct {
	cacheDir string

	mu         sync.Mutex
	folderMemo map[string]string

	readImage func(path string) ([]byte, error)
}

func NewResolver(cacheDir string) *Resolver {
	return &Resolver{
		cacheDir:   cacheDir,
		folderMemo: make(map[string]string),
		readImage:  taglib.ReadImage,
	}
}

// ResetSession clears the per-folder memo. Called when a new scan begins so
// folder listings are re-checked at most once per scan.
func (r *Resolver) ResetSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folderMemo = make(map[string]string)
}

// Resolve returns a stable cache path for the given album folder, or ""
// when no art is found. Folder images win over embedded pictures.
func (r *Resolver) Resolve(folder string, audioPath string) (string, error) {
	r.mu.Lock()
	memoized, ok := r.folderMemo[folder]
	r.mu.Unlock()
	if ok && memoized != "" {
		return memoized, nil
	}

	if !ok {
		folderArt, err := r.resolveFolderArt(folder)
		if err != nil {
			return "", err
		}

		r.mu.Lock()
		r.folderMemo[folder] = folderArt
		r.mu.Unlock()

		if folderArt != "" {
			return folderArt, nil
		}
	}

	return r.resolveEmbedded(audioPath)
}

func (r *Resolver) resolveFolderArt(folder string) (string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		log.Debug().Err(err).Str("dir", folder).Msg("art resolver: unreadable folder")
		return "", nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := coverImageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)

	imagePath := filepath.Join(folder, names[0])
	info, err := os.Stat(imagePath)
	if err != nil {
		log.Debug().Err(err).Str("path", imagePath).Msg("art resolver: stat folder image")
		return "", nil
	}

	// Keyed by path + size + mtime, not file contents, so unchanged folder
	// art is never rehashed.
	key := fmt.Sprintf("%s|%d|%d", imagePath, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(key))
	destination := filepath.Join(r.cacheDir, hex.EncodeToString(hash[:])+strings.ToLower(filepath.Ext(imagePath)))

	if err := copyFileIfMissing(imagePath, destination); err != nil {
		return "", fmt.Errorf("cache folder art %s: %w", imagePath, err)
	}

	return destination, nil
}

func (r *Resolver) resolveEmbedded(audioPath string) (string, error) {
	data, err := r.readImage(audioPath)
	if err != nil || len(data) == 0 {
		if err != nil {
			log.Debug().Err(err).Str("path", audioPath).Msg("art resolver: read embedded picture")
		}
		return "", nil
	}

	sample := data
	if len(sample) > embeddedSampleSize {
		sample = sample[:embeddedSampleSize]
	}
	hash := sha256.Sum256(sample)

	destination := filepath.Join(r.cacheDir, hex.EncodeToString(hash[:])+extensionForImageData(data))
	if err := writeFileIfMissing(destination, data); err != nil {
		return "", fmt.Errorf("cache embedded art from %s: %w", audioPath, err)
	}

	return destination, nil
}

func extensionForImageData(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func copyFileIfMissing(source string, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(destination)
		return err
	}

	return out.Close()
}

func writeFileIfMissing(destination string, data []byte) error {
	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}

	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(destination)
		return err
	}

	return out.Close()
}
