package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zevinDev/wora/internal/artwork"
)

// CoverService serves cached cover art over the asset transport. Requests
// name a file inside the art cache directory; anything that resolves
// outside it is rejected. Thumbnail variants are rendered lazily on first
// request.
type CoverService struct {
	artCacheDir string
}

func NewCoverService(artCacheDir string) *CoverService {
	return &CoverService{artCacheDir: strings.TrimSpace(artCacheDir)}
}

func (s *CoverService) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	coverPath := strings.TrimSpace(req.URL.Query().Get("path"))
	if coverPath == "" {
		http.Error(rw, "missing cover path", http.StatusBadRequest)
		return
	}
	variant := artwork.NormalizeVariant(req.URL.Query().Get("variant"))

	resolvedPath, err := s.resolveCoverPath(coverPath)
	if err != nil {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	pathToServe := resolvedPath
	if variant != artwork.VariantOriginal {
		variantPath, ok := artwork.VariantPath(resolvedPath, variant)
		if ok {
			if _, statErr := os.Stat(variantPath); os.IsNotExist(statErr) {
				if genErr := artwork.GenerateThumbnails(resolvedPath); genErr != nil {
					log.Debug().Err(genErr).Str("cover", resolvedPath).Msg("cover: thumbnail generation failed")
				}
			}
			if info, statErr := os.Stat(variantPath); statErr == nil && !info.IsDir() {
				pathToServe = variantPath
			}
		}
	}

	info, err := os.Stat(pathToServe)
	if err != nil || info.IsDir() {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	// Cache filenames are content hashes, so the bytes never change.
	rw.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(rw, req, pathToServe)
}

func (s *CoverService) resolveCoverPath(requestedPath string) (string, error) {
	cacheDir := strings.TrimSpace(s.artCacheDir)
	if cacheDir == "" {
		return "", errors.New("art cache dir is not configured")
	}

	cacheDirAbs, err := filepath.Abs(filepath.Clean(cacheDir))
	if err != nil {
		return "", err
	}

	cleanRequested := filepath.Clean(requestedPath)
	if !filepath.IsAbs(cleanRequested) {
		cleanRequested = filepath.Join(cacheDirAbs, cleanRequested)
	}

	resolvedPath, err := filepath.Abs(cleanRequested)
	if err != nil {
		return "", err
	}

	relativeToCache, err := filepath.Rel(cacheDirAbs, resolvedPath)
	if err != nil {
		return "", err
	}

	if relativeToCache == ".." || strings.HasPrefix(relativeToCache, ".."+string(os.PathSeparator)) || filepath.IsAbs(relativeToCache) {
		return "", errors.New("requested path is outside the art cache dir")
	}

	return resolvedPath, nil
}
