package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Paths struct {
	BaseDir     string
	DBPath      string
	ArtCacheDir string
	UploadsDir  string
}

func ResolvePaths(appSlug string) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
	}

	baseDir := filepath.Join(configDir, appSlug)
	paths := Paths{
		BaseDir:     baseDir,
		DBPath:      filepath.Join(baseDir, "library.db"),
		ArtCacheDir: filepath.Join(baseDir, "covers"),
		UploadsDir:  filepath.Join(baseDir, "uploads"),
	}

	for _, dir := range []string{paths.BaseDir, paths.ArtCacheDir, paths.UploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("create app dir %s: %w", dir, err)
		}
	}

	return paths, nil
}
