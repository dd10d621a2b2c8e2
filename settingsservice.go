package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zevinDev/wora/internal/library"
)

const maxProfilePictureBytes = 8 << 20

type SettingsService struct {
	settings   *library.SettingsRepository
	uploadsDir string
}

func NewSettingsService(settings *library.SettingsRepository, uploadsDir string) *SettingsService {
	return &SettingsService{settings: settings, uploadsDir: uploadsDir}
}

func (s *SettingsService) GetSettings() (library.Settings, error) {
	return s.settings.Get(context.Background())
}

func (s *SettingsService) UpdateProfile(name string, profilePicture string) (library.Settings, error) {
	if err := s.settings.UpdateProfile(context.Background(), name, profilePicture); err != nil {
		return library.Settings{}, err
	}

	return s.settings.Get(context.Background())
}

// UploadProfilePicture stores the image bytes under a random name in the
// uploads directory and returns the stored path. The original extension is
// kept; the name is not.
func (s *SettingsService) UploadProfilePicture(fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("profile picture is empty")
	}
	if len(data) > maxProfilePictureBytes {
		return "", errors.New("profile picture exceeds the size limit")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		return "", fmt.Errorf("unsupported profile picture type %q", ext)
	}

	storedPath := filepath.Join(s.uploadsDir, uuid.NewString()+ext)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return "", fmt.Errorf("store profile picture: %w", err)
	}

	return storedPath, nil
}
