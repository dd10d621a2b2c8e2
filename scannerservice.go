package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zevinDev/wora/internal/library"
	"github.com/zevinDev/wora/internal/scanner"
)

type ScannerService struct {
	scanner  *scanner.Service
	settings *library.SettingsRepository
}

func NewScannerService(scanService *scanner.Service, settings *library.SettingsRepository) *ScannerService {
	return &ScannerService{scanner: scanService, settings: settings}
}

// ScanLibrary points the library at folder, persists it, and starts an
// incremental scan plus the filesystem watch.
func (s *ScannerService) ScanLibrary(folder string) error {
	cleaned, err := normalizeFolder(folder)
	if err != nil {
		return err
	}

	if err := s.settings.SetMusicFolder(context.Background(), cleaned); err != nil {
		return err
	}

	if err := s.scanner.TriggerScan(cleaned, true); err != nil {
		return err
	}

	return s.scanner.StartWatching(cleaned)
}

// RescanLibrary reprocesses the configured folder from scratch.
func (s *ScannerService) RescanLibrary() error {
	folder, err := s.settings.MusicFolder(context.Background())
	if err != nil {
		return err
	}

	return s.scanner.TriggerScan(folder, false)
}

func (s *ScannerService) GetStatus() scanner.Status {
	return s.scanner.GetStatus()
}

func normalizeFolder(folder string) (string, error) {
	trimmed := strings.TrimSpace(folder)
	if trimmed == "" {
		return "", errors.New("music folder path is required")
	}

	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve music folder: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat music folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", absPath)
	}

	return filepath.Clean(absPath), nil
}
