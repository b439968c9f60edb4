package audio

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nevet/basic-MCI-Recorder/internal/config"
)

// BackendType represents the type of audio backend
type BackendType string

const (
	BackendTypeMiniaudio BackendType = "miniaudio"
	BackendTypeAuto      BackendType = "auto"
)

// NewBackend creates the audio device selected by configuration
func NewBackend(cfg *config.Config, log *slog.Logger) (*Device, error) {
	backendType, err := determineBackend(cfg)
	if err != nil {
		return nil, err
	}

	switch backendType {
	case BackendTypeMiniaudio:
		return NewDevice(cfg.Audio, log)
	default:
		return nil, fmt.Errorf("unsupported audio backend: %s", backendType)
	}
}

// determineBackend determines which backend to use based on configuration
func determineBackend(cfg *config.Config) (BackendType, error) {
	switch strings.ToLower(cfg.Audio.Backend) {
	case "", "auto":
		return BackendTypeMiniaudio, nil // Only miniaudio is available
	case "miniaudio":
		return BackendTypeMiniaudio, nil
	default:
		return "", fmt.Errorf("unknown audio backend: %s", cfg.Audio.Backend)
	}
}

// GetAvailableBackends returns list of available backends on current system
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypeMiniaudio}
}
