package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/patrickmn/go-cache"

	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

// Extension is the container recordings are saved in and sources are opened from.
const Extension = ".wav"

// durations holds decoded WAV durations keyed by path, size and mtime, so
// repeated listings only decode new or changed files.
var durations = cache.New(30*time.Minute, time.Hour)

// Recording describes a WAV file in the recordings directory
type Recording struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	SizeHuman      string    `json:"size_human"`
	ModTime        time.Time `json:"mod_time"`
	ModTimeHuman   string    `json:"mod_time_human"`
	DurationMillis int64     `json:"duration_millis"`
	DurationHuman  string    `json:"duration_human"`
}

// List returns the recordings in dir, newest first. A missing directory is
// an empty library.
func List(dir string) ([]Recording, error) {
	files, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recordings directory: %w", err)
	}

	var recordings []Recording
	for _, file := range files {
		if file.IsDir() || !IsWAV(file.Name()) {
			continue
		}

		info, err := file.Info()
		if err != nil {
			slog.Warn("Failed to get file info", "file", file.Name(), "error", err)
			continue
		}

		filePath := filepath.Join(dir, file.Name())
		rec := Recording{
			Name:         file.Name(),
			Path:         filePath,
			Size:         info.Size(),
			SizeHuman:    formatBytes(info.Size()),
			ModTime:      info.ModTime(),
			ModTimeHuman: info.ModTime().Format("2006-01-02 15:04:05"),
		}

		duration, err := cachedDuration(filePath, info)
		if err != nil {
			slog.Debug("Failed to read WAV duration", "file", file.Name(), "error", err)
		} else {
			rec.DurationMillis = duration.Milliseconds()
		}
		rec.DurationHuman = session.FormatElapsed(rec.DurationMillis)

		recordings = append(recordings, rec)
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].ModTime.After(recordings[j].ModTime)
	})

	return recordings, nil
}

func cachedDuration(path string, info os.FileInfo) (time.Duration, error) {
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if d, found := durations.Get(key); found {
		return d.(time.Duration), nil
	}

	d, err := Duration(path)
	if err != nil {
		return 0, err
	}
	durations.SetDefault(key, d)
	return d, nil
}

// Duration computes the playing time from the size of the PCM chunk.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("invalid WAV file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	bytesPerSecond := int64(decoder.SampleRate) * int64(decoder.NumChans) * int64(decoder.BitDepth/8)
	if bytesPerSecond == 0 {
		return 0, fmt.Errorf("invalid WAV format: %s", path)
	}
	return time.Duration(decoder.PCMLen() * int64(time.Second) / bytesPerSecond), nil
}

func IsWAV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// Resolve maps a user supplied source to a file path. Bare names are looked
// up in dir and get the WAV extension if they have none.
func Resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}

	path := name
	if !strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) {
		path = filepath.Join(dir, name)
	}
	if filepath.Ext(path) == "" {
		path += Extension
	}
	if !IsWAV(path) {
		return "", fmt.Errorf("not a %s file: %s", Extension, name)
	}
	return path, nil
}

// NewRecordingPath builds a save destination in dir. An empty name is
// replaced by a timestamp; an existing file is never overwritten.
func NewRecordingPath(dir, name string, now time.Time) string {
	base := cleanFileName(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "recording_" + now.Format("20060102_150405")
	}

	path := filepath.Join(dir, base+Extension)
	for i := 2; fileExists(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, Extension))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func cleanFileName(name string) string {
	// Remove special characters and replace spaces with underscores
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(result.String()), " ", "_")
}

// formatBytes formats bytes in human readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
