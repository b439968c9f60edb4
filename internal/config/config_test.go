package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMergeConfigs_ProfileOverridesAndFallback(t *testing.T) {
	base := &Config{
		Audio: AudioConfig{
			Backend:    "auto",
			SampleRate: 48000,
			Channels:   2,
		},
		Output: OutputConfig{
			Directory: "~/Audio/Default",
			Format:    "wav",
		},
		Display: DisplayConfig{
			ProgressInterval: 50 * time.Millisecond,
			ProgressMaximum:  100,
		},
		Server: ServerConfig{Port: 8080},
	}

	profile := &Config{
		Audio: AudioConfig{
			SampleRate: 44100, // Override sample rate
		},
		Output: OutputConfig{
			Directory: "~/Audio/Studio", // Override directory
		},
		Display: DisplayConfig{
			ProgressMaximum: 1000,
		},
	}

	result := mergeConfigs(base, profile)

	if result.Audio.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", result.Audio.SampleRate)
	}
	if result.Audio.Channels != 2 {
		t.Errorf("Expected inherited channels 2, got %d", result.Audio.Channels)
	}
	if result.Audio.Backend != "auto" {
		t.Errorf("Expected backend 'auto', got %s", result.Audio.Backend)
	}
	if result.Output.Directory != "~/Audio/Studio" {
		t.Errorf("Expected directory '~/Audio/Studio', got %s", result.Output.Directory)
	}
	if result.Output.Format != "wav" {
		t.Errorf("Expected format 'wav', got %s", result.Output.Format)
	}
	if result.Display.ProgressInterval != 50*time.Millisecond {
		t.Errorf("Expected progress interval 50ms, got %s", result.Display.ProgressInterval)
	}
	if result.Display.ProgressMaximum != 1000 {
		t.Errorf("Expected progress maximum 1000, got %d", result.Display.ProgressMaximum)
	}
	if result.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", result.Server.Port)
	}

	// Test inheritance tracking
	if result.Inheritance == nil {
		t.Fatal("Inheritance tracking not initialized")
	}
	if result.Inheritance.Audio.SampleRate != "profile-specific" {
		t.Errorf("Expected sample rate to be profile-specific, got %s", result.Inheritance.Audio.SampleRate)
	}
	if result.Inheritance.Audio.Channels != "inherited" {
		t.Errorf("Expected channels to be inherited, got %s", result.Inheritance.Audio.Channels)
	}
	if result.Inheritance.Output.Directory != "profile-specific" {
		t.Errorf("Expected directory to be profile-specific, got %s", result.Inheritance.Output.Directory)
	}
	if result.Inheritance.Output.Format != "inherited" {
		t.Errorf("Expected format to be inherited, got %s", result.Inheritance.Output.Format)
	}
	if result.Inheritance.Display.ProgressMaximum != "profile-specific" {
		t.Errorf("Expected progress maximum to be profile-specific, got %s", result.Inheritance.Display.ProgressMaximum)
	}
	if result.Inheritance.Server.Port != "inherited" {
		t.Errorf("Expected port to be inherited, got %s", result.Inheritance.Server.Port)
	}
}

func TestMergeConfigs_ProfileOnly(t *testing.T) {
	profile := &Config{
		Audio:  AudioConfig{SampleRate: 22050, Channels: 1},
		Output: OutputConfig{Directory: "/tmp/takes"},
	}

	result := mergeConfigs(nil, profile)

	if result.Audio.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", result.Audio.SampleRate)
	}
	if result.Output.Directory != "/tmp/takes" {
		t.Errorf("Expected directory '/tmp/takes', got %s", result.Output.Directory)
	}
	if result.Inheritance.Audio.Backend != "" {
		t.Errorf("Expected no inheritance marker for unset backend, got %s", result.Inheritance.Audio.Backend)
	}
}

func TestMergeConfigs_EmptyProfile(t *testing.T) {
	base := Default()

	result := mergeConfigs(base, &Config{})

	if result.Audio != base.Audio {
		t.Errorf("Expected audio %+v, got %+v", base.Audio, result.Audio)
	}
	if result.Display != base.Display {
		t.Errorf("Expected display %+v, got %+v", base.Display, result.Display)
	}
	if result.Inheritance.Display.ProgressInterval != "inherited" {
		t.Errorf("Expected progress interval to be inherited, got %s", result.Inheritance.Display.ProgressInterval)
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("No home directory available")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/Audio/MCIRecorder", filepath.Join(homeDir, "Audio", "MCIRecorder")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notexpanded", "~notexpanded"},
		{"", ""},
	}

	for _, test := range tests {
		result := expandPath(test.input)
		if result != test.expected {
			t.Errorf("expandPath(%q): expected %q, got %q", test.input, test.expected, result)
		}
	}
}

func TestLoadWithProfile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithProfile(filepath.Join(t.TempDir(), "absent.yaml"), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Profile != "default" {
		t.Errorf("Expected profile 'default', got %s", cfg.Profile)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Output.Format != "wav" {
		t.Errorf("Expected format 'wav', got %s", cfg.Output.Format)
	}
	if cfg.Display.ProgressInterval != 50*time.Millisecond {
		t.Errorf("Expected progress interval 50ms, got %s", cfg.Display.ProgressInterval)
	}
	if cfg.Display.ProgressMaximum != 100 {
		t.Errorf("Expected progress maximum 100, got %d", cfg.Display.ProgressMaximum)
	}
}

func TestLoadWithProfile_ActiveConfigMergesDefault(t *testing.T) {
	configFile := createTempConfig(t, `
active_config: studio

configs:
  default:
    audio:
      sample_rate: 48000
      channels: 2
    output:
      directory: /tmp/mcirecorder/default
  studio:
    audio:
      channels: 1
    display:
      progress_interval: 100ms
    server:
      port: 9090
`)

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Profile != "studio" {
		t.Errorf("Expected profile 'studio', got %s", cfg.Profile)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000 from default profile, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("Expected channels 1, got %d", cfg.Audio.Channels)
	}
	if cfg.Output.Directory != "/tmp/mcirecorder/default" {
		t.Errorf("Expected directory from default profile, got %s", cfg.Output.Directory)
	}
	if cfg.Display.ProgressInterval != 100*time.Millisecond {
		t.Errorf("Expected progress interval 100ms, got %s", cfg.Display.ProgressInterval)
	}
	if cfg.Display.ProgressMaximum != 100 {
		t.Errorf("Expected built-in progress maximum 100, got %d", cfg.Display.ProgressMaximum)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Inheritance.Audio.SampleRate != "inherited" {
		t.Errorf("Expected sample rate to be inherited, got %s", cfg.Inheritance.Audio.SampleRate)
	}
}

func TestLoadWithProfile_ExplicitProfileWins(t *testing.T) {
	configFile := createTempConfig(t, `
active_config: studio

configs:
  studio:
    audio:
      sample_rate: 48000
  field:
    audio:
      sample_rate: 22050
`)

	cfg, err := LoadWithProfile(configFile, "field")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", cfg.Audio.SampleRate)
	}

	if _, err := LoadWithProfile(configFile, "missing"); err == nil {
		t.Error("Expected error for unknown profile")
	}
}

func TestGlobalsRecordingsDirectory(t *testing.T) {
	configFile := createTempConfig(t, `
globals:
  output:
    recordings_directory: ~/Takes

audio:
  sample_rate: 32000

configs:
  default:
    output:
      directory: /tmp/ignored
`)

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, "Takes")
	if cfg.Output.Directory != expected {
		t.Errorf("Expected global recordings directory %s, got %s", expected, cfg.Output.Directory)
	}
	if cfg.Audio.SampleRate != 32000 {
		t.Errorf("Expected global sample rate 32000, got %d", cfg.Audio.SampleRate)
	}
}

func TestGlobalAudioDoesNotOverrideDefaultProfile(t *testing.T) {
	configFile := createTempConfig(t, `
active_config: studio

audio:
  sample_rate: 32000
  channels: 2

configs:
  default:
    audio:
      sample_rate: 48000
  studio:
    output:
      directory: /tmp/studio
`)

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected default profile sample rate 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 2 {
		t.Errorf("Expected global channels 2, got %d", cfg.Audio.Channels)
	}

	defaultCfg, err := LoadWithProfile(configFile, "default")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if defaultCfg.Audio.SampleRate != 48000 {
		t.Errorf("Expected default profile sample rate 48000, got %d", defaultCfg.Audio.SampleRate)
	}
}

func TestUpdateActiveConfig(t *testing.T) {
	configFile := createTempConfig(t, `
active_config: studio

configs:
  studio:
    audio:
      sample_rate: 48000
  field:
    audio:
      sample_rate: 22050
`)

	if err := UpdateActiveConfig(configFile, "field"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cfg, err := LoadWithProfile(configFile, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Profile != "field" {
		t.Errorf("Expected active profile 'field', got %s", cfg.Profile)
	}

	if err := UpdateActiveConfig("", "field"); err == nil {
		t.Error("Expected error for empty config file")
	}
}
