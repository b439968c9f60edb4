package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	inherited       = "inherited"
	profileSpecific = "profile-specific"
)

type GlobalsConfig struct {
	Output GlobalOutputConfig `mapstructure:"output" yaml:"output"`
}

type GlobalOutputConfig struct {
	RecordingsDirectory string `mapstructure:"recordings_directory" yaml:"recordings_directory"`
}

type RootConfig struct {
	ActiveConfig string             `mapstructure:"active_config" yaml:"active_config"`
	Globals      *GlobalsConfig     `mapstructure:"globals,omitempty" yaml:"globals,omitempty"`
	Audio        *AudioConfig       `mapstructure:"audio,omitempty" yaml:"audio,omitempty"`
	Configs      map[string]*Config `mapstructure:"configs" yaml:"configs"`
}

type Config struct {
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`

	// Profile the configuration was resolved from
	Profile string `mapstructure:"-" yaml:"-"`

	// Internal field to track inheritance information for config show
	Inheritance *InheritanceInfo `mapstructure:"-" yaml:"-"`
}

type InheritanceInfo struct {
	Audio struct {
		Backend    string // "inherited" or "profile-specific"
		SampleRate string
		Channels   string
		Device     string
	}
	Output struct {
		Directory string
		Format    string
	}
	Display struct {
		ProgressInterval string
		ProgressMaximum  string
	}
	Server struct {
		Port string
	}
}

type AudioConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // "miniaudio", "auto"
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"` // 1 mono, 2 stereo
	Device     string `mapstructure:"device" yaml:"device"`     // capture device name, empty for the system default
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Format    string `mapstructure:"format" yaml:"format"`
}

type DisplayConfig struct {
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"`
	ProgressMaximum  int           `mapstructure:"progress_maximum" yaml:"progress_maximum"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

var defaultConfig = Config{
	Audio: AudioConfig{
		Backend:    "auto",
		SampleRate: 44100,
		Channels:   1,
	},
	Output: OutputConfig{
		Directory: filepath.Join(os.Getenv("HOME"), "Audio", "MCIRecorder"),
		Format:    "wav",
	},
	Display: DisplayConfig{
		ProgressInterval: 50 * time.Millisecond,
		ProgressMaximum:  100,
	},
	Server: ServerConfig{
		Port: 8080,
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	cfg.Profile = "default"
	return &cfg
}

// DefaultPath is where the config file is looked up when --config is not given.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "mcirecorder.yaml"
	}
	return filepath.Join(homeDir, ".config", "mcirecorder.yaml")
}

// LoadWithProfile resolves a profile from configFile. A missing file yields
// the built-in defaults. The global audio block only overrides built-in
// values; the default profile and the selected profile both win over it.
func LoadWithProfile(configFile, profile string) (*Config, error) {
	if configFile == "" {
		return Default(), nil
	}
	if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	// Validate configuration format first
	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Determine which config to use
	configName := profile
	if configName == "" {
		configName = rootConfig.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}

	selectedProfile, exists := rootConfig.Configs[configName]
	if !exists {
		if configName != "default" {
			return nil, fmt.Errorf("configuration profile '%s' not found", configName)
		}
		selectedProfile = &Config{}
	}

	// Precedence, lowest first: built-in values, the global audio block,
	// the default profile, the selected profile
	base := Default()
	if rootConfig.Audio != nil {
		applyGlobalAudio(&base.Audio, rootConfig.Audio)
	}
	if configName != "default" {
		if defaultProfile, exists := rootConfig.Configs["default"]; exists {
			base = mergeConfigs(base, defaultProfile)
		}
	}
	selectedConfig := mergeConfigs(base, selectedProfile)
	selectedConfig.Profile = configName

	// Global recordings directory takes priority over profile-specific directory
	if rootConfig.Globals != nil && rootConfig.Globals.Output.RecordingsDirectory != "" {
		selectedConfig.Output.Directory = rootConfig.Globals.Output.RecordingsDirectory
	}

	selectedConfig.Output.Directory = expandPath(selectedConfig.Output.Directory)

	if err := validateConfig(selectedConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return selectedConfig, nil
}

func applyGlobalAudio(dst, global *AudioConfig) {
	if global.Backend != "" {
		dst.Backend = global.Backend
	}
	if global.SampleRate != 0 {
		dst.SampleRate = global.SampleRate
	}
	if global.Channels != 0 {
		dst.Channels = global.Channels
	}
	if global.Device != "" {
		dst.Device = global.Device
	}
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	// Create a new viper instance to avoid interfering with other loads
	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	v.Set("active_config", newActiveConfig)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// mergeConfigs overlays the non-zero values of profile onto base and records
// where each value came from.
func mergeConfigs(base, profile *Config) *Config {
	result := &Config{Inheritance: &InheritanceInfo{}}

	if base != nil {
		result.Audio = base.Audio
		result.Output = base.Output
		result.Display = base.Display
		result.Server = base.Server

		result.Inheritance.Audio.Backend = inherited
		result.Inheritance.Audio.SampleRate = inherited
		result.Inheritance.Audio.Channels = inherited
		result.Inheritance.Audio.Device = inherited
		result.Inheritance.Output.Directory = inherited
		result.Inheritance.Output.Format = inherited
		result.Inheritance.Display.ProgressInterval = inherited
		result.Inheritance.Display.ProgressMaximum = inherited
		result.Inheritance.Server.Port = inherited
	}

	if profile == nil {
		return result
	}

	if profile.Audio.Backend != "" {
		result.Audio.Backend = profile.Audio.Backend
		result.Inheritance.Audio.Backend = profileSpecific
	}
	if profile.Audio.SampleRate != 0 {
		result.Audio.SampleRate = profile.Audio.SampleRate
		result.Inheritance.Audio.SampleRate = profileSpecific
	}
	if profile.Audio.Channels != 0 {
		result.Audio.Channels = profile.Audio.Channels
		result.Inheritance.Audio.Channels = profileSpecific
	}
	if profile.Audio.Device != "" {
		result.Audio.Device = profile.Audio.Device
		result.Inheritance.Audio.Device = profileSpecific
	}

	if profile.Output.Directory != "" {
		result.Output.Directory = profile.Output.Directory
		result.Inheritance.Output.Directory = profileSpecific
	}
	if profile.Output.Format != "" {
		result.Output.Format = profile.Output.Format
		result.Inheritance.Output.Format = profileSpecific
	}

	if profile.Display.ProgressInterval != 0 {
		result.Display.ProgressInterval = profile.Display.ProgressInterval
		result.Inheritance.Display.ProgressInterval = profileSpecific
	}
	if profile.Display.ProgressMaximum != 0 {
		result.Display.ProgressMaximum = profile.Display.ProgressMaximum
		result.Inheritance.Display.ProgressMaximum = profileSpecific
	}

	if profile.Server.Port != 0 {
		result.Server.Port = profile.Server.Port
		result.Inheritance.Server.Port = profileSpecific
	}

	return result
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// validateConfig checks a fully resolved configuration
func validateConfig(config *Config) error {
	if err := validateSection(config, "resolved"); err != nil {
		return err
	}
	if config.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate is required")
	}
	if config.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels is required")
	}
	if config.Output.Directory == "" {
		return fmt.Errorf("output.directory is required")
	}
	if config.Display.ProgressInterval <= 0 {
		return fmt.Errorf("display.progress_interval must be > 0, got: %s", config.Display.ProgressInterval)
	}
	if config.Display.ProgressMaximum <= 0 {
		return fmt.Errorf("display.progress_maximum must be > 0, got: %d", config.Display.ProgressMaximum)
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", config.Server.Port)
	}
	return nil
}

// validateSection checks the values a profile sets. Zero values mean
// "inherit" and are accepted.
func validateSection(config *Config, prefix string) error {
	switch strings.ToLower(config.Audio.Backend) {
	case "", "auto", "miniaudio":
	default:
		return fmt.Errorf("%s: audio.backend must be 'auto' or 'miniaudio', got: %s", prefix, config.Audio.Backend)
	}

	if config.Audio.SampleRate != 0 && (config.Audio.SampleRate < 8000 || config.Audio.SampleRate > 192000) {
		return fmt.Errorf("%s: audio.sample_rate must be between 8000 and 192000, got: %d", prefix, config.Audio.SampleRate)
	}

	if config.Audio.Channels < 0 || config.Audio.Channels > 2 {
		return fmt.Errorf("%s: audio.channels must be 1 or 2, got: %d", prefix, config.Audio.Channels)
	}

	if config.Output.Format != "" && config.Output.Format != "wav" {
		return fmt.Errorf("%s: output.format must be 'wav', got: %s", prefix, config.Output.Format)
	}

	if config.Display.ProgressInterval < 0 {
		return fmt.Errorf("%s: display.progress_interval must be >= 0, got: %s", prefix, config.Display.ProgressInterval)
	}
	if config.Display.ProgressMaximum < 0 {
		return fmt.Errorf("%s: display.progress_maximum must be >= 0, got: %d", prefix, config.Display.ProgressMaximum)
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("%s: server.port must be between 1 and 65535, got: %d", prefix, config.Server.Port)
	}

	return nil
}

// ValidateConfigurationFormat validates the configuration file format and returns parsed config
func ValidateConfigurationFormat(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(configFile)

	// Set environment variable prefix
	v.SetEnvPrefix("MCIRECORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if active := v.GetString("active_config"); active != "" {
		rootConfig.ActiveConfig = active
	}

	if rootConfig.Audio != nil {
		if err := validateSection(&Config{Audio: *rootConfig.Audio}, "audio"); err != nil {
			return nil, err
		}
	}

	// Sorted so the first reported error is stable
	names := make([]string, 0, len(rootConfig.Configs))
	for name := range rootConfig.Configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		profile := rootConfig.Configs[name]
		if profile == nil {
			return nil, fmt.Errorf("invalid config '%s': profile is empty", name)
		}
		if err := validateSection(profile, fmt.Sprintf("configs.%s", name)); err != nil {
			return nil, fmt.Errorf("invalid config '%s': %w", name, err)
		}
	}

	return &rootConfig, nil
}

// ProfileNames lists the profiles defined in configFile.
func ProfileNames(configFile string) ([]string, error) {
	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rootConfig.Configs))
	for name := range rootConfig.Configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
