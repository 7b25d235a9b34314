package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DisplayMode selects how a phrase result is composed for display
type DisplayMode string

const (
	DisplayTranslationOnly DisplayMode = "translation_only"
	DisplayBoth            DisplayMode = "both"
)

// ParseDisplayMode accepts the snake_case form and the older TranslationOnly/Both spelling
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "translation_only", "translationonly":
		return DisplayTranslationOnly, nil
	case "both":
		return DisplayBoth, nil
	default:
		return "", fmt.Errorf("unknown display mode %q", s)
	}
}

// UnmarshalYAML normalizes the display mode when loading a config file
func (m *DisplayMode) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	mode, err := ParseDisplayMode(raw)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Transcription backends
const (
	BackendHTTP = "http"
	BackendVosk = "vosk"
)

// Config represents the application configuration
type Config struct {
	// Speech-to-text settings
	Transcription struct {
		Backend       string `yaml:"backend"`
		URL           string `yaml:"url"`
		APIKey        string `yaml:"api_key"`
		Model         string `yaml:"model"`
		Language      string `yaml:"language"`
		VoskModelPath string `yaml:"vosk_model_path"`
	} `yaml:"transcription"`

	// Translation settings; an empty target language disables translation
	Translation struct {
		URL            string `yaml:"url"`
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		TargetLanguage string `yaml:"target_language"`
	} `yaml:"translation"`

	// VAD settings
	VAD struct {
		SilenceThreshold float64 `yaml:"silence_threshold"`
		SilenceChunks    int     `yaml:"silence_chunks"`
		MaxPhraseSecs    int     `yaml:"max_phrase_secs"`
		PollIntervalMs   int     `yaml:"poll_interval_ms"`
	} `yaml:"vad"`

	// Display settings
	Display struct {
		Mode DisplayMode `yaml:"mode"`
	} `yaml:"display"`

	// Audio settings; zero values mean the device's native format
	Audio struct {
		Device     string `yaml:"device"`
		Format     string `yaml:"format"`
		SampleRate uint32 `yaml:"sample_rate"`
		Channels   uint32 `yaml:"channels"`
		// BufferFrames is the device period in frames; 0 keeps the backend default
		BufferFrames uint32 `yaml:"buffer_frames"`
	} `yaml:"audio"`

	// Session settings
	Session struct {
		Dir         string `yaml:"dir"`
		Hotkey      string `yaml:"hotkey"`
		StartActive bool   `yaml:"start_active"`
	} `yaml:"session"`

	// Server settings
	Server struct {
		MetricsAddr string `yaml:"metrics_addr"`
		GRPCPort    int    `yaml:"grpc_port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	HTTP struct {
		TimeoutSecs int `yaml:"timeout_secs"`
	} `yaml:"http"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Transcription defaults
	cfg.Transcription.Backend = BackendHTTP
	cfg.Transcription.URL = "https://api.openai.com/v1/audio/transcriptions"
	cfg.Transcription.Model = "large-v3"
	cfg.Transcription.Language = "ko"

	// Translation defaults
	cfg.Translation.URL = "https://api.openai.com/v1/chat/completions"
	cfg.Translation.Model = "gpt-4o"
	cfg.Translation.TargetLanguage = "en"

	// VAD defaults
	cfg.VAD.SilenceThreshold = 0.003
	cfg.VAD.SilenceChunks = 10
	cfg.VAD.MaxPhraseSecs = 30
	cfg.VAD.PollIntervalMs = 50

	cfg.Display.Mode = DisplayTranslationOnly

	// Audio defaults
	cfg.Audio.Format = "native"

	// Session defaults
	cfg.Session.Dir = "sessions"
	cfg.Session.Hotkey = "ctrl+shift+space"

	// Server defaults; empty address and zero port disable the listeners
	cfg.Server.MetricsAddr = ""
	cfg.Server.GRPCPort = 0

	cfg.Log.Level = "info"
	cfg.HTTP.TimeoutSecs = 30

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// UserConfigPath returns ~/.livecaprc, or "" when the home directory is unknown
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".livecaprc")
}

// SystemConfigPath is the machine-wide config location
const SystemConfigPath = "/etc/livecap/config.yaml"

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.livecaprc > /etc/livecap/config.yaml
// It also returns the path that was loaded, "" when defaults are used.
func LoadWithFallback(explicitPath string) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := Load(explicitPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicitPath, nil
	}

	for _, path := range []string{UserConfigPath(), SystemConfigPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if cfg, err := Load(path); err == nil {
			return cfg, path, nil
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), "", nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every invalid setting in one joined error
func (c *Config) Validate() error {
	var errs []error

	switch c.Transcription.Backend {
	case BackendHTTP:
		if c.Transcription.URL == "" {
			errs = append(errs, errors.New("transcription.url is required for the http backend"))
		}
	case BackendVosk:
		if c.Transcription.VoskModelPath == "" {
			errs = append(errs, errors.New("transcription.vosk_model_path is required for the vosk backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transcription.backend %q", c.Transcription.Backend))
	}

	if c.Translation.TargetLanguage != "" && c.Translation.URL == "" {
		errs = append(errs, errors.New("translation.url is required when a target language is set"))
	}
	if c.VAD.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("vad.silence_threshold must be >= 0, got %v", c.VAD.SilenceThreshold))
	}
	if c.VAD.SilenceChunks <= 0 {
		errs = append(errs, fmt.Errorf("vad.silence_chunks must be > 0, got %d", c.VAD.SilenceChunks))
	}
	if c.VAD.MaxPhraseSecs <= 0 {
		errs = append(errs, fmt.Errorf("vad.max_phrase_secs must be > 0, got %d", c.VAD.MaxPhraseSecs))
	}
	if c.VAD.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.poll_interval_ms must be > 0, got %d", c.VAD.PollIntervalMs))
	}
	if _, err := ParseDisplayMode(string(c.Display.Mode)); err != nil {
		errs = append(errs, err)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("server.grpc_port out of range: %d", c.Server.GRPCPort))
	}
	if c.HTTP.TimeoutSecs <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout_secs must be > 0, got %d", c.HTTP.TimeoutSecs))
	}

	return errors.Join(errs...)
}
