package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	STTURL           string  `env:"LIVECAP_STT_URL"`
	STTAPIKey        string  `env:"LIVECAP_STT_API_KEY"`
	STTModel         string  `env:"LIVECAP_STT_MODEL"`
	TranslateURL     string  `env:"LIVECAP_TRANSLATE_URL"`
	TranslateAPIKey  string  `env:"LIVECAP_TRANSLATE_API_KEY"`
	TranslateModel   string  `env:"LIVECAP_TRANSLATE_MODEL"`
	VoskModelPath    string  `env:"LIVECAP_VOSK_MODEL_PATH"`
	SessionDir       string  `env:"LIVECAP_SESSION_DIR"`
	LogLevel         string  `env:"LIVECAP_LOG_LEVEL"`
	MetricsAddr      string  `env:"LIVECAP_METRICS_ADDR"`
	SilenceThreshold float64 `env:"LIVECAP_SILENCE_THRESHOLD"`
}

// ApplyEnv overlays environment variables on top of file settings.
// Unset variables leave the file value alone. OPENAI_API_KEY fills either
// API key that is still empty after the specific variables are applied,
// but only when that endpoint is api.openai.com.
func (c *Config) ApplyEnv() error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("environment variables are invalid: %w", err)
	}

	setString(&c.Transcription.URL, raw.STTURL)
	setString(&c.Transcription.APIKey, raw.STTAPIKey)
	setString(&c.Transcription.Model, raw.STTModel)
	setString(&c.Transcription.VoskModelPath, raw.VoskModelPath)
	setString(&c.Translation.URL, raw.TranslateURL)
	setString(&c.Translation.APIKey, raw.TranslateAPIKey)
	setString(&c.Translation.Model, raw.TranslateModel)
	setString(&c.Session.Dir, raw.SessionDir)
	setString(&c.Log.Level, raw.LogLevel)
	setString(&c.Server.MetricsAddr, raw.MetricsAddr)
	if raw.SilenceThreshold > 0 {
		c.VAD.SilenceThreshold = raw.SilenceThreshold
	}

	if c.Transcription.APIKey == "" && isOpenAIURL(c.Transcription.URL) {
		c.Transcription.APIKey = raw.OpenAIAPIKey
	}
	if c.Translation.APIKey == "" && isOpenAIURL(c.Translation.URL) {
		c.Translation.APIKey = raw.OpenAIAPIKey
	}

	return nil
}

// isOpenAIURL reports whether endpoint is served by api.openai.com
func isOpenAIURL(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), openAIHost)
}

const openAIHost = "api.openai.com"

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
