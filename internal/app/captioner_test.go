package app

import (
	"context"
	"encoding/json"
	"errors"
	"go/parser"
	"go/token"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/session"
	"github.com/emmett/livecap/internal/stt"
)

func TestNewTranscriber(t *testing.T) {
	cfg := *config.DefaultConfig()

	tr, err := newTranscriber(cfg, http.DefaultClient)
	if err != nil {
		t.Fatalf("newTranscriber failed: %v", err)
	}
	if _, ok := tr.(*stt.HTTPTranscriber); !ok {
		t.Errorf("Expected *stt.HTTPTranscriber, got %T", tr)
	}

	cfg.Transcription.Backend = "carrier-pigeon"
	if _, err := newTranscriber(cfg, http.DefaultClient); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestCaptionerDefaults(t *testing.T) {
	c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{})
	if c.opts.Mode != ModeCLI {
		t.Errorf("Expected mode %q, got %q", ModeCLI, c.opts.Mode)
	}
	if c.opts.Format != "console" {
		t.Errorf("Expected format console, got %q", c.opts.Format)
	}
}

func TestCaptionerUnknownMode(t *testing.T) {
	c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{Mode: "gui"})
	err := c.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("Expected unknown mode error, got %v", err)
	}
}

func TestReloadConfigKeepsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "translation:\n  target_language: ja\nvad:\n  silence_threshold: 0.02\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{
		Overrides: func(cfg *config.Config) {
			cfg.VAD.SilenceThreshold = 0.05
		},
	})

	cfg, err := c.reloadConfig(path)
	if err != nil {
		t.Fatalf("reloadConfig failed: %v", err)
	}
	if cfg.Translation.TargetLanguage != "ja" {
		t.Errorf("Expected target ja from file, got %q", cfg.Translation.TargetLanguage)
	}
	if cfg.VAD.SilenceThreshold != 0.05 {
		t.Errorf("Expected overridden threshold 0.05, got %v", cfg.VAD.SilenceThreshold)
	}
}

func TestReloadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vad:\n  silence_chunks: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{})
	if _, err := c.reloadConfig(path); err == nil {
		t.Error("Expected validation error")
	}
}

func TestMCPClientConfig(t *testing.T) {
	data, err := MCPClientConfig("/usr/local/bin/livecap", "/etc/livecap/config.yaml")
	if err != nil {
		t.Fatalf("MCPClientConfig failed: %v", err)
	}

	var got mcpClientConfig
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	entry, ok := got.MCPServers["livecap"]
	if !ok {
		t.Fatalf("missing livecap entry: %s", data)
	}
	want := []string{"--mode", "mcp", "--config", "/etc/livecap/config.yaml"}
	if entry.Command != "/usr/local/bin/livecap" || strings.Join(entry.Args, " ") != strings.Join(want, " ") {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestCaptureConfig(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.Audio.Device = "USB Mic"
	cfg.Audio.Format = "s16"
	cfg.Audio.SampleRate = 16000
	cfg.Audio.Channels = 2
	cfg.Audio.BufferFrames = 480

	got, err := captureConfig(cfg)
	if err != nil {
		t.Fatalf("captureConfig failed: %v", err)
	}
	want := audio.CaptureConfig{
		DeviceName:   "USB Mic",
		SampleRate:   16000,
		Channels:     2,
		Format:       audio.FormatS16,
		BufferFrames: 480,
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	cfg.Audio.Format = "u8"
	if _, err := captureConfig(cfg); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRunHotkey(t *testing.T) {
	flag := session.NewFlag(false)

	t.Run("not compiled in", func(t *testing.T) {
		c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{})
		if err := c.runHotkey(context.Background(), flag, "ctrl+shift+space"); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})

	t.Run("registration fails", func(t *testing.T) {
		c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{
			Hotkey: func(context.Context, *session.Flag, string) error {
				return errors.New("no display")
			},
		})
		if err := c.runHotkey(context.Background(), flag, "ctrl+shift+space"); err != nil {
			t.Errorf("hotkey failure must not stop the captioner, got %v", err)
		}
	})

	t.Run("toggles session", func(t *testing.T) {
		var gotKey string
		c := NewCaptioner(config.DefaultConfig(), CaptionerOptions{
			Hotkey: func(_ context.Context, f *session.Flag, hotkey string) error {
				gotKey = hotkey
				f.Toggle()
				return nil
			},
		})
		if err := c.runHotkey(context.Background(), flag, "alt+f9"); err != nil {
			t.Fatalf("runHotkey failed: %v", err)
		}
		if gotKey != "alt+f9" || !flag.Active() {
			t.Errorf("Expected hotkey alt+f9 to activate the session, got key %q active %v", gotKey, flag.Active())
		}
	})
}

// The hotkey library opens an X11 display at init; the app package must
// not link it so headless builds and tests can start.
func TestAppDoesNotImportHotkey(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if strings.HasSuffix(path, "/internal/input") || strings.HasPrefix(path, "golang.design/x/hotkey") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
