package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/dispatch"
	"github.com/emmett/livecap/internal/display"
	"github.com/emmett/livecap/internal/logging"
	"github.com/emmett/livecap/internal/metrics"
	"github.com/emmett/livecap/internal/output"
	grpcserver "github.com/emmett/livecap/internal/server/grpc"
	mcpserver "github.com/emmett/livecap/internal/server/mcp"
	"github.com/emmett/livecap/internal/session"
	"github.com/emmett/livecap/internal/stt"
	"github.com/emmett/livecap/internal/translate"
)

// Run modes
const (
	ModeCLI = "cli"
	ModeMCP = "mcp"
)

// CaptionerOptions holds settings that only come from the command line
type CaptionerOptions struct {
	// Mode selects the outer surface: console rendering or MCP over stdio
	Mode string

	// Format is the phrase event format: console (none), json or text
	Format string

	// ConfigPath is watched for changes when set
	ConfigPath string

	// Overrides re-applies command line settings to a reloaded config
	Overrides func(*config.Config)

	// Hotkey registers hotkey and toggles flag on each press until ctx is
	// cancelled. Nil when the binary is built without hotkey support.
	Hotkey HotkeyFunc

	Version string
}

// HotkeyFunc runs a global hotkey that toggles the session flag
type HotkeyFunc func(ctx context.Context, flag *session.Flag, hotkey string) error

// Captioner wires capture, segmentation, dispatch and the outer surfaces
// together and runs them until the context is cancelled.
type Captioner struct {
	cfg  *config.Config
	opts CaptionerOptions
}

// NewCaptioner creates a new Captioner instance
func NewCaptioner(cfg *config.Config, opts CaptionerOptions) *Captioner {
	if opts.Mode == "" {
		opts.Mode = ModeCLI
	}
	if opts.Format == "" {
		opts.Format = "console"
	}
	return &Captioner{cfg: cfg, opts: opts}
}

// Run starts the captioning session and blocks until ctx is cancelled or a
// required component fails.
func (c *Captioner) Run(ctx context.Context) error {
	if c.opts.Mode != ModeCLI && c.opts.Mode != ModeMCP {
		return fmt.Errorf("unknown mode: %s (valid: cli, mcp)", c.opts.Mode)
	}

	store := config.NewStore(c.cfg)
	cfg := store.Snapshot()

	// stdout carries the MCP transport, so everything else goes to stderr there
	var stdout io.Writer = os.Stdout
	if c.opts.Mode == ModeMCP {
		stdout = os.Stderr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	client := &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSecs) * time.Second}

	transcriber, err := newTranscriber(cfg, client)
	if err != nil {
		return err
	}
	defer transcriber.Close()

	events, err := output.NewFormatter(c.opts.Format, stdout)
	if err != nil {
		return err
	}
	if events != nil {
		defer events.Close()
	}

	// Status lines stay out of a phrase event stream
	var statusOut io.Writer = stdout
	if events != nil {
		statusOut = os.Stderr
	}
	console := output.NewConsoleOutput(output.ConsoleConfig{
		ShowTimestamp: true,
		Writer:        statusOut,
		ErrWriter:     os.Stderr,
	})

	cell := display.NewCell()
	flag := session.NewFlag(cfg.Session.StartActive)
	dispatcher := dispatch.NewDispatcher(transcriber, translate.NewChatTranslator(client), cell, m)

	captureCfg, err := captureConfig(cfg)
	if err != nil {
		return err
	}
	buf := audio.NewSampleBuffer(48000)
	capturer, err := audio.NewCapturer(captureCfg, buf)
	if err != nil {
		return fmt.Errorf("failed to create capturer: %w", err)
	}

	pipeline := NewPipeline(PipelineDeps{
		Store:      store,
		Buffer:     buf,
		Rate:       capturer,
		Session:    flag,
		Dispatcher: dispatcher,
		Cell:       cell,
		Metrics:    m,
		Events:     events,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// A capture failure leaves the pipeline idle at rate 0 instead of exiting.
	if err := capturer.Start(gctx); err != nil {
		logging.Errorw("audio capture failed", "device", cfg.Audio.Device, "error", err)
		console.Error(fmt.Sprintf("Audio capture unavailable: %v", err))
	} else {
		defer capturer.Stop()
	}

	g.Go(func() error {
		return pipeline.Run(gctx)
	})

	if cfg.Server.MetricsAddr != "" {
		g.Go(func() error {
			logging.Infow("metrics server listening", "addr", cfg.Server.MetricsAddr)
			return metrics.Serve(gctx, cfg.Server.MetricsAddr, reg)
		})
	}

	if cfg.Server.GRPCPort > 0 {
		srv := grpcserver.NewServer(grpcserver.Config{Port: cfg.Server.GRPCPort}, flag)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if cfg.Session.Hotkey != "" {
		g.Go(func() error {
			return c.runHotkey(gctx, flag, cfg.Session.Hotkey)
		})
	}

	if c.opts.ConfigPath != "" {
		g.Go(func() error {
			return store.Watch(gctx, c.opts.ConfigPath, c.reloadConfig, func(err error) {
				logging.Warnw("config reload failed", "path", c.opts.ConfigPath, "error", err)
			})
		})
	}

	switch c.opts.Mode {
	case ModeMCP:
		printMCPBanner(os.Stderr, c.opts.Version, c.opts.ConfigPath)
		srv := mcpserver.NewServer(mcpserver.Config{
			ServerName:    "livecap",
			ServerVersion: c.opts.Version,
		}, flag, cell, func() any { return pipeline.Status() })
		g.Go(func() error {
			// The process ends with the client connection.
			defer cancel()
			return srv.Run(gctx)
		})
	default:
		c.printBanner(console, cfg, flag)
		// Phrase events replace the rendered caption on stdout
		if events == nil {
			g.Go(func() error {
				console.Render(gctx, cell)
				return nil
			})
		}
	}

	err = g.Wait()
	logging.Infow("captioner stopped", "phrases", pipeline.Status().Phrases)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runHotkey never fails the group: without a hotkey the session is still
// driven by --start or over MCP.
func (c *Captioner) runHotkey(ctx context.Context, flag *session.Flag, hotkey string) error {
	if c.opts.Hotkey == nil {
		logging.Warnw("hotkey support not compiled in", "hotkey", hotkey)
		return nil
	}
	if err := c.opts.Hotkey(ctx, flag, hotkey); err != nil {
		logging.Warnw("hotkey unavailable", "hotkey", hotkey, "error", err)
	}
	return nil
}

func (c *Captioner) printBanner(console *output.ConsoleOutput, cfg config.Config, flag *session.Flag) {
	console.Info(fmt.Sprintf("Transcribing %s with %s (%s)",
		translate.LanguageName(cfg.Transcription.Language), cfg.Transcription.Model, cfg.Transcription.Backend))
	if cfg.Translation.TargetLanguage != "" {
		console.Info(fmt.Sprintf("Translating to %s with %s", translate.LanguageName(cfg.Translation.TargetLanguage), cfg.Translation.Model))
	}
	if cfg.Session.Hotkey != "" && c.opts.Hotkey != nil {
		console.Info(fmt.Sprintf("Press %s to start or stop a session. Press Ctrl+C to quit.", strings.ToUpper(cfg.Session.Hotkey)))
	}
	if flag.Active() {
		console.Info("Session active")
	}
}

// captureConfig maps the audio settings onto the capture device config
func captureConfig(cfg config.Config) (audio.CaptureConfig, error) {
	format, err := audio.ParseSampleFormat(cfg.Audio.Format)
	if err != nil {
		return audio.CaptureConfig{}, err
	}
	return audio.CaptureConfig{
		DeviceName:   cfg.Audio.Device,
		SampleRate:   cfg.Audio.SampleRate,
		Channels:     cfg.Audio.Channels,
		Format:       format,
		BufferFrames: cfg.Audio.BufferFrames,
	}, nil
}

// newTranscriber builds the configured transcription backend
func newTranscriber(cfg config.Config, client *http.Client) (stt.Transcriber, error) {
	switch cfg.Transcription.Backend {
	case "", config.BackendHTTP:
		return stt.NewHTTPTranscriber(client), nil
	case config.BackendVosk:
		v, err := stt.NewVoskTranscriber(cfg.Transcription.VoskModelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vosk backend: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %s", cfg.Transcription.Backend)
	}
}

// reloadConfig reads a changed config file the same way startup does
func (c *Captioner) reloadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.opts.Overrides != nil {
		c.opts.Overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Infow("config reloaded", "path", path)
	return cfg, nil
}
