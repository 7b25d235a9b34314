package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/livecap/internal/app"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/logging"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// CLI flags
var (
	configFile    = flag.String("config", "", "Path to configuration file (default: ~/.livecaprc or /etc/livecap/config.yaml)")
	mode          = flag.String("mode", app.ModeCLI, "Operation mode: cli, mcp")
	audioDevice   = flag.String("device", "", "Audio input device name (use --list-devices to see available devices)")
	listDevices   = flag.Bool("list-devices", false, "List all available audio input devices")
	listLanguages = flag.Bool("list-languages", false, "List spoken and translation language codes")
	threshold     = flag.Float64("threshold", 0.003, "RMS level above which a batch counts as speech")
	language      = flag.String("language", "ko", "Spoken language code sent to the transcription service")
	target        = flag.String("target", "en", "Translation target language code (empty disables translation)")
	displayMode   = flag.String("display", string(config.DisplayTranslationOnly), "Display mode: translation_only, both")
	outputFormat  = flag.String("format", "console", "Phrase event output: console (none), json, text")
	startActive   = flag.Bool("start", false, "Start with a session already active")
	hotkeyStr     = flag.String("hotkey", "ctrl+shift+space", "Hotkey that toggles the session (empty disables it)")
	metricsAddr   = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	grpcPort      = flag.Int("grpc-port", 0, "Serve gRPC health checks on this port (0 disables it)")
	logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion   = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("livecap v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	dm := app.NewDeviceManager(os.Stdout)

	if *listDevices {
		if err := dm.ListDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *listLanguages {
		dm.ListLanguages()
		return
	}

	cfg, cfgPath, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg, cfgPath = config.DefaultConfig(), ""
	}

	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	overrides, err := applyConfigDefaults()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	overrides(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	if _, err := logging.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.Infow("starting livecap",
		"version", Version,
		"commit", GitCommit,
		"mode", *mode,
		"config", cfgPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	captioner := app.NewCaptioner(cfg, app.CaptionerOptions{
		Mode:       *mode,
		Format:     *outputFormat,
		ConfigPath: cfgPath,
		Overrides:  overrides,
		Hotkey:     hotkeyFunc,
		Version:    Version,
	})

	if err := captioner.Run(ctx); err != nil {
		logging.Errorw("livecap exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logging.Sync()
		os.Exit(1)
	}
}

// applyConfigDefaults returns a function that writes every explicitly set
// flag into a config. Flags left at their defaults keep the config value.
func applyConfigDefaults() (func(*config.Config), error) {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	var mode config.DisplayMode
	if flagsSet["display"] {
		var err error
		if mode, err = config.ParseDisplayMode(*displayMode); err != nil {
			return nil, err
		}
	}

	return func(cfg *config.Config) {
		if flagsSet["device"] {
			cfg.Audio.Device = *audioDevice
		}
		if flagsSet["threshold"] {
			cfg.VAD.SilenceThreshold = *threshold
		}
		if flagsSet["language"] {
			cfg.Transcription.Language = *language
		}
		if flagsSet["target"] {
			cfg.Translation.TargetLanguage = *target
		}
		if flagsSet["display"] {
			cfg.Display.Mode = mode
		}
		if flagsSet["start"] {
			cfg.Session.StartActive = *startActive
		}
		if flagsSet["hotkey"] {
			cfg.Session.Hotkey = *hotkeyStr
		}
		if flagsSet["metrics-addr"] {
			cfg.Server.MetricsAddr = *metricsAddr
		}
		if flagsSet["grpc-port"] {
			cfg.Server.GRPCPort = *grpcPort
		}
		if flagsSet["log-level"] {
			cfg.Log.Level = *logLevel
		}
	}, nil
}
