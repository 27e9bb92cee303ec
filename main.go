package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/iedon/slotmerge/config"
	"github.com/iedon/slotmerge/site"
	"github.com/iedon/slotmerge/watch"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitPagesFailed = 2
)

type cli struct {
	Src string `arg:"" optional:"" help:"Source directory containing _layout.html (default: src)."`
	Out string `arg:"" optional:"" help:"Output directory (default: dist)."`

	Watch    bool             `short:"w" help:"Keep running and rebuild on change."`
	Config   string           `short:"c" env:"SLOTMERGE_CONFIG" help:"JSON configuration file."`
	LogLevel string           `name:"log-level" env:"SLOTMERGE_LOG_LEVEL" help:"Log level: debug, info, warn or error."`
	Minify   bool             `env:"SLOTMERGE_MINIFY" help:"Minify merged pages."`
	Debounce time.Duration    `env:"SLOTMERGE_DEBOUNCE" help:"Quiet period before a watch rebuild (e.g. 150ms)."`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit."`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var flags cli
	parser, err := kong.New(&flags,
		kong.Name(APP_NAME),
		kong.Description("Merge page slot providers into a shared layout."),
		kong.Vars{"version": APP_SIGNATURE},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFatal
	}
	if _, err := parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		return exitFatal
	}

	cfg, err := loadConfig(&flags)
	if err != nil {
		newLogger("info").Error("config", "error", err)
		return exitFatal
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	svc, err := site.New(cfg, logger)
	if err != nil {
		logger.Error("startup", "error", err)
		return exitFatal
	}

	if _, err := svc.Clean(); err != nil {
		logger.Warn("cleanup", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := svc.Build(ctx, nil)
	if !cfg.Watch {
		switch {
		case report.Err != nil:
			return exitFatal
		case report.Failed > 0:
			return exitPagesFailed
		}
		return exitOK
	}

	if err := watchLoop(ctx, cfg, svc, logger); err != nil {
		logger.Error("watch", "error", err)
		return exitFatal
	}
	return exitOK
}

func loadConfig(flags *cli) (*config.Config, error) {
	cfg := config.Default()
	if flags.Config != "" {
		loaded, err := config.Load(flags.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.Src != "" {
		cfg.SourceDir = flags.Src
	}
	if flags.Out != "" {
		cfg.OutputDir = flags.Out
	}
	if flags.Watch {
		cfg.Watch = true
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.Minify {
		cfg.MinifyOutput = true
	}
	cfg.SetDebounce(flags.Debounce)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func watchLoop(ctx context.Context, cfg *config.Config, svc *site.Service, logger *slog.Logger) error {
	sched := watch.New(svc, watch.Options{
		Root:              svc.SourceDir(),
		Debounce:          cfg.Debounce,
		TransientSuffixes: cfg.TransientSuffixes,
		Logger:            logger,
	})
	src, err := watch.NewSource(svc.SourceDir(), sched, logger, svc.OutputDir())
	if err != nil {
		return err
	}
	go src.Run(ctx)

	logger.Info("Watching for changes", "source", svc.SourceDir())
	sched.Run(ctx)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
