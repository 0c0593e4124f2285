package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/alejandrodnm/eicfolio/config"
	"github.com/google/subcommands"
)

const defaultConfigPath = "config/config.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "path to config file")
	verbose    = flag.Bool("verbose", false, "set log level to debug")
	logFormat  = flag.String("format", "", "log format: text|json (overrides config)")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&syncCmd{}, "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&inspectCmd{}, "")
	commander.Register(&historyCmd{}, "")

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	cancel()
	os.Exit(int(status))
}

// loadConfig lee la configuración y deja el logger listo. Sin el archivo por
// defecto se usan solo el entorno y los defaults.
func loadConfig() (*config.Config, error) {
	p := *configPath
	if p == defaultConfigPath {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			p = ""
		}
	}

	cfg, err := config.Load(p)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", p)
		return nil, err
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stdout queda para las tablas
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
