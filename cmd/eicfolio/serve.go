package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/httpapi"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the HTTP sync trigger" }
func (*serveCmd) Usage() string {
	return `eicfolio serve [-addr :3000]

  GET /api/update-eic-data   run a sync (409 while another one is running)
  GET /api/scrape-preview    scrape EIC without writing
  GET /api/runs              recent runs from the journal
  GET /health
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (overrides config)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return subcommands.ExitFailure
	}
	if c.addr != "" {
		cfg.Server.Addr = c.addr
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "err", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var srv *httpapi.Server
	if a.journal != nil {
		srv = httpapi.New(cfg.Server.Addr, a.engine, a.journal, slog.Default())
	} else {
		srv = httpapi.New(cfg.Server.Addr, a.engine, nil, slog.Default())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			slog.Error("server exited with error", "err", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown error", "err", err)
		}
	}

	slog.Info("eicfolio stopped cleanly")
	return subcommands.ExitSuccess
}
