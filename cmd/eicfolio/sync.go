package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/alejandrodnm/eicfolio/internal/adapters/notify"
	"github.com/google/subcommands"
)

type syncCmd struct {
	details bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "scrape EIC and bring Ghostfolio up to date" }
func (*syncCmd) Usage() string {
	return `eicfolio sync [-details]

  Logs in to the EIC portal, downloads transactions, orders and fees, and
  creates whatever Ghostfolio is missing: platform, account, tag, asset
  profiles, historical prices, orders and management fees.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.details, "details", false, "print every remote write, not only the totals")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return subcommands.ExitFailure
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

	slog.Info("eicfolio sync starting",
		"ghostfolio", cfg.Ghostfolio.URL,
		"account", cfg.Ghostfolio.AccountName,
		"tag", cfg.Ghostfolio.TargetTag,
		"journal", cfg.Journal.DSN != "",
	)

	summary, runErr := a.engine.Run(ctx)
	if err := notify.NewConsole(c.details).Report(ctx, summary); err != nil {
		slog.Warn("reporter error", "err", err)
	}
	if runErr != nil {
		slog.Error("sync failed", "run_id", summary.RunID, "err", runErr)
		return subcommands.ExitFailure
	}

	slog.Info("sync complete", "run_id", summary.RunID, "writes", len(summary.Writes))
	return subcommands.ExitSuccess
}
