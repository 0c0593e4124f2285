package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/alejandrodnm/eicfolio/internal/adapters/notify"
	"github.com/google/subcommands"
)

type inspectCmd struct{}

func (*inspectCmd) Name() string     { return "inspect" }
func (*inspectCmd) Synopsis() string { return "scrape EIC and print what was found, without writing" }
func (*inspectCmd) Usage() string {
	return `eicfolio inspect

  Logs in to the EIC portal and prints the parsed transactions, orders,
  fee table and instrument map. Nothing is sent to Ghostfolio.
`
}

func (*inspectCmd) SetFlags(*flag.FlagSet) {}

func (*inspectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return subcommands.ExitFailure
	}
	if err := cfg.ValidateBroker(); err != nil {
		slog.Error("invalid config", "err", err)
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "err", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.engine.Preview(ctx)
	if err != nil {
		slog.Error("scrape failed", "err", err)
		return subcommands.ExitFailure
	}

	out := notify.NewConsole(false)
	out.PrintTransactions(p.Data.Transactions)
	out.PrintOrders(p.Data.Orders)
	out.PrintFees(p.Data.Fees)
	out.PrintInstruments(p.Instruments)
	return subcommands.ExitSuccess
}
