package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/alejandrodnm/eicfolio/internal/adapters/notify"
	"github.com/google/subcommands"
)

type historyCmd struct {
	limit int
	run   string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recent sync runs from the journal" }
func (*historyCmd) Usage() string {
	return `eicfolio history [-n 20] [-run <run id>]

  Lists the most recent runs recorded in the journal, newest first. With
  -run, prints every remote write of that run.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "number of runs to show")
	f.StringVar(&c.run, "run", "", "show the writes of this run id")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return subcommands.ExitFailure
	}

	j, err := openJournal(cfg)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Journal.DSN)
		return subcommands.ExitFailure
	}
	defer j.Close()

	out := notify.NewConsole(false)

	if c.run != "" {
		writes, err := j.RunWrites(ctx, c.run)
		if err != nil {
			slog.Error("failed to read run", "err", err, "run_id", c.run)
			return subcommands.ExitFailure
		}
		out.PrintWrites(c.run, writes)
		return subcommands.ExitSuccess
	}

	runs, err := j.Runs(ctx, c.limit)
	if err != nil {
		slog.Error("failed to read history", "err", err)
		return subcommands.ExitFailure
	}
	out.PrintHistory(runs)
	return subcommands.ExitSuccess
}
