package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alejandrodnm/eicfolio/config"
	"github.com/alejandrodnm/eicfolio/internal/adapters/browser"
	"github.com/alejandrodnm/eicfolio/internal/adapters/countrycodes"
	"github.com/alejandrodnm/eicfolio/internal/adapters/eic"
	"github.com/alejandrodnm/eicfolio/internal/adapters/ghostfolio"
	"github.com/alejandrodnm/eicfolio/internal/adapters/justetf"
	"github.com/alejandrodnm/eicfolio/internal/adapters/ofx"
	"github.com/alejandrodnm/eicfolio/internal/adapters/storage"
	"github.com/alejandrodnm/eicfolio/internal/application/reconcile"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
)

// app agrupa todo lo que vive durante un comando: Chrome, el diario y el engine.
type app struct {
	browser *browser.Browser
	journal *storage.SQLiteJournal
	engine  *reconcile.Engine
}

// newApp arranca Chrome, abre el diario si está configurado y cablea el engine.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := slog.Default()

	exec := resilient.New(log, resilient.WithLimits(cfg.LongWait(), cfg.ShortWait(), cfg.Retry.MaxRetries))

	b, err := browser.New(ctx, browser.Options{
		Headless: cfg.HeadlessBrowser(),
		ExecPath: cfg.EIC.ChromePath,
	}, log)
	if err != nil {
		return nil, err
	}
	a := &app{browser: b}

	scraper := eic.NewScraper(eic.Options{
		BaseURL:  cfg.EIC.BaseURL,
		Browser:  b,
		Executor: exec,
		Logger:   log,
		Settle:   cfg.Settle(),
	})
	broker := eic.NewSource(scraper, ports.Credentials{Login: cfg.EIC.Login, Password: cfg.EIC.Password}, log)

	portfolio := ghostfolio.NewClient(ghostfolio.Options{
		BaseURL:       cfg.Ghostfolio.URL,
		SecurityToken: cfg.Ghostfolio.SecurityToken,
		RatePerSec:    cfg.Ghostfolio.RatePerSec,
		Executor:      exec,
		Logger:        log,
	})

	sources := reconcile.Sources{
		Prices: justetf.NewClient(justetf.Options{
			APIBase:     cfg.Sources.JustETFAPI,
			ProfileBase: cfg.Sources.JustETFProfile,
			Executor:    exec,
			Profiles:    justetf.NewPageFetcher(b),
			Logger:      log,
		}),
		Countries: countrycodes.NewClient(countrycodes.Options{
			URL:      cfg.Sources.CountryCodesURL,
			Executor: exec,
			Logger:   log,
		}),
		Rates: ofx.NewClient(ofx.Options{
			Base:     cfg.Sources.OFXBase,
			Executor: exec,
			Logger:   log,
		}),
	}

	deps := reconcile.Deps{
		Broker:    broker,
		Portfolio: portfolio,
		Sources:   sources,
	}
	if cfg.Journal.DSN != "" {
		j, err := storage.NewSQLiteJournal(cfg.Journal.DSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.journal = j
		deps.Journal = j
	}

	a.engine = reconcile.NewEngine(deps, engineOptions(cfg), log)
	return a, nil
}

// Close cierra el diario y Chrome.
func (a *app) Close() error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.browser != nil {
		errs = append(errs, a.browser.Close())
	}
	return errors.Join(errs...)
}

func engineOptions(cfg *config.Config) reconcile.Options {
	return reconcile.Options{
		PlatformName: cfg.Ghostfolio.PlatformName,
		PlatformURL:  cfg.Ghostfolio.PlatformURL,
		AccountName:  cfg.Ghostfolio.AccountName,
		TargetTag:    cfg.Ghostfolio.TargetTag,
		FeeSymbol:    cfg.Ghostfolio.FeeSymbol,
		GatherData:   cfg.Ghostfolio.GatherData,
		BatchSize:    cfg.Sync.BatchSize,
		BatchDelay:   cfg.BatchDelay(),
		CreateDelay:  cfg.CreateDelay(),
	}
}

// openJournal abre solo el diario (history).
func openJournal(cfg *config.Config) (*storage.SQLiteJournal, error) {
	if cfg.Journal.DSN == "" {
		return nil, errors.New("journal is disabled: set journal.dsn or JOURNAL_DSN")
	}
	return storage.NewSQLiteJournal(cfg.Journal.DSN)
}
