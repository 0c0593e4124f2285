package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/google/uuid"
)

// Deps son los puertos que necesita una ejecución completa.
type Deps struct {
	Broker    ports.BrokerSource
	Portfolio ports.PortfolioOpener
	Sources   Sources
	// Journal es opcional.
	Journal ports.Journal
}

// Engine ejecuta el sync de principio a fin: scrape, mapa de instrumentos,
// entidades, perfiles, huecos históricos, órdenes y comisiones.
type Engine struct {
	deps  Deps
	opts  Options
	log   *slog.Logger
	sleep Sleeper
	now   func() time.Time
	newID func() string
}

// EngineOption configura un Engine.
type EngineOption func(*Engine)

// WithEngineSleeper reemplaza las pausas del pipeline (tests).
func WithEngineSleeper(s Sleeper) EngineOption {
	return func(e *Engine) { e.sleep = s }
}

// WithEngineClock fija el reloj y el generador de run ids (tests).
func WithEngineClock(now func() time.Time, newID func() string) EngineOption {
	return func(e *Engine) {
		e.now = now
		e.newID = newID
	}
}

func NewEngine(deps Deps, opts Options, log *slog.Logger, options ...EngineOption) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		deps:  deps,
		opts:  opts.withDefaults(),
		log:   log,
		sleep: pause,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Preview es lo que devuelve el scrape sin escribir nada remoto.
type Preview struct {
	Data        domain.BrokerData
	Instruments []domain.InstrumentDefinition
}

// Preview hace login en el broker y devuelve los datos parseados y el mapa
// de instrumentos.
func (e *Engine) Preview(ctx context.Context) (Preview, error) {
	data, err := e.deps.Broker.Collect(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("reconcile.Preview: %w", err)
	}
	instruments, err := BuildInstrumentMap(data.Orders, data.Transactions)
	if err != nil {
		return Preview{}, fmt.Errorf("reconcile.Preview: %w", err)
	}
	return Preview{Data: data, Instruments: instruments.Definitions()}, nil
}

// Run ejecuta una pasada completa. Devuelve siempre el resumen, también
// cuando falla: las escrituras ya hechas se conservan.
func (e *Engine) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     e.newID(),
		StartedAt: e.now().UTC(),
		Status:    domain.RunRunning,
	}
	log := e.log.With("run_id", summary.RunID)
	log.Info("sync starting")

	if e.deps.Journal != nil {
		if err := e.deps.Journal.StartRun(ctx, summary); err != nil {
			log.Warn("journal start failed", "err", err)
		}
	}

	err := e.run(ctx, log, &summary)

	summary.FinishedAt = e.now().UTC()
	summary.Status = domain.RunSucceeded
	if err != nil {
		summary.Status = domain.RunFailed
		summary.Error = err.Error()
	}

	if e.deps.Journal != nil {
		// El contexto puede estar cancelado; el cierre del registro no depende de él.
		if jerr := e.deps.Journal.FinishRun(context.WithoutCancel(ctx), summary); jerr != nil {
			log.Warn("journal finish failed", "err", jerr)
		}
	}

	if err != nil {
		log.Error("sync failed", "err", err, "writes", len(summary.Writes))
		return summary, err
	}
	log.Info("sync complete",
		"writes", len(summary.Writes),
		"orders", summary.Count(domain.WriteOrder),
		"fees", summary.Count(domain.WriteFee),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
	return summary, nil
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, summary *domain.RunSummary) error {
	if e.deps.Broker == nil || e.deps.Portfolio == nil {
		return errors.New("reconcile.Run: broker and portfolio are required")
	}

	// 1. Scrape
	data, err := e.deps.Broker.Collect(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.Run: collect broker data: %w", err)
	}

	// 2. Mapa de instrumentos
	instruments, err := BuildInstrumentMap(data.Orders, data.Transactions)
	if err != nil {
		return fmt.Errorf("reconcile.Run: %w", err)
	}
	defs := instruments.Definitions()
	log.Debug("instrument map built", "instruments", len(defs))

	// 3. Sesión de Ghostfolio, una por ejecución
	session, err := e.deps.Portfolio.Open(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.Run: open portfolio session: %w", err)
	}
	defer session.Close()

	rec := NewReconciler(session, e.deps.Sources, e.opts,
		WithSleeper(e.sleep),
		WithLogger(log),
		WithClock(e.now),
		WithWriteHook(func(w domain.Write) {
			summary.Writes = append(summary.Writes, w)
			if e.deps.Journal != nil {
				if err := e.deps.Journal.RecordWrite(context.WithoutCancel(ctx), summary.RunID, w); err != nil {
					log.Warn("journal write failed", "kind", w.Kind, "key", w.Key, "err", err)
				}
			}
		}),
	)

	// 4. Plataforma, etiqueta y cuenta
	platform, err := rec.EnsurePlatform(ctx)
	if err != nil {
		return err
	}
	if _, err := rec.EnsureTag(ctx, e.opts.TargetTag); err != nil {
		return err
	}
	account, err := rec.EnsureAccount(ctx, platform.ID)
	if err != nil {
		return err
	}

	// 5. Perfiles
	if err := rec.CreateMissingProfiles(ctx, defs); err != nil {
		return err
	}

	// 6. Huecos en la serie histórica
	if err := rec.FillGaps(ctx, defs); err != nil {
		return err
	}

	// 7. Órdenes de transacciones liquidadas
	if err := rec.CreateMissingOrders(ctx, data.Accounted(), account.ID, e.opts.TargetTag); err != nil {
		return err
	}

	// 8. Comisiones de gestión; el resto ya va en las órdenes
	if err := rec.ReconcileFees(ctx, data.Fees, e.opts.FeeSymbol, account.ID, e.opts.TargetTag); err != nil {
		return err
	}
	return nil
}
