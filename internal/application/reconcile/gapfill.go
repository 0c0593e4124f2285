package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
)

// ErrNoReferenceData significa que justETF no devolvió serie para el ISIN.
var ErrNoReferenceData = errors.New("no reference historical data")

// FillGaps completa la serie remota de cada instrumento con los puntos de
// justETF que falten. Los instrumentos se procesan de uno en uno y el primer
// error corta la cola.
func (r *Reconciler) FillGaps(ctx context.Context, defs []domain.InstrumentDefinition) error {
	for _, def := range defs {
		if err := r.fillInstrument(ctx, def); err != nil {
			return fmt.Errorf("reconcile.FillGaps %s: %w", def.Symbol, err)
		}
	}
	return nil
}

func (r *Reconciler) fillInstrument(ctx context.Context, def domain.InstrumentDefinition) error {
	remote, err := r.portfolio.MarketData(ctx, def.Symbol)
	if err != nil {
		return err
	}
	ref, err := r.src.Prices.HistoricalSeries(ctx, def.ISIN, def.Currency, nil, nil)
	if err != nil {
		return err
	}
	if len(ref.Points) == 0 {
		r.log.Error("unable to retrieve reference historical data", "symbol", def.Symbol, "isin", def.ISIN)
		return fmt.Errorf("%w for %s", ErrNoReferenceData, def.ISIN)
	}

	missing := MissingPoints(remote, ref.Points)
	batches := Batches(missing, r.opts.BatchSize)
	r.log.Debug("updating market data", "symbol", def.Symbol, "points", len(missing), "batches", len(batches))

	for i, batch := range batches {
		if i > 0 {
			if err := r.sleep(ctx, r.opts.BatchDelay); err != nil {
				return err
			}
		}
		if err := r.portfolio.SetMarketData(ctx, def.Symbol, batch); err != nil {
			return fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		r.record(domain.Write{
			Kind:     domain.WriteMarketData,
			Key:      def.Symbol,
			Detail:   fmt.Sprintf("%d points from %s", len(batch), batch[0].Date),
			Currency: def.Currency,
		})
	}

	if len(missing) > 0 {
		r.log.Info("market data filled", "symbol", def.Symbol, "points", len(missing))
	}
	return nil
}

// MissingPoints devuelve los puntos de referencia cuya fecha ISO no está en
// la serie remota, en el orden de la referencia.
func MissingPoints(remote []domain.MarketPrice, ref []domain.PricePoint) []domain.MarketPrice {
	have := make(map[string]bool, len(remote))
	for _, p := range remote {
		have[normalize.RemoteISO(p.Date)] = true
	}

	var out []domain.MarketPrice
	for _, p := range ref {
		date := normalize.ISO(p.Date)
		if have[date] {
			continue
		}
		have[date] = true
		out = append(out, domain.MarketPrice{Date: date, Price: p.Value})
	}
	return out
}

// Batches parte points en lotes de como mucho size elementos.
func Batches[T any](points []T, size int) [][]T {
	if size <= 0 {
		size = len(points)
	}
	var out [][]T
	for start := 0; start < len(points); start += size {
		end := min(start+size, len(points))
		out = append(out, points[start:end])
	}
	return out
}
