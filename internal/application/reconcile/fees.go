package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"github.com/shopspring/decimal"
)

var (
	// ErrRateNotFound significa que la serie de cambios no cubre la fecha de una comisión.
	ErrRateNotFound = errors.New("rate was not found")
	// ErrUndatedFee significa que llegó a conversión una comisión sin fecha.
	ErrUndatedFee = errors.New("fee without date is invalid")
)

// ReconcileFees crea en Ghostfolio las comisiones de gestión que falten.
//
//	COLLECT → DIFF → (DIRECT | RATE_FETCH → CONVERT) → CREATE* → DONE
//
// Si la divisa de la tabla difiere de la divisa base, cada importe se
// multiplica por el cambio del mismo día. Se crean de la más reciente a la
// más antigua.
func (r *Reconciler) ReconcileFees(ctx context.Context, table domain.FeeTable, feeSymbol, accountID, tagName string) error {
	user, err := r.user(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.ReconcileFees: %w", err)
	}
	base := user.BaseCurrency

	var tags []domain.Tag
	if tagName != "" {
		tag, err := r.EnsureTag(ctx, tagName)
		if err != nil {
			return fmt.Errorf("reconcile.ReconcileFees: %w", err)
		}
		tags = []domain.Tag{tag}
	}

	// COLLECT
	for i, f := range table.Fees {
		if f.Date == nil {
			r.log.Warn("fee without date skipped", "row", i, "management_fee", f.ManagementFee.String())
		}
	}
	toControl := CollectFees(table.Fees)

	// DIFF
	orders, err := r.portfolio.Orders(ctx)
	if err != nil {
		return fmt.Errorf("reconcile.ReconcileFees: %w", err)
	}
	toAdd := FeesToAdd(toControl, orders, feeSymbol)
	if len(toAdd) == 0 {
		r.log.Info("no management fee to add")
		return nil
	}
	r.log.Debug("management fees will be added", "count", len(toAdd), "currency", table.Currency, "base", base)

	// DIRECT | RATE_FETCH → CONVERT
	var series *domain.ExchangeRateSeries
	if !strings.EqualFold(table.Currency, base) {
		oldest, newest := *toAdd[0].Date, *toAdd[len(toAdd)-1].Date
		s, err := r.src.Rates.RatesForDateRange(ctx, table.Currency, base, oldest, newest)
		if err != nil {
			return fmt.Errorf("reconcile.ReconcileFees: %w", err)
		}
		series = &s
	}
	amounts, err := ConvertFees(toAdd, series)
	if err != nil {
		return fmt.Errorf("reconcile.ReconcileFees: %w", err)
	}

	// CREATE*
	for i := len(toAdd) - 1; i >= 0; i-- {
		day := normalize.Dot(*toAdd[i].Date)
		order := domain.NewActivity{
			AccountID:  accountID,
			Currency:   base,
			DataSource: domain.DataSourceManual,
			Date:       normalize.ISO(*toAdd[i].Date),
			Fee:        amounts[i],
			Quantity:   decimal.Zero,
			Symbol:     FeeOrderSymbol(feeSymbol, *toAdd[i].Date),
			Tags:       tags,
			Type:       domain.ActivityFee,
			UnitPrice:  decimal.Zero,
		}
		if _, err := r.portfolio.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("reconcile.ReconcileFees %s: %w", day, err)
		}
		r.log.Info("management fee created", "date", day, "fee", amounts[i].String(), "currency", base)
		r.record(domain.Write{
			Kind:     domain.WriteFee,
			Key:      order.Symbol,
			Detail:   fmt.Sprintf("%s %s", toAdd[i].ManagementFee.String(), strings.ToUpper(table.Currency)),
			Amount:   amounts[i],
			Currency: base,
		})
	}
	return nil
}

// CollectFees se queda con las comisiones fechadas con managementFee > 0,
// ordenadas de la más antigua a la más reciente.
func CollectFees(fees []domain.FeeRecord) []domain.FeeRecord {
	out := make([]domain.FeeRecord, 0, len(fees))
	for _, f := range fees {
		if f.Date != nil && f.ManagementFee.IsPositive() {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(*out[j].Date) })
	return out
}

// FeesToAdd devuelve las comisiones sin orden de comisión remota el mismo
// día (DD.MM.YYYY), como mucho una por día. Una orden remota es de comisión
// si su símbolo o el nombre de su perfil contiene feeSymbol.
func FeesToAdd(fees []domain.FeeRecord, orders []domain.Activity, feeSymbol string) []domain.FeeRecord {
	present := make(map[string]bool)
	for _, o := range orders {
		if !strings.Contains(o.ProfileName, feeSymbol) && !strings.Contains(o.Symbol, feeSymbol) {
			continue
		}
		t, err := normalize.ParseRemoteDate(o.Date)
		if err != nil {
			continue
		}
		present[normalize.Dot(t)] = true
	}

	var out []domain.FeeRecord
	for _, f := range fees {
		if f.Date == nil {
			continue
		}
		key := normalize.Dot(*f.Date)
		if !present[key] {
			out = append(out, f)
			present[key] = true
		}
	}
	return out
}

// ConvertFees devuelve el importe de gestión de cada comisión en la divisa
// base. Con series nil los importes se usan tal cual.
func ConvertFees(fees []domain.FeeRecord, series *domain.ExchangeRateSeries) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(fees))
	for i, f := range fees {
		if f.Date == nil {
			return nil, ErrUndatedFee
		}
		if series == nil {
			out[i] = f.ManagementFee
			continue
		}
		rate, ok := series.RateOn(*f.Date)
		if !ok {
			return nil, fmt.Errorf("%w for date %s", ErrRateNotFound, normalize.Dot(*f.Date))
		}
		out[i] = f.ManagementFee.Mul(rate.RateFromCurrency)
	}
	return out, nil
}

// FeeOrderSymbol es el símbolo de la orden de comisión de un mes,
// p. ej. "EIC-MNG-FEE (01.02.2024)".
func FeeOrderSymbol(feeSymbol string, date time.Time) string {
	return fmt.Sprintf("%s (%s)", feeSymbol, normalize.Dot(date))
}
