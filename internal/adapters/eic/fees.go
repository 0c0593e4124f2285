package eic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"github.com/alejandrodnm/eicfolio/internal/ports"
)

// maxFeePages corta la paginación si el indicador nunca se repite.
const maxFeePages = 500

var (
	ErrNoFeeTable    = errors.New("no fee table displayed")
	ErrNoFeeCurrency = errors.New("no currency found in fee table")
	ErrTooManyPages  = errors.New("fee table pagination did not stop")
)

// ScrapeFeeTable lee todas las páginas de la tabla de comisiones. Se detiene
// cuando el indicador de página no cambia tras Next.
func ScrapeFeeTable(ctx context.Context, pager ports.FeeTablePager) ([]ports.FeeRow, error) {
	var rows []ports.FeeRow
	for page := 1; page <= maxFeePages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageRows, err := pager.Rows(ctx)
		if err != nil {
			return nil, fmt.Errorf("eic.ScrapeFeeTable: page %d rows: %w", page, err)
		}
		rows = append(rows, pageRows...)

		before, err := pager.PageIndicator(ctx)
		if err != nil {
			return nil, fmt.Errorf("eic.ScrapeFeeTable: page %d indicator: %w", page, err)
		}
		if err := pager.Next(ctx); err != nil {
			return nil, fmt.Errorf("eic.ScrapeFeeTable: page %d next: %w", page, err)
		}
		after, err := pager.PageIndicator(ctx)
		if err != nil {
			return nil, fmt.Errorf("eic.ScrapeFeeTable: page %d indicator: %w", page, err)
		}

		if before == after {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("eic.ScrapeFeeTable: %w after %d pages", ErrTooManyPages, maxFeePages)
}

// ParseFeeTable convierte las filas crudas. Toda la tabla comparte la divisa
// de la primera fila que trae código; se prefiere baggage, luego management,
// luego processing.
func ParseFeeTable(rows []ports.FeeRow) (domain.FeeTable, error) {
	table := domain.FeeTable{Fees: make([]domain.FeeRecord, 0, len(rows))}

	for i, row := range rows {
		rec, currency, err := feeRecord(row)
		if err != nil {
			return domain.FeeTable{}, fmt.Errorf("eic.ParseFeeTable: row %d: %w", i+1, err)
		}
		if table.Currency == "" {
			table.Currency = currency
		}
		table.Fees = append(table.Fees, rec)
	}

	if table.Currency == "" {
		return domain.FeeTable{}, fmt.Errorf("eic.ParseFeeTable: %w", ErrNoFeeCurrency)
	}
	return table, nil
}

func feeRecord(row ports.FeeRow) (domain.FeeRecord, string, error) {
	processing, err := normalize.ParseFeeAmount(row.ProcessingFee)
	if err != nil {
		return domain.FeeRecord{}, "", fmt.Errorf("processing fee: %w", err)
	}
	management, err := normalize.ParseFeeAmount(row.ManagementFee)
	if err != nil {
		return domain.FeeRecord{}, "", fmt.Errorf("management fee: %w", err)
	}
	baggage, err := normalize.ParseFeeAmount(row.BaggageFee)
	if err != nil {
		return domain.FeeRecord{}, "", fmt.Errorf("baggage fee: %w", err)
	}

	rec := domain.FeeRecord{
		ProcessingFee: processing.Value,
		ManagementFee: management.Value,
		BaggageFee:    baggage.Value,
	}
	if period := strings.TrimSpace(row.Period); period != "" {
		date, err := normalize.ParseMonthYear(period)
		if err != nil {
			return domain.FeeRecord{}, "", err
		}
		rec.Date = &date
	}

	var currency string
	for _, c := range []string{baggage.Currency, management.Currency, processing.Currency} {
		if c != "" {
			currency = c
			break
		}
	}
	return rec, currency, nil
}
