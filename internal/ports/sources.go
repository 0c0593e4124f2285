package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// PriceSource es la fuente secundaria de precios y perfiles (justETF).
type PriceSource interface {
	// HistoricalSeries devuelve la serie de referencia; from/to son opcionales.
	HistoricalSeries(ctx context.Context, isin, currency string, from, to *time.Time) (domain.PriceSeries, error)
	// CountriesAndSectors devuelve los pesos del ETF. Falla si no suman ≥ 0.99.
	CountriesAndSectors(ctx context.Context, isin string) (domain.Allocation, error)
}

// CountryCodeSource devuelve la tabla de códigos ISO de países.
type CountryCodeSource interface {
	CountryCodes(ctx context.Context) ([]domain.CountryCode, error)
}

// RateSource devuelve cambios diarios con un día de margen a cada lado.
type RateSource interface {
	RatesForDateRange(ctx context.Context, from, to string, start, end time.Time) (domain.ExchangeRateSeries, error)
}
