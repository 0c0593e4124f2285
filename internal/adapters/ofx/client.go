// Package ofx lee series históricas de cambio del endpoint público de OFX.
package ofx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/rest"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/shopspring/decimal"
)

const (
	defaultBase = "https://api.ofx.com/PublicSite.ApiService/SpotRateHistory"
	ratePerSec  = 2
	day         = 24 * time.Hour
)

// Client implementa ports.RateSource.
type Client struct {
	base string
	http *rest.Client
	exec *resilient.Executor
	now  func() time.Time
	log  *slog.Logger
}

type Options struct {
	Base     string
	Executor *resilient.Executor
	Logger   *slog.Logger
	HTTP     *rest.Client
	Now      func() time.Time // tests
}

func NewClient(opts Options) *Client {
	if opts.Base == "" {
		opts.Base = defaultBase
	}
	if opts.HTTP == nil {
		opts.HTTP = rest.NewClient(ratePerSec, 1)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = resilient.New(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		base: strings.TrimRight(opts.Base, "/"),
		http: opts.HTTP,
		exec: opts.Executor,
		now:  opts.Now,
		log:  opts.Logger.With("component", "ofx"),
	}
}

// historyResponse es la respuesta de SpotRateHistory.
type historyResponse struct {
	CurrentInterbankRate        float64 `json:"CurrentInterbankRate"`
	CurrentInverseInterbankRate float64 `json:"CurrentInverseInterbankRate"`
	HistoricalPoints            []struct {
		PointInTime          int64   `json:"PointInTime"`
		InterbankRate        float64 `json:"InterbankRate"`
		InverseInterbankRate float64 `json:"InverseInterbankRate"`
	} `json:"HistoricalPoints"`
}

// RatesForDateRange devuelve los cambios diarios from→to para [start, end]
// con un día de margen a cada lado. Si end cae hoy (UTC) no se añade margen
// al final para no pedir una ventana futura.
func (c *Client) RatesForDateRange(ctx context.Context, from, to string, start, end time.Time) (domain.ExchangeRateSeries, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if len(from) != 3 {
		return domain.ExchangeRateSeries{}, fmt.Errorf("ofx.RatesForDateRange: from currency %q must have three letters", from)
	}
	if len(to) != 3 {
		return domain.ExchangeRateSeries{}, fmt.Errorf("ofx.RatesForDateRange: target currency %q must have three letters", to)
	}

	startMs, endMs := c.window(start, end)
	u := fmt.Sprintf("%s/%s/%s/%d/%d?DecimalPlaces=6&ReportingInterval=daily&format=json", c.base, from, to, startMs, endMs)

	raw, err := resilient.Call(ctx, c.exec, resilient.Long("getRatesForDateRange"),
		func(ctx context.Context) (historyResponse, error) {
			var out historyResponse
			err := c.http.JSON(ctx, rest.Request{URL: u}, &out)
			return out, err
		})
	if err != nil {
		return domain.ExchangeRateSeries{}, fmt.Errorf("ofx.RatesForDateRange %s/%s: %w", from, to, err)
	}

	series := domain.ExchangeRateSeries{From: from, To: to}
	for _, p := range raw.HistoricalPoints {
		if p.InterbankRate <= 0 {
			return domain.ExchangeRateSeries{}, fmt.Errorf("ofx.RatesForDateRange %s/%s: non-positive rate at %d", from, to, p.PointInTime)
		}
		series.Rates = append(series.Rates, domain.ExchangeRate{
			Date:             time.UnixMilli(p.PointInTime).UTC(),
			RateFromCurrency: decimal.NewFromFloat(p.InterbankRate),
			RateInverted:     decimal.NewFromFloat(p.InverseInterbankRate),
		})
	}
	c.log.Debug("exchange rates fetched", "from", from, "to", to, "points", len(series.Rates))
	return series, nil
}

// window calcula los extremos en milisegundos.
func (c *Client) window(start, end time.Time) (int64, int64) {
	startMs := start.Add(-day).UnixMilli()
	if normalize.SameDay(end, c.now()) {
		return startMs, end.UnixMilli()
	}
	return startMs, end.Add(day).UnixMilli()
}
