// Package justetf reads reference price series from the justETF chart API and
// country/sector weights from the ETF profile page.
package justetf

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/rest"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/shopspring/decimal"
)

const (
	defaultAPIBase     = "https://www.justetf.com/api/etfs"
	defaultProfileBase = "https://www.justetf.com/en/etf-profile.html"

	// justETF limita agresivamente; 1 req/s es lo que tolera sin 429.
	apiRatePerSec = 1
)

// ProfileFetcher extracts the raw allocation tables from a profile page.
type ProfileFetcher interface {
	FetchAllocation(ctx context.Context, pageURL string) (RawAllocation, error)
}

// Client implements ports.PriceSource.
type Client struct {
	apiBase     string
	profileBase string
	http        *rest.Client
	exec        *resilient.Executor
	profiles    ProfileFetcher
	log         *slog.Logger
}

// Options configures a Client. Empty bases use the production URLs.
type Options struct {
	APIBase     string
	ProfileBase string
	Executor    *resilient.Executor
	Profiles    ProfileFetcher
	Logger      *slog.Logger
	HTTP        *rest.Client
}

func NewClient(opts Options) *Client {
	if opts.APIBase == "" {
		opts.APIBase = defaultAPIBase
	}
	if opts.ProfileBase == "" {
		opts.ProfileBase = defaultProfileBase
	}
	if opts.HTTP == nil {
		opts.HTTP = rest.NewClient(apiRatePerSec, 1)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = resilient.New(opts.Logger)
	}
	return &Client{
		apiBase:     strings.TrimRight(opts.APIBase, "/"),
		profileBase: opts.ProfileBase,
		http:        opts.HTTP,
		exec:        opts.Executor,
		profiles:    opts.Profiles,
		log:         opts.Logger.With("component", "justetf"),
	}
}

// chartResponse is GET /api/etfs/{isin}/performance-chart.
type chartResponse struct {
	LatestDate *string `json:"latestDate"`
	Series     []struct {
		Date  *string `json:"date"`
		Value *struct {
			Raw *float64 `json:"raw"`
		} `json:"value"`
	} `json:"series"`
}

// HistoricalSeries fetches the market-value series with dividends included.
func (c *Client) HistoricalSeries(ctx context.Context, isin, currency string, from, to *time.Time) (domain.PriceSeries, error) {
	u := c.seriesURL(isin, currency, from, to)

	raw, err := resilient.Call(ctx, c.exec, resilient.Long("getHistoricalData"),
		func(ctx context.Context) (chartResponse, error) {
			var out chartResponse
			err := c.http.JSON(ctx, rest.Request{URL: u}, &out)
			return out, err
		})
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("justetf.HistoricalSeries %s: %w", isin, err)
	}

	series, err := mapChart(raw, isin, currency)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("justetf.HistoricalSeries: %w", err)
	}
	c.log.Debug("historical series fetched", "isin", isin, "points", len(series.Points))
	return series, nil
}

func (c *Client) seriesURL(isin, currency string, from, to *time.Time) string {
	q := url.Values{}
	q.Set("locale", "en")
	q.Set("valuesType", "MARKET_VALUE")
	q.Set("reduceData", "false")
	q.Set("includeDividends", "true")
	q.Set("features", "DIVIDENDS")
	q.Set("currency", currency)
	if from != nil && to != nil {
		q.Set("dateFrom", from.UTC().Format(normalize.DashLayout))
		q.Set("dateTo", to.UTC().Format(normalize.DashLayout))
	}
	return fmt.Sprintf("%s/%s/performance-chart?%s", c.apiBase, url.PathEscape(isin), q.Encode())
}

func mapChart(raw chartResponse, isin, currency string) (domain.PriceSeries, error) {
	if raw.LatestDate == nil {
		return domain.PriceSeries{}, fmt.Errorf("no latestDate in historical data for %s", isin)
	}
	latest, err := time.ParseInLocation(normalize.DashLayout, *raw.LatestDate, time.UTC)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("latestDate for %s: %w", isin, err)
	}

	out := domain.PriceSeries{ISIN: isin, Currency: currency, LatestDate: latest}
	for i, s := range raw.Series {
		if s.Date == nil {
			return domain.PriceSeries{}, fmt.Errorf("series[%d] of %s has no date", i, isin)
		}
		if s.Value == nil || s.Value.Raw == nil {
			return domain.PriceSeries{}, fmt.Errorf("series[%d] of %s has no value", i, isin)
		}
		d, err := time.ParseInLocation(normalize.DashLayout, *s.Date, time.UTC)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("series[%d] of %s: %w", i, isin, normalize.ErrBadDate)
		}
		out.Points = append(out.Points, domain.PricePoint{Date: d, Value: decimal.NewFromFloat(*s.Value.Raw)})
	}
	return out, nil
}
