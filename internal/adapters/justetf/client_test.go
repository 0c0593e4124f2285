package justetf_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/justetf"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(apiBase string, profiles justetf.ProfileFetcher) *justetf.Client {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return justetf.NewClient(justetf.Options{
		APIBase:     apiBase,
		ProfileBase: "https://example.test/etf-profile.html",
		Profiles:    profiles,
		Logger:      log,
		Executor:    resilient.New(log, resilient.WithSleep(func(context.Context, time.Duration) error { return nil })),
	})
}

func TestHistoricalSeries_Success(t *testing.T) {
	data, err := os.ReadFile("../../../testdata/fixtures/justetf_chart.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/IE000123/performance-chart", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "EUR", q.Get("currency"))
		assert.Equal(t, "MARKET_VALUE", q.Get("valuesType"))
		assert.Equal(t, "true", q.Get("includeDividends"))
		assert.Equal(t, "2024-01-01", q.Get("dateFrom"))
		assert.Equal(t, "2024-03-31", q.Get("dateTo"))
		w.Write(data)
	}))
	defer srv.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	series, err := newClient(srv.URL, nil).HistoricalSeries(context.Background(), "IE000123", "EUR", &from, &to)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), series.LatestDate)
	require.Len(t, series.Points, 3)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.Equal(t, "101.25", series.Points[0].Value.String())
}

func TestHistoricalSeries_NoDateRangeOmitsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("dateFrom"))
		w.Write([]byte(`{"latestDate":"2024-03-04","series":[]}`))
	}))
	defer srv.Close()

	series, err := newClient(srv.URL, nil).HistoricalSeries(context.Background(), "IE000123", "EUR", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, series.Points)
}

func TestHistoricalSeries_MissingLatestDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"series":[]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).HistoricalSeries(context.Background(), "IE000123", "EUR", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latestDate")
}

func TestHistoricalSeries_MissingValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latestDate":"2024-03-04","series":[{"date":"2024-03-01"}]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).HistoricalSeries(context.Background(), "IE000123", "EUR", nil, nil)
	assert.Error(t, err)
}

type stubProfiles struct {
	url string
	raw justetf.RawAllocation
	err error
}

func (s *stubProfiles) FetchAllocation(_ context.Context, pageURL string) (justetf.RawAllocation, error) {
	s.url = pageURL
	return s.raw, s.err
}

func TestCountriesAndSectors(t *testing.T) {
	stub := &stubProfiles{raw: justetf.RawAllocation{
		Countries: []justetf.RawRow{{"United States", "60.5%"}, {"Ireland", "39.5%"}},
		Sectors:   []justetf.RawRow{{"Technology", "100.00%"}},
	}}

	alloc, err := newClient("", stub).CountriesAndSectors(context.Background(), "IE000123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/etf-profile.html?isin=IE000123", stub.url)
	require.Len(t, alloc.Countries, 2)
	assert.InDelta(t, 0.605, alloc.Countries[0].Weight, 1e-9)
	assert.Equal(t, "Technology", alloc.Sectors[0].Name)
}

func TestCountriesAndSectors_FetchError(t *testing.T) {
	stub := &stubProfiles{err: errors.New("chrome crashed")}
	_, err := newClient("", stub).CountriesAndSectors(context.Background(), "IE000123")
	var callErr *resilient.CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "getCountriesAndSectors", callErr.Op)
	assert.ErrorContains(t, err, "failed call getCountriesAndSectors(): chrome crashed")
}

func TestParseAllocation_ImplausibleCountries(t *testing.T) {
	_, err := justetf.ParseAllocation(justetf.RawAllocation{
		Countries: []justetf.RawRow{{"United States", "60%"}, {"Ireland", "30%"}},
	})
	assert.ErrorIs(t, err, justetf.ErrImplausibleWeights)
}

func TestParseAllocation_OnlyOtherSectorIsAccepted(t *testing.T) {
	alloc, err := justetf.ParseAllocation(justetf.RawAllocation{
		Sectors: []justetf.RawRow{{"Other", "12.00%"}},
	})
	require.NoError(t, err)
	require.Len(t, alloc.Sectors, 1)
	assert.Nil(t, alloc.Countries)
}

func TestParseAllocation_BadPercentage(t *testing.T) {
	_, err := justetf.ParseAllocation(justetf.RawAllocation{
		Countries: []justetf.RawRow{{"Ireland", "n/a"}},
	})
	assert.Error(t, err)
}
