package countrycodes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/alejandrodnm/eicfolio/internal/adapters/countrycodes"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryCodes_FetchesOnce(t *testing.T) {
	page, err := os.ReadFile("../../../testdata/fixtures/country_codes.html")
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Write(page)
	}))
	defer srv.Close()

	c := countrycodes.NewClient(countrycodes.Options{URL: srv.URL})

	codes, err := c.CountryCodes(context.Background())
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Equal(t, domain.CountryCode{Country: "Ireland", Alpha2: "IE", Alpha3: "IRL"}, codes[1])

	_, err = c.CountryCodes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	c.Flush()
	_, err = c.CountryCodes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestParseTable_NoTable(t *testing.T) {
	_, err := countrycodes.ParseTable([]byte("<html><body><p>maintenance</p></body></html>"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	codes := []domain.CountryCode{
		{Country: "United States of America (the)", Alpha2: "US", Alpha3: "USA"},
		{Country: "Ireland", Alpha2: "IE", Alpha3: "IRL"},
	}

	c, ok := countrycodes.Resolve(codes, "united states")
	require.True(t, ok)
	assert.Equal(t, "US", c.Alpha2)

	_, ok = countrycodes.Resolve(codes, "Other")
	assert.False(t, ok)
	_, ok = countrycodes.Resolve(codes, "  ")
	assert.False(t, ok)
}
