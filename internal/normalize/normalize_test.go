package normalize_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotToISO(t *testing.T) {
	iso, err := normalize.DotToISO("01.03.2024")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", iso)

	_, err = normalize.DotToISO("2024-03-01")
	assert.ErrorIs(t, err, normalize.ErrBadDate)
}

func TestDashToDot(t *testing.T) {
	dot, err := normalize.DashToDot("2023-12-29")
	require.NoError(t, err)
	assert.Equal(t, "29.12.2023", dot)

	_, err = normalize.DashToDot("29.12.2023")
	assert.Error(t, err)
}

func TestRemoteISO(t *testing.T) {
	assert.Equal(t, "2024-03-01T00:00:00.000Z", normalize.RemoteISO("2024-03-01T00:00:00.000Z"))
	assert.Equal(t, "2024-03-01T00:00:00.000Z", normalize.RemoteISO("2024-03-01T00:00:00Z"))
	assert.Equal(t, "2024-03-01T00:00:00.000Z", normalize.RemoteISO("2024-03-01T01:00:00+01:00"))
	assert.Equal(t, "garbage", normalize.RemoteISO("garbage"))
}

func TestParseMonthYear(t *testing.T) {
	d, err := normalize.ParseMonthYear("03/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "01.03.2024", normalize.Dot(d))

	_, err = normalize.ParseMonthYear("13/2024")
	assert.Error(t, err)
	_, err = normalize.ParseMonthYear("2024")
	assert.Error(t, err)
}

func TestParseFeeAmount(t *testing.T) {
	fa, err := normalize.ParseFeeAmount("€12.34 EUR")
	require.NoError(t, err)
	assert.Equal(t, "12.34", fa.Value.String())
	assert.Equal(t, "EUR", fa.Currency)

	fa, err = normalize.ParseFeeAmount("$0,5 usd")
	require.NoError(t, err)
	assert.Equal(t, "0.5", fa.Value.String())
	assert.Equal(t, "USD", fa.Currency)

	fa, err = normalize.ParseFeeAmount("-")
	require.NoError(t, err)
	assert.True(t, fa.Value.IsZero())
	assert.Empty(t, fa.Currency)

	_, err = normalize.ParseFeeAmount("€abc EUR")
	assert.ErrorIs(t, err, normalize.ErrBadAmount)
}

func TestParseNumber(t *testing.T) {
	d, err := normalize.ParseNumber("1 234,5")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", d.String())
}

func TestIsCurrencyCode(t *testing.T) {
	assert.True(t, normalize.IsCurrencyCode("EUR"))
	assert.False(t, normalize.IsCurrencyCode("EURO"))
	assert.False(t, normalize.IsCurrencyCode("eur"))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.True(t, normalize.SameDay(a, b))
	assert.False(t, normalize.SameDay(a, b.Add(time.Minute)))
}
