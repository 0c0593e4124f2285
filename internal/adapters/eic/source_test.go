package eic_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alejandrodnm/eicfolio/internal/adapters/eic"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	txCSV     []byte
	ordersCSV []byte
	pager     ports.FeeTablePager
	feeErr    error
	closed    bool
	calls     []string
}

func (s *fakeSession) DownloadTransactionsCSV(context.Context) ([]byte, error) {
	s.calls = append(s.calls, "transactions")
	return s.txCSV, nil
}

func (s *fakeSession) DownloadOrdersCSV(context.Context) ([]byte, error) {
	s.calls = append(s.calls, "orders")
	return s.ordersCSV, nil
}

func (s *fakeSession) FeeTable(context.Context) (ports.FeeTablePager, error) {
	s.calls = append(s.calls, "fees")
	if s.feeErr != nil {
		return nil, s.feeErr
	}
	return s.pager, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeScraper struct {
	session *fakeSession
	creds   ports.Credentials
}

func (f *fakeScraper) Login(_ context.Context, creds ports.Credentials) (ports.BrokerSession, error) {
	f.creds = creds
	return f.session, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollect(t *testing.T) {
	sess := &fakeSession{
		txCSV:     readFixture(t, "eic_transactions.csv"),
		ordersCSV: readFixture(t, "eic_orders.csv"),
		pager:     &fakePager{pages: [][]ports.FeeRow{{row("02/2024", "€1.00 EUR")}}},
	}
	scraper := &fakeScraper{session: sess}
	creds := ports.Credentials{Login: "user", Password: "secret"}

	data, err := eic.NewSource(scraper, creds, quietLogger()).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, creds, scraper.creds)
	assert.Equal(t, []string{"fees", "transactions", "orders"}, sess.calls)
	assert.True(t, sess.closed)
	assert.Len(t, data.Transactions, 2)
	assert.Len(t, data.Orders, 2)
	assert.Equal(t, "EUR", data.Fees.Currency)
	assert.Len(t, data.Accounted(), 1)
}

func TestCollect_ClosesSessionOnError(t *testing.T) {
	sess := &fakeSession{feeErr: eic.ErrNoFeeTable}

	_, err := eic.NewSource(&fakeScraper{session: sess}, ports.Credentials{}, quietLogger()).Collect(context.Background())
	assert.True(t, errors.Is(err, eic.ErrNoFeeTable))
	assert.True(t, sess.closed)
}

func TestCollect_EmptyExports(t *testing.T) {
	sess := &fakeSession{
		txCSV:     []byte("Fond;Druh pokynu\r\n"),
		ordersCSV: []byte("Druh pokynu;ISIN\r\n"),
		pager:     &fakePager{pages: [][]ports.FeeRow{{row("02/2024", "€1.00 EUR")}}},
	}

	_, err := eic.NewSource(&fakeScraper{session: sess}, ports.Credentials{}, quietLogger()).Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transactions should not be empty")
	assert.Contains(t, err.Error(), "orders should not be empty")
}
