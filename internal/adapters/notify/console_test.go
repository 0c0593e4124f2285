package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/notify"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSummary(writes ...domain.Write) domain.RunSummary {
	start := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	return domain.RunSummary{
		RunID:      "0b5f1a2c-1111-2222-3333-444455556666",
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Status:     domain.RunSucceeded,
		Writes:     writes,
	}
}

func TestConsole_Report_CountsAndFees(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	s := makeSummary(
		domain.Write{Kind: domain.WriteOrder, Key: "ABC 01.03.2024"},
		domain.Write{Kind: domain.WriteOrder, Key: "XYZ 02.03.2024"},
		domain.Write{Kind: domain.WriteFee, Key: "EIC-MNG-FEE (01.02.2024)", Amount: decimal.RequireFromString("100.5"), Currency: "USD"},
		domain.Write{Kind: domain.WriteFee, Key: "EIC-MNG-FEE (01.03.2024)", Amount: decimal.RequireFromString("19.5"), Currency: "USD"},
	)
	require.NoError(t, c.Report(context.Background(), s))

	out := buf.String()
	assert.Contains(t, out, "0b5f1a2c")
	assert.NotContains(t, out, "0b5f1a2c-1111")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "order")
	assert.Contains(t, out, "fee")
	assert.Contains(t, out, "$120.00")
	assert.NotContains(t, out, "EIC-MNG-FEE (01.02.2024)", "details hidden by default")
}

func TestConsole_Report_Details(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	s := makeSummary(domain.Write{Kind: domain.WriteProfile, Key: "ABC", Detail: "ABC (IE000123)"})
	require.NoError(t, c.Report(context.Background(), s))

	assert.Contains(t, buf.String(), "ABC (IE000123)")
}

func TestConsole_Report_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, c.Report(context.Background(), makeSummary()))
	assert.Contains(t, buf.String(), "nothing to do")
}

func TestConsole_Report_Failed(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	s := makeSummary()
	s.Status = domain.RunFailed
	s.Error = "failed call getUser(): status 401"
	require.NoError(t, c.Report(context.Background(), s))

	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "getUser")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	start := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Minute)
	c.PrintHistory([]domain.RunRecord{
		{RunID: "run-2", StartedAt: start, FinishedAt: &end, Status: domain.RunSucceeded, Writes: 12},
		{RunID: "run-1", StartedAt: start, Status: domain.RunRunning},
	})

	out := buf.String()
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "2m0s")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "running")
}

func TestConsole_PrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf, false).PrintHistory(nil)
	assert.Contains(t, buf.String(), "No runs recorded yet")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", notify.FormatMoney(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "1.00 XXQ", notify.FormatMoney(decimal.NewFromInt(1), "XXQ"))
}

func TestConsole_PrintPreviewTables(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	c.PrintTransactions([]domain.Transaction{{
		Symbol: "ABC", Type: domain.TransactionBuy, Currency: "EUR",
		Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(5), Date: "01.03.2024", Accounted: true,
	}})
	c.PrintOrders(nil)
	c.PrintFees(domain.FeeTable{Currency: "USD", Fees: []domain.FeeRecord{
		{ManagementFee: decimal.RequireFromString("2.5"), Date: &feb},
		{},
	}})
	c.PrintInstruments([]domain.InstrumentDefinition{{Symbol: "ABC", ISIN: "IE000123", Currency: "EUR"}})

	out := buf.String()
	assert.Contains(t, out, "transactions: 1")
	assert.Contains(t, out, "01.03.2024")
	assert.Contains(t, out, "orders: 0")
	assert.Contains(t, out, "fees: 2 months (USD)")
	assert.Contains(t, out, "02/2024")
	assert.Contains(t, out, "$2.50")
	assert.Contains(t, out, "IE000123")
}
