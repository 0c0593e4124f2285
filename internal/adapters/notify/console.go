package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// kindOrder es el orden en que se imprimen las escrituras.
var kindOrder = []domain.WriteKind{
	domain.WritePlatform,
	domain.WriteTag,
	domain.WriteAccount,
	domain.WriteProfile,
	domain.WriteMarketData,
	domain.WriteOrder,
	domain.WriteFee,
}

// Console implementa ports.Reporter.
type Console struct {
	out     io.Writer
	details bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(details bool) *Console {
	return &Console{out: os.Stdout, details: details}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, details bool) *Console {
	return &Console{out: w, details: details}
}

// Report imprime el resumen de la ejecución.
func (c *Console) Report(_ context.Context, s domain.RunSummary) error {
	fmt.Fprintf(c.out, "\n[%s] run %s %s | %d writes in %s\n",
		s.StartedAt.Format("15:04:05"), shortID(s.RunID), s.Status, len(s.Writes), elapsed(s))

	if s.Error != "" {
		fmt.Fprintf(c.out, "  error: %s\n", s.Error)
	}

	if len(s.Writes) == 0 {
		fmt.Fprintln(c.out, "  nothing to do, Ghostfolio is up to date")
		return nil
	}

	c.printCounts(s)
	c.printFeeTotals(s.Writes)

	if c.details {
		c.printWrites(s.Writes)
	}
	return nil
}

// printCounts imprime una fila por tipo de escritura.
func (c *Console) printCounts(s domain.RunSummary) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Kind", "Writes")
	for _, kind := range kindOrder {
		if n := s.Count(kind); n > 0 {
			table.Append(string(kind), fmt.Sprintf("%d", n))
		}
	}
	table.Render()
}

// printFeeTotals suma las comisiones creadas por divisa.
func (c *Console) printFeeTotals(writes []domain.Write) {
	totals := map[string]decimal.Decimal{}
	for _, w := range writes {
		if w.Kind != domain.WriteFee || w.Currency == "" {
			continue
		}
		totals[w.Currency] = totals[w.Currency].Add(w.Amount)
	}
	if len(totals) == 0 {
		return
	}

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, FormatMoney(totals[code], code))
	}
	fmt.Fprintf(c.out, "  fees added: %s\n", strings.Join(parts, ", "))
}

// printWrites imprime cada escritura en orden de ejecución.
func (c *Console) printWrites(writes []domain.Write) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Kind", "Key", "Detail", "Amount")
	for i, w := range writes {
		amount := "-"
		if w.Currency != "" {
			amount = FormatMoney(w.Amount, w.Currency)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(w.Kind),
			truncate(w.Key, 40),
			truncate(w.Detail, 30),
			amount,
		)
	}
	table.Render()
}

// PrintHistory imprime el historial de ejecuciones del diario.
func (c *Console) PrintHistory(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "\n  No runs recorded yet. Run `eicfolio sync` first.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Started", "Duration", "Status", "Writes", "Error")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		table.Append(
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			duration,
			string(r.Status),
			fmt.Sprintf("%d", r.Writes),
			truncate(r.Error, 50),
		)
	}
	table.Render()
}

// PrintWrites imprime las escrituras de una ejecución concreta.
func (c *Console) PrintWrites(runID string, writes []domain.Write) {
	fmt.Fprintf(c.out, "\n  run %s: %d writes\n", runID, len(writes))
	if len(writes) > 0 {
		c.printWrites(writes)
	}
}

// PrintTransactions imprime el export de transacciones tal cual se parseó.
func (c *Console) PrintTransactions(txs []domain.Transaction) {
	fmt.Fprintf(c.out, "\n  transactions: %d\n", len(txs))
	if len(txs) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Fund", "Type", "Amount", "Price", "Volume", "Fee", "Ccy", "Accounted")
	for _, tx := range txs {
		accounted := "no"
		if tx.Accounted {
			accounted = "yes"
		}
		table.Append(
			tx.Date,
			tx.Symbol,
			string(tx.Type),
			tx.Amount.String(),
			tx.Price.String(),
			tx.Volume.String(),
			tx.Fee.String(),
			tx.Currency,
			accounted,
		)
	}
	table.Render()
}

// PrintOrders imprime el export de órdenes.
func (c *Console) PrintOrders(orders []domain.Order) {
	fmt.Fprintf(c.out, "\n  orders: %d\n", len(orders))
	if len(orders) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Fund", "ISIN", "Amount", "Ccy")
	for _, o := range orders {
		table.Append(o.Date.Format("2006-01-02 15:04"), o.Symbol, o.ISIN, o.Amount.String(), o.Currency)
	}
	table.Render()
}

// PrintFees imprime la tabla de comisiones en su divisa.
func (c *Console) PrintFees(fees domain.FeeTable) {
	fmt.Fprintf(c.out, "\n  fees: %d months (%s)\n", len(fees.Fees), fees.Currency)
	if len(fees.Fees) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Period", "Management", "Baggage", "Processing")
	for _, f := range fees.Fees {
		period := "-"
		if f.Date != nil {
			period = f.Date.Format("01/2006")
		}
		table.Append(
			period,
			FormatMoney(f.ManagementFee, fees.Currency),
			FormatMoney(f.BaggageFee, fees.Currency),
			FormatMoney(f.ProcessingFee, fees.Currency),
		)
	}
	table.Render()
}

// PrintInstruments imprime el mapa símbolo → ISIN de la ejecución.
func (c *Console) PrintInstruments(defs []domain.InstrumentDefinition) {
	fmt.Fprintf(c.out, "\n  instruments: %d\n", len(defs))
	if len(defs) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "ISIN", "Ccy")
	for _, d := range defs {
		table.Append(d.Symbol, d.ISIN, d.Currency)
	}
	table.Render()
}

// FormatMoney formatea un importe con el símbolo y los decimales de su divisa.
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// --- helpers ---

func elapsed(s domain.RunSummary) string {
	if s.FinishedAt.IsZero() {
		return "-"
	}
	return s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
