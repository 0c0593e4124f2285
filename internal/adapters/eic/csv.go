// Package eic extrae transacciones, órdenes y comisiones del portal del
// broker EIC (webapp.eic.eu).
package eic

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
	"golang.org/x/text/encoding/charmap"
)

// Columnas del export de transacciones.
const (
	colFund      = "Fond"
	colOrderType = "Druh pokynu"
	colCurrency  = "Mena"
	colAmount    = "Počet"
	colPrice     = "Cena"
	colVolume    = "Objem"
	colFee       = "Poplatok<br />za vykonanie"
	colTradeDay  = "Obchodný deň"
	colState     = "Stav"
)

// Columnas del export de órdenes.
const (
	colHave = "Mám"
	colWant = "Chcem"
	colISIN = "ISIN"
	colDate = "Dátum"
)

const (
	orderTypeBuy        = "Kúpa"
	orderTypeConversion = "Konverzia"
	stateAccounted      = "Zaúčtovaný"
)

var ErrMissingColumn = errors.New("missing column")

// orderDateLayouts son los formatos vistos en la columna Dátum.
var orderDateLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// record es una fila indexada por cabecera.
type record struct {
	line   int
	values map[string]string
}

func (r record) get(col string) string { return r.values[col] }

// readCSV decodifica windows-1250 y parsea con ';' como separador.
// Las celdas se recortan y las filas vacías se ignoran.
func readCSV(raw []byte) ([]record, error) {
	reader := csv.NewReader(charmap.Windows1250.NewDecoder().Reader(bytes.NewReader(raw)))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}
		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				values[col] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, record{line: line, values: values})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func requireColumns(records []record, cols ...string) error {
	if len(records) == 0 {
		return nil
	}
	var errs []error
	for _, col := range cols {
		if _, ok := records[0].values[col]; !ok {
			errs = append(errs, fmt.Errorf("%w %q", ErrMissingColumn, col))
		}
	}
	return errors.Join(errs...)
}

// ParseTransactions convierte el export de transacciones. Las filas sin
// "Druh pokynu" (subtotales) se descartan.
func ParseTransactions(raw []byte) ([]domain.Transaction, error) {
	records, err := readCSV(raw)
	if err != nil {
		return nil, fmt.Errorf("eic.ParseTransactions: %w", err)
	}
	if err := requireColumns(records, colFund, colOrderType, colCurrency, colAmount, colPrice, colVolume, colFee, colTradeDay, colState); err != nil {
		return nil, fmt.Errorf("eic.ParseTransactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(records))
	for _, r := range records {
		kind := r.get(colOrderType)
		if kind == "" {
			continue
		}
		tx, err := transactionFromRecord(r, kind)
		if err != nil {
			return nil, fmt.Errorf("eic.ParseTransactions: line %d: %w", r.line, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func transactionFromRecord(r record, kind string) (domain.Transaction, error) {
	tx := domain.Transaction{
		Symbol:    r.get(colFund),
		Type:      domain.TransactionSell,
		Currency:  r.get(colCurrency),
		Date:      r.get(colTradeDay),
		Accounted: r.get(colState) == stateAccounted,
	}
	if kind == orderTypeBuy {
		tx.Type = domain.TransactionBuy
	}
	if tx.Symbol == "" {
		return domain.Transaction{}, fmt.Errorf("%s is empty", colFund)
	}
	if _, err := normalize.ParseDotDate(tx.Date); err != nil {
		return domain.Transaction{}, fmt.Errorf("%s: %w", colTradeDay, err)
	}

	var err error
	if tx.Amount, err = normalize.ParseNumber(r.get(colAmount)); err != nil {
		return domain.Transaction{}, fmt.Errorf("%s of %s: %w", colAmount, tx.Symbol, err)
	}
	if tx.Price, err = normalize.ParseNumber(r.get(colPrice)); err != nil {
		return domain.Transaction{}, fmt.Errorf("%s of %s: %w", colPrice, tx.Symbol, err)
	}
	if tx.Volume, err = normalize.ParseNumber(r.get(colVolume)); err != nil {
		return domain.Transaction{}, fmt.Errorf("%s of %s: %w", colVolume, tx.Symbol, err)
	}
	if tx.Fee, err = normalize.ParseNumber(r.get(colFee)); err != nil {
		return domain.Transaction{}, fmt.Errorf("fee of %s: %w", tx.Symbol, err)
	}
	return tx, nil
}

// ParseOrders convierte el export de órdenes, sin las conversiones de divisa.
func ParseOrders(raw []byte) ([]domain.Order, error) {
	records, err := readCSV(raw)
	if err != nil {
		return nil, fmt.Errorf("eic.ParseOrders: %w", err)
	}
	if err := requireColumns(records, colOrderType, colHave, colAmount, colWant, colISIN, colDate); err != nil {
		return nil, fmt.Errorf("eic.ParseOrders: %w", err)
	}

	orders := make([]domain.Order, 0, len(records))
	for _, r := range records {
		if r.get(colOrderType) == orderTypeConversion {
			continue
		}
		o := domain.Order{
			Currency: r.get(colHave),
			Symbol:   r.get(colWant),
			ISIN:     r.get(colISIN),
		}
		if o.Amount, err = normalize.ParseNumber(r.get(colAmount)); err != nil {
			return nil, fmt.Errorf("eic.ParseOrders: line %d: %s: %w", r.line, colAmount, err)
		}
		if o.Date, err = parseOrderDate(r.get(colDate)); err != nil {
			return nil, fmt.Errorf("eic.ParseOrders: line %d: %s: %w", r.line, colDate, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func parseOrderDate(s string) (time.Time, error) {
	for _, layout := range orderDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", normalize.ErrBadDate, s)
}
