package reconcile

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// ErrMissingISIN significa que ninguna orden aporta el ISIN de un símbolo.
var ErrMissingISIN = errors.New("isin cannot be found")

// InstrumentMap es un mapa ordenado símbolo → definición. El orden es el de
// la primera aparición del símbolo en las transacciones.
type InstrumentMap struct {
	symbols []string
	defs    map[string]domain.InstrumentDefinition
}

// BuildInstrumentMap deriva una definición por símbolo. El ISIN sale de la
// primera orden del símbolo; símbolo y divisa, de la primera transacción.
func BuildInstrumentMap(orders []domain.Order, txs []domain.Transaction) (*InstrumentMap, error) {
	isins := make(map[string]string, len(orders))
	for _, o := range orders {
		if _, ok := isins[o.Symbol]; !ok {
			isins[o.Symbol] = o.ISIN
		}
	}

	m := &InstrumentMap{defs: make(map[string]domain.InstrumentDefinition)}
	for _, tx := range txs {
		if _, ok := m.defs[tx.Symbol]; ok {
			continue
		}
		isin, ok := isins[tx.Symbol]
		if !ok || isin == "" {
			return nil, fmt.Errorf("reconcile.BuildInstrumentMap: %w for fund %s", ErrMissingISIN, tx.Symbol)
		}
		m.symbols = append(m.symbols, tx.Symbol)
		m.defs[tx.Symbol] = domain.InstrumentDefinition{
			Symbol:   tx.Symbol,
			ISIN:     isin,
			Currency: tx.Currency,
		}
	}
	return m, nil
}

func (m *InstrumentMap) Len() int { return len(m.symbols) }

func (m *InstrumentMap) Get(symbol string) (domain.InstrumentDefinition, bool) {
	def, ok := m.defs[symbol]
	return def, ok
}

// Definitions devuelve las definiciones en orden de inserción.
func (m *InstrumentMap) Definitions() []domain.InstrumentDefinition {
	out := make([]domain.InstrumentDefinition, 0, len(m.symbols))
	for _, s := range m.symbols {
		out = append(out, m.defs[s])
	}
	return out
}
