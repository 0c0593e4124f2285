package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType es el lado de una transacción del broker.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction es una fila del export de transacciones del broker.
type Transaction struct {
	Symbol    string
	Type      TransactionType
	Currency  string
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Fee       decimal.Decimal
	Date      string // DD.MM.YYYY
	Accounted bool
}

// Order es una fila del export de órdenes. Solo aporta el par símbolo/ISIN.
type Order struct {
	Currency string
	Amount   decimal.Decimal
	Symbol   string
	ISIN     string
	Date     time.Time
}

// FeeRecord es un mes de la tabla de comisiones. Date es nil cuando la fila
// no trae periodo.
type FeeRecord struct {
	ManagementFee decimal.Decimal
	BaggageFee    decimal.Decimal
	ProcessingFee decimal.Decimal
	Date          *time.Time
}

// FeeTable agrupa las comisiones; toda la tabla comparte divisa.
type FeeTable struct {
	Currency string
	Fees     []FeeRecord
}

// BrokerData es todo lo que se extrae del portal en una sesión.
type BrokerData struct {
	Transactions []Transaction
	Orders       []Order
	Fees         FeeTable
}

// Accounted devuelve las transacciones liquidadas, en el orden original.
func (b BrokerData) Accounted() []Transaction {
	out := make([]Transaction, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		if tx.Accounted {
			out = append(out, tx)
		}
	}
	return out
}

// InstrumentDefinition identifica un instrumento dentro de una ejecución.
type InstrumentDefinition struct {
	Symbol   string
	ISIN     string
	Currency string
}
