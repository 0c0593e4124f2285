package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WriteKind clasifica las escrituras remotas de una ejecución.
type WriteKind string

const (
	WritePlatform   WriteKind = "platform"
	WriteTag        WriteKind = "tag"
	WriteAccount    WriteKind = "account"
	WriteProfile    WriteKind = "profile"
	WriteMarketData WriteKind = "market_data"
	WriteOrder      WriteKind = "order"
	WriteFee        WriteKind = "fee"
)

// Write es una escritura remota realizada.
type Write struct {
	Kind     WriteKind
	Key      string
	Detail   string
	Amount   decimal.Decimal
	Currency string
	At       time.Time
}

// RunStatus es el estado final de una ejecución.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunSummary resume una ejecución del sync.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Error      string
	Writes     []Write
}

// Count devuelve cuántas escrituras hay de un tipo.
func (s RunSummary) Count(kind WriteKind) int {
	n := 0
	for _, w := range s.Writes {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// RunRecord es una fila del historial de ejecuciones.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Error      string
	Writes     int
}
