package ports

import (
	"context"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// Credentials del portal del broker.
type Credentials struct {
	Login    string
	Password string
}

// FeeRow es una fila cruda de la tabla de comisiones, ya estructurada.
type FeeRow struct {
	Period        string // MM/YYYY, puede venir vacío
	ProcessingFee string
	ManagementFee string
	BaggageFee    string
}

// FeeTablePager recorre la tabla paginada de comisiones.
type FeeTablePager interface {
	// PageIndicator devuelve el marcador de la página actual.
	PageIndicator(ctx context.Context) (string, error)
	// Rows devuelve las filas de la página actual.
	Rows(ctx context.Context) ([]FeeRow, error)
	// Next intenta avanzar; en la última página no cambia el indicador.
	Next(ctx context.Context) error
}

// BrokerSession es una sesión iniciada en el portal.
type BrokerSession interface {
	DownloadTransactionsCSV(ctx context.Context) ([]byte, error)
	DownloadOrdersCSV(ctx context.Context) ([]byte, error)
	FeeTable(ctx context.Context) (FeeTablePager, error)
	Close() error
}

// BrokerScraper inicia sesión en el portal del broker.
type BrokerScraper interface {
	Login(ctx context.Context, creds Credentials) (BrokerSession, error)
}

// BrokerSource entrega los datos del broker ya parseados.
type BrokerSource interface {
	Collect(ctx context.Context) (domain.BrokerData, error)
}
