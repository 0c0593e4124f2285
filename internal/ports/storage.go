package ports

import (
	"context"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// Journal registra cada ejecución y sus escrituras remotas. Es solo
// auditoría: ninguna decisión de reconciliación lo consulta.
type Journal interface {
	// StartRun abre el registro de una ejecución.
	StartRun(ctx context.Context, summary domain.RunSummary) error

	// RecordWrite añade una escritura remota a la ejecución.
	RecordWrite(ctx context.Context, runID string, w domain.Write) error

	// FinishRun cierra la ejecución con su estado final.
	FinishRun(ctx context.Context, summary domain.RunSummary) error

	// Runs devuelve las últimas ejecuciones, más recientes primero.
	Runs(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
