package ports

import (
	"context"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// Reporter presenta el resultado de una ejecución al usuario.
type Reporter interface {
	// Report muestra el resumen. En consola, imprime una tabla por tipo de escritura.
	Report(ctx context.Context, summary domain.RunSummary) error
}
