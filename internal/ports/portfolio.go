package ports

import (
	"context"

	"github.com/alejandrodnm/eicfolio/internal/domain"
)

// Portfolio es la sesión autenticada contra Ghostfolio. Todas las llamadas
// pasan por el executor resiliente y llevan el bearer token de la sesión.
type Portfolio interface {
	Platforms(ctx context.Context) ([]domain.Platform, error)
	CreatePlatform(ctx context.Context, p domain.Platform) (domain.Platform, error)

	Tags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, name, userID string) (domain.Tag, error)

	Accounts(ctx context.Context) ([]domain.Account, error)
	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)

	// User devuelve el usuario dueño del token (id y divisa base).
	User(ctx context.Context) (domain.User, error)

	// Profiles lista los perfiles de activos existentes.
	Profiles(ctx context.Context) ([]domain.Profile, error)
	// CreateProfile crea un perfil MANUAL vacío para el símbolo.
	CreateProfile(ctx context.Context, symbol string) (domain.Profile, error)
	// UpdateProfile completa el perfil recién creado.
	UpdateProfile(ctx context.Context, symbol string, u domain.ProfileUpdate) error

	// MarketData devuelve la serie histórica remota del símbolo.
	MarketData(ctx context.Context, symbol string) ([]domain.MarketPrice, error)
	// SetMarketData sube un lote de puntos.
	SetMarketData(ctx context.Context, symbol string, points []domain.MarketPrice) error

	Orders(ctx context.Context) ([]domain.Activity, error)
	CreateOrder(ctx context.Context, a domain.NewActivity) (domain.Activity, error)
}

// PortfolioSession es una Portfolio con ciclo de vida acotado a una ejecución.
type PortfolioSession interface {
	Portfolio
	// Close descarta el token; las llamadas posteriores fallan.
	Close()
}

// PortfolioOpener abre una sesión nueva (intercambio anónimo del secreto).
type PortfolioOpener interface {
	Open(ctx context.Context) (PortfolioSession, error)
}
