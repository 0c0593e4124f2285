package ghostfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
)

// --- platforms ---

func (s *Session) Platforms(ctx context.Context) ([]domain.Platform, error) {
	raw, err := call[[]platformDTO](ctx, s, resilient.Long("getPlatforms"), http.MethodGet, "/api/v1/platform", nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Platforms: %w", err)
	}
	out := make([]domain.Platform, 0, len(raw))
	for _, p := range raw {
		out = append(out, mapPlatform(p))
	}
	return out, nil
}

func (s *Session) CreatePlatform(ctx context.Context, p domain.Platform) (domain.Platform, error) {
	if err := validatePlatform(p); err != nil {
		return domain.Platform{}, fmt.Errorf("ghostfolio.CreatePlatform: %w", err)
	}
	raw, err := call[platformDTO](ctx, s, resilient.Short("createPlatform"), http.MethodPost, "/api/v1/platform",
		platformDTO{Name: p.Name, URL: p.URL})
	if err != nil {
		return domain.Platform{}, fmt.Errorf("ghostfolio.CreatePlatform: %w", err)
	}
	return mapPlatform(raw), nil
}

// --- tags ---

func (s *Session) Tags(ctx context.Context) ([]domain.Tag, error) {
	raw, err := call[[]tagDTO](ctx, s, resilient.Long("getTags"), http.MethodGet, "/api/v1/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Tags: %w", err)
	}
	return mapTags(raw), nil
}

func (s *Session) CreateTag(ctx context.Context, name, userID string) (domain.Tag, error) {
	if err := validateTag(name, userID); err != nil {
		return domain.Tag{}, fmt.Errorf("ghostfolio.CreateTag: %w", err)
	}
	raw, err := call[tagDTO](ctx, s, resilient.Short("createTag"), http.MethodPost, "/api/v1/tags",
		tagDTO{Name: name, UserID: userID})
	if err != nil {
		return domain.Tag{}, fmt.Errorf("ghostfolio.CreateTag: %w", err)
	}
	tag := mapTag(raw)
	if tag.UserID == "" {
		tag.UserID = userID
	}
	return tag, nil
}

// --- accounts / user ---

func (s *Session) Accounts(ctx context.Context) ([]domain.Account, error) {
	raw, err := call[accountsResponse](ctx, s, resilient.Long("getAccounts"), http.MethodGet, "/api/v1/account", nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Accounts: %w", err)
	}
	out := make([]domain.Account, 0, len(raw.Accounts))
	for _, a := range raw.Accounts {
		out = append(out, mapAccount(a))
	}
	return out, nil
}

// CreateAccount crea la cuenta con saldo 0.
func (s *Session) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if err := validateAccount(a); err != nil {
		return domain.Account{}, fmt.Errorf("ghostfolio.CreateAccount: %w", err)
	}
	raw, err := call[accountDTO](ctx, s, resilient.Short("createAccount"), http.MethodPost, "/api/v1/account",
		accountDTO{Name: a.Name, Balance: 0, Currency: a.Currency, PlatformID: a.PlatformID})
	if err != nil {
		return domain.Account{}, fmt.Errorf("ghostfolio.CreateAccount: %w", err)
	}
	return mapAccount(raw), nil
}

func (s *Session) User(ctx context.Context) (domain.User, error) {
	raw, err := call[userResponse](ctx, s, resilient.Long("getUser"), http.MethodGet, "/api/v1/user", nil)
	if err != nil {
		return domain.User{}, fmt.Errorf("ghostfolio.User: %w", err)
	}
	if raw.Settings.BaseCurrency == "" {
		return domain.User{}, fmt.Errorf("ghostfolio.User: user %q has no base currency", raw.ID)
	}
	return mapUser(raw), nil
}

// --- profiles ---

func (s *Session) Profiles(ctx context.Context) ([]domain.Profile, error) {
	raw, err := call[adminMarketDataResponse](ctx, s, resilient.Long("getAllManualProfileData"),
		http.MethodGet, "/api/v1/admin/market-data", nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Profiles: %w", err)
	}
	out := make([]domain.Profile, 0, len(raw.MarketData))
	for _, p := range raw.MarketData {
		out = append(out, mapProfile(p))
	}
	return out, nil
}

func (s *Session) CreateProfile(ctx context.Context, symbol string) (domain.Profile, error) {
	raw, err := call[profileDTO](ctx, s, resilient.Long("createProfileDataForSymbol"),
		http.MethodPost, "/api/v1/admin/profile-data/MANUAL/"+escape(symbol), nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("ghostfolio.CreateProfile %s: %w", symbol, err)
	}
	p := mapProfile(raw)
	if p.Symbol == "" {
		p.Symbol = symbol
	}
	return p, nil
}

func (s *Session) UpdateProfile(ctx context.Context, symbol string, u domain.ProfileUpdate) error {
	if err := validateProfileUpdate(symbol, u); err != nil {
		return fmt.Errorf("ghostfolio.UpdateProfile: %w", err)
	}
	_, err := call[json.RawMessage](ctx, s, resilient.Long("updateProfileDataForSymbol"),
		http.MethodPatch, "/api/v1/admin/profile-data/MANUAL/"+escape(symbol), toProfilePatch(u))
	if err != nil {
		return fmt.Errorf("ghostfolio.UpdateProfile %s: %w", symbol, err)
	}
	return nil
}

// --- market data ---

func (s *Session) MarketData(ctx context.Context, symbol string) ([]domain.MarketPrice, error) {
	raw, err := call[marketDataResponse](ctx, s, resilient.Long("getManualMarketDataForSymbol"),
		http.MethodGet, "/api/v1/market-data/MANUAL/"+escape(symbol), nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.MarketData %s: %w", symbol, err)
	}
	return mapMarketPrices(raw.MarketData), nil
}

func (s *Session) SetMarketData(ctx context.Context, symbol string, points []domain.MarketPrice) error {
	if err := validateMarketData(symbol, points); err != nil {
		return fmt.Errorf("ghostfolio.SetMarketData: %w", err)
	}
	_, err := call[json.RawMessage](ctx, s, resilient.Long("setMarketDataForSymbol"),
		http.MethodPost, "/api/v1/market-data/MANUAL/"+escape(symbol),
		marketDataUpdate{MarketData: toMarketPriceDTOs(points)})
	if err != nil {
		return fmt.Errorf("ghostfolio.SetMarketData %s: %w", symbol, err)
	}
	return nil
}

// --- orders ---

func (s *Session) Orders(ctx context.Context) ([]domain.Activity, error) {
	raw, err := call[ordersResponse](ctx, s, resilient.Long("getOrders"), http.MethodGet, "/api/v1/order", nil)
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Orders: %w", err)
	}
	out := make([]domain.Activity, 0, len(raw.Activities))
	for _, a := range raw.Activities {
		out = append(out, mapActivity(a))
	}
	return out, nil
}

func (s *Session) CreateOrder(ctx context.Context, a domain.NewActivity) (domain.Activity, error) {
	if err := validateActivity(a); err != nil {
		return domain.Activity{}, fmt.Errorf("ghostfolio.CreateOrder: %w", err)
	}
	raw, err := call[activityDTO](ctx, s, resilient.Long("createOrder"), http.MethodPost, "/api/v1/order",
		toActivityCreate(a))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("ghostfolio.CreateOrder %s: %w", a.Symbol, err)
	}
	return mapActivity(raw), nil
}
