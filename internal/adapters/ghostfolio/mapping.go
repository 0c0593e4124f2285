package ghostfolio

import (
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/shopspring/decimal"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapPlatform(p platformDTO) domain.Platform {
	return domain.Platform{ID: p.ID, Name: p.Name, URL: p.URL}
}

func mapTag(t tagDTO) domain.Tag {
	return domain.Tag{ID: t.ID, Name: t.Name, UserID: t.UserID}
}

func mapTags(raw []tagDTO) []domain.Tag {
	tags := make([]domain.Tag, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, mapTag(t))
	}
	return tags
}

func mapAccount(a accountDTO) domain.Account {
	return domain.Account{ID: a.ID, Name: a.Name, Currency: a.Currency, PlatformID: a.PlatformID}
}

func mapUser(u userResponse) domain.User {
	return domain.User{ID: u.ID, BaseCurrency: u.Settings.BaseCurrency, Tags: mapTags(u.Tags)}
}

func mapProfile(p profileDTO) domain.Profile {
	out := domain.Profile{
		Symbol:        p.Symbol,
		DataSource:    p.DataSource,
		Name:          deref(p.Name),
		Currency:      deref(p.Currency),
		AssetClass:    deref(p.AssetClass),
		AssetSubClass: deref(p.AssetSubClass),
		IsActive:      p.IsActive,
	}
	for _, c := range p.Countries {
		out.Countries = append(out.Countries, domain.CountryWeight{Code: c.Code, Weight: c.Weight})
	}
	for _, s := range p.Sectors {
		out.Sectors = append(out.Sectors, domain.SectorWeight{Name: s.Name, Weight: s.Weight})
	}
	return out
}

func mapMarketPrices(raw []marketPriceDTO) []domain.MarketPrice {
	out := make([]domain.MarketPrice, 0, len(raw))
	for _, m := range raw {
		out = append(out, domain.MarketPrice{Date: m.Date, Price: decimal.NewFromFloat(m.MarketPrice)})
	}
	return out
}

func toMarketPriceDTOs(points []domain.MarketPrice) []marketPriceDTO {
	out := make([]marketPriceDTO, 0, len(points))
	for _, p := range points {
		out = append(out, marketPriceDTO{Date: p.Date, MarketPrice: p.Price.InexactFloat64()})
	}
	return out
}

func mapActivity(a activityDTO) domain.Activity {
	out := domain.Activity{
		ID:        a.ID,
		Date:      a.Date,
		Type:      a.Type,
		UnitPrice: decimal.NewFromFloat(a.UnitPrice),
		Fee:       decimal.NewFromFloat(a.Fee),
		Tags:      mapTags(a.Tags),
	}
	if a.SymbolProfile != nil {
		out.Symbol = a.SymbolProfile.Symbol
		out.ProfileName = deref(a.SymbolProfile.Name)
	}
	return out
}

func toProfilePatch(u domain.ProfileUpdate) profilePatch {
	p := profilePatch{
		AssetClass:    u.AssetClass,
		AssetSubClass: u.AssetSubClass,
		Countries:     make([]countryDTO, 0, len(u.Countries)),
		Currency:      u.Currency,
		IsActive:      u.IsActive,
		Name:          u.Name,
		Sectors:       make([]sectorDTO, 0, len(u.Sectors)),
	}
	for _, c := range u.Countries {
		p.Countries = append(p.Countries, countryDTO{Code: c.Code, Weight: c.Weight})
	}
	for _, s := range u.Sectors {
		p.Sectors = append(p.Sectors, sectorDTO{Name: s.Name, Weight: s.Weight})
	}
	return p
}

// toActivityCreate arma el payload de POST /api/v1/order. La divisa se envía
// también como customCurrency.
func toActivityCreate(a domain.NewActivity) activityCreate {
	out := activityCreate{
		AccountID:            a.AccountID,
		AssetClass:           a.AssetClass,
		AssetSubClass:        a.AssetSubClass,
		Currency:             a.Currency,
		CustomCurrency:       a.Currency,
		DataSource:           a.DataSource,
		Date:                 a.Date,
		Fee:                  a.Fee.InexactFloat64(),
		Quantity:             a.Quantity.InexactFloat64(),
		Symbol:               a.Symbol,
		Type:                 a.Type,
		UnitPrice:            a.UnitPrice.InexactFloat64(),
		UpdateAccountBalance: false,
	}
	for _, t := range a.Tags {
		out.Tags = append(out.Tags, tagDTO{ID: t.ID, Name: t.Name, UserID: t.UserID})
	}
	return out
}
