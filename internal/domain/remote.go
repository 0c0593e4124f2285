package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Constantes de Ghostfolio usadas en los payloads.
const (
	DataSourceManual = "MANUAL"
	AssetClassEquity = "EQUITY"
	AssetSubClassETF = "ETF"
	ActivityFee      = "FEE"
)

type Platform struct {
	ID   string
	Name string
	URL  string
}

type Tag struct {
	ID     string
	Name   string
	UserID string
}

type Account struct {
	ID         string
	Name       string
	Currency   string
	PlatformID string
}

// User es el dueño del token; aporta id y divisa base.
type User struct {
	ID           string
	BaseCurrency string
	Tags         []Tag
}

// Profile es un perfil de activo MANUAL en Ghostfolio.
type Profile struct {
	Symbol        string
	DataSource    string
	Name          string
	Currency      string
	AssetClass    string
	AssetSubClass string
	Countries     []CountryWeight
	Sectors       []SectorWeight
	IsActive      bool
}

// ProfileUpdate es el PATCH que completa un perfil recién creado.
type ProfileUpdate struct {
	AssetClass    string
	AssetSubClass string
	Countries     []CountryWeight
	Currency      string
	IsActive      bool
	Name          string
	Sectors       []SectorWeight
}

type CountryWeight struct {
	Code   string
	Weight float64
}

type SectorWeight struct {
	Name   string
	Weight float64
}

// MarketPrice es un punto de la serie histórica remota o a subir.
type MarketPrice struct {
	Date  string // ISOLayout
	Price decimal.Decimal
}

// Activity es una orden existente en Ghostfolio.
type Activity struct {
	ID          string
	Date        string // tal como lo devuelve la API
	Type        string
	UnitPrice   decimal.Decimal
	Fee         decimal.Decimal
	Symbol      string
	ProfileName string
	Tags        []Tag
}

// HasTag indica si la orden lleva una etiqueta con ese nombre.
func (a Activity) HasTag(name string) bool {
	for _, t := range a.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// NewActivity es el payload de creación de una orden.
type NewActivity struct {
	AccountID     string
	AssetClass    string
	AssetSubClass string
	Currency      string
	DataSource    string
	Date          string // ISOLayout
	Fee           decimal.Decimal
	Quantity      decimal.Decimal
	Symbol        string
	Tags          []Tag
	Type          string
	UnitPrice     decimal.Decimal
}

// --- fuentes secundarias ---

// PricePoint es un valor diario de la serie de referencia.
type PricePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// PriceSeries es la serie de referencia de justETF.
type PriceSeries struct {
	ISIN       string
	Currency   string
	LatestDate time.Time
	Points     []PricePoint
}

// Allocation son los pesos por país y sector del perfil del ETF.
type Allocation struct {
	Countries []NamedWeight
	Sectors   []NamedWeight
}

type NamedWeight struct {
	Name   string
	Weight float64
}

// CountryCode es una fila de la tabla ISO 3166.
type CountryCode struct {
	Country string
	Alpha2  string
	Alpha3  string
}

// ExchangeRate es el cambio de un día.
type ExchangeRate struct {
	Date             time.Time
	RateFromCurrency decimal.Decimal
	RateInverted     decimal.Decimal
}

// ExchangeRateSeries cubre una ventana de fechas entre dos divisas.
type ExchangeRateSeries struct {
	From  string
	To    string
	Rates []ExchangeRate
}

// RateOn busca el cambio del mismo día UTC que t.
func (s ExchangeRateSeries) RateOn(t time.Time) (ExchangeRate, bool) {
	y, m, d := t.UTC().Date()
	for _, r := range s.Rates {
		ry, rm, rd := r.Date.UTC().Date()
		if ry == y && rm == m && rd == d {
			return r, true
		}
	}
	return ExchangeRate{}, false
}
