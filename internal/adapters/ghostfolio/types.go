package ghostfolio

// DTOs raw de la API de Ghostfolio. Solo se usan dentro de este paquete.
// La conversión a domain se hace en mapping.go.

type authRequest struct {
	AccessToken string `json:"accessToken"`
}

type authResponse struct {
	AuthToken string `json:"authToken"`
}

type platformDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type tagDTO struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
}

type accountDTO struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Balance    float64 `json:"balance"`
	Currency   string  `json:"currency"`
	PlatformID string  `json:"platformId,omitempty"`
}

// accountsResponse es GET /api/v1/account.
type accountsResponse struct {
	Accounts []accountDTO `json:"accounts"`
}

type userResponse struct {
	ID       string `json:"id"`
	Settings struct {
		BaseCurrency string `json:"baseCurrency"`
	} `json:"settings"`
	Tags []tagDTO `json:"tags"`
}

type countryDTO struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

type sectorDTO struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// profileDTO cubre tanto las filas de admin/market-data como la respuesta
// de crear un perfil.
type profileDTO struct {
	Symbol        string       `json:"symbol"`
	DataSource    string       `json:"dataSource"`
	Name          *string      `json:"name"`
	Currency      *string      `json:"currency"`
	AssetClass    *string      `json:"assetClass"`
	AssetSubClass *string      `json:"assetSubClass"`
	Countries     []countryDTO `json:"countries"`
	Sectors       []sectorDTO  `json:"sectors"`
	IsActive      bool         `json:"isActive"`
}

// adminMarketDataResponse es GET /api/v1/admin/market-data.
type adminMarketDataResponse struct {
	Count      int          `json:"count"`
	MarketData []profileDTO `json:"marketData"`
}

// profilePatch es el body de PATCH /api/v1/admin/profile-data/MANUAL/{symbol}.
type profilePatch struct {
	AssetClass    string       `json:"assetClass"`
	AssetSubClass string       `json:"assetSubClass"`
	Countries     []countryDTO `json:"countries"`
	Currency      string       `json:"currency"`
	IsActive      bool         `json:"isActive"`
	Name          string       `json:"name"`
	Sectors       []sectorDTO  `json:"sectors"`
}

type marketPriceDTO struct {
	Date        string  `json:"date"`
	MarketPrice float64 `json:"marketPrice"`
}

// marketDataResponse es GET /api/v1/market-data/MANUAL/{symbol}.
type marketDataResponse struct {
	MarketData   []marketPriceDTO `json:"marketData"`
	AssetProfile *profileDTO      `json:"assetProfile"`
}

// marketDataUpdate es el body de POST /api/v1/market-data/MANUAL/{symbol}.
type marketDataUpdate struct {
	MarketData []marketPriceDTO `json:"marketData"`
}

type symbolProfileDTO struct {
	Symbol string  `json:"symbol"`
	Name   *string `json:"name"`
}

type activityDTO struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	Type          string            `json:"type"`
	UnitPrice     float64           `json:"unitPrice"`
	Fee           float64           `json:"fee"`
	SymbolProfile *symbolProfileDTO `json:"SymbolProfile"`
	Tags          []tagDTO          `json:"tags"`
}

// ordersResponse es GET /api/v1/order.
type ordersResponse struct {
	Activities []activityDTO `json:"activities"`
	Count      int           `json:"count"`
}

// activityCreate es el body de POST /api/v1/order.
type activityCreate struct {
	AccountID            string   `json:"accountId"`
	AssetClass           string   `json:"assetClass,omitempty"`
	AssetSubClass        string   `json:"assetSubClass,omitempty"`
	Comment              *string  `json:"comment"`
	Currency             string   `json:"currency"`
	CustomCurrency       string   `json:"customCurrency"`
	DataSource           string   `json:"dataSource"`
	Date                 string   `json:"date"`
	Fee                  float64  `json:"fee"`
	Quantity             float64  `json:"quantity"`
	Symbol               string   `json:"symbol"`
	Tags                 []tagDTO `json:"tags,omitempty"`
	Type                 string   `json:"type"`
	UnitPrice            float64  `json:"unitPrice"`
	UpdateAccountBalance bool     `json:"updateAccountBalance"`
}
