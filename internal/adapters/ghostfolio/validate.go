package ghostfolio

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/normalize"
)

// ValidationError lista todos los campos inválidos de un payload antes de enviarlo.
type ValidationError struct {
	Payload string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Payload, strings.Join(e.Fields, "; "))
}

type checker struct {
	payload string
	fields  []string
}

func (c *checker) require(ok bool, format string, args ...any) {
	if !ok {
		c.fields = append(c.fields, fmt.Sprintf(format, args...))
	}
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Payload: c.payload, Fields: c.fields}
}

func validatePlatform(p domain.Platform) error {
	c := checker{payload: "platform"}
	c.require(strings.TrimSpace(p.Name) != "", "name must not be empty")
	u, err := url.Parse(p.URL)
	c.require(err == nil && u.Scheme != "" && u.Host != "", "url must be an absolute URL, got %q", p.URL)
	return c.err()
}

func validateTag(name, userID string) error {
	c := checker{payload: "tag"}
	c.require(strings.TrimSpace(name) != "", "name must not be empty")
	c.require(userID != "", "userId must not be empty")
	return c.err()
}

func validateAccount(a domain.Account) error {
	c := checker{payload: "account"}
	c.require(strings.TrimSpace(a.Name) != "", "name must not be empty")
	c.require(normalize.IsCurrencyCode(a.Currency), "currency must be a 3-letter code, got %q", a.Currency)
	c.require(a.PlatformID != "", "platformId must not be empty")
	return c.err()
}

func validateProfileUpdate(symbol string, u domain.ProfileUpdate) error {
	c := checker{payload: "profile " + symbol}
	c.require(symbol != "", "symbol must not be empty")
	c.require(strings.TrimSpace(u.Name) != "", "name must not be empty")
	c.require(normalize.IsCurrencyCode(u.Currency), "currency must be a 3-letter code, got %q", u.Currency)
	c.require(u.AssetClass != "", "assetClass must not be empty")
	c.require(u.AssetSubClass != "", "assetSubClass must not be empty")
	for i, cw := range u.Countries {
		c.require(cw.Code != "", "countries[%d].code must not be empty", i)
		c.require(cw.Weight >= 0 && cw.Weight <= 1.0001, "countries[%d].weight must be within [0,1], got %v", i, cw.Weight)
	}
	for i, sw := range u.Sectors {
		c.require(sw.Name != "", "sectors[%d].name must not be empty", i)
		c.require(sw.Weight >= 0 && sw.Weight <= 1.0001, "sectors[%d].weight must be within [0,1], got %v", i, sw.Weight)
	}
	return c.err()
}

func validateMarketData(symbol string, points []domain.MarketPrice) error {
	c := checker{payload: "market data " + symbol}
	c.require(len(points) > 0, "marketData must not be empty")
	for i, p := range points {
		_, err := time.Parse(time.RFC3339Nano, p.Date)
		c.require(err == nil, "marketData[%d].date must be ISO-8601, got %q", i, p.Date)
		c.require(!p.Price.IsNegative(), "marketData[%d].marketPrice must not be negative", i)
	}
	return c.err()
}

var activityTypes = map[string]bool{"BUY": true, "SELL": true, domain.ActivityFee: true}

func validateActivity(a domain.NewActivity) error {
	c := checker{payload: "order " + a.Symbol}
	c.require(a.AccountID != "", "accountId must not be empty")
	c.require(normalize.IsCurrencyCode(a.Currency), "currency must be a 3-letter code, got %q", a.Currency)
	c.require(a.DataSource == domain.DataSourceManual, "dataSource must be %s, got %q", domain.DataSourceManual, a.DataSource)
	_, err := time.Parse(time.RFC3339Nano, a.Date)
	c.require(err == nil, "date must be ISO-8601, got %q", a.Date)
	c.require(strings.TrimSpace(a.Symbol) != "", "symbol must not be empty")
	c.require(activityTypes[a.Type], "type must be BUY, SELL or FEE, got %q", a.Type)
	c.require(!a.Fee.IsNegative(), "fee must not be negative")
	c.require(!a.Quantity.IsNegative(), "quantity must not be negative")
	c.require(!a.UnitPrice.IsNegative(), "unitPrice must not be negative")
	for i, t := range a.Tags {
		c.require(t.ID != "", "tags[%d].id must not be empty", i)
	}
	return c.err()
}
