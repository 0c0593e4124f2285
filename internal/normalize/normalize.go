// Package normalize holds the pure date and currency-string helpers shared by
// the scrapers and the reconciliation pipeline. All dates are UTC.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DotLayout is the broker's DD.MM.YYYY format.
	DotLayout = "02.01.2006"
	// DashLayout is the YYYY-MM-DD format used by justETF.
	DashLayout = "2006-01-02"
	// ISOLayout is what Ghostfolio stores and returns for dates.
	ISOLayout = "2006-01-02T15:04:05.000Z"
)

var (
	ErrBadDate   = errors.New("malformed date")
	ErrBadAmount = errors.New("malformed amount")
)

// ParseDotDate parses DD.MM.YYYY into UTC midnight.
func ParseDotDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DotLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected DD.MM.YYYY", ErrBadDate, s)
	}
	return t, nil
}

// DotToISO converts DD.MM.YYYY into 2024-03-01T00:00:00.000Z.
func DotToISO(s string) (string, error) {
	t, err := ParseDotDate(s)
	if err != nil {
		return "", err
	}
	return ISO(t), nil
}

// DashToDot converts YYYY-MM-DD into DD.MM.YYYY.
func DashToDot(s string) (string, error) {
	t, err := time.ParseInLocation(DashLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrBadDate, s)
	}
	return Dot(t), nil
}

// ISO formats t in UTC with millisecond precision.
func ISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// Dot formats the UTC calendar day of t as DD.MM.YYYY.
func Dot(t time.Time) string {
	return t.UTC().Format(DotLayout)
}

// ParseRemoteDate accepts the timestamps Ghostfolio returns (RFC 3339, with or
// without fractional seconds) and plain YYYY-MM-DD.
func ParseRemoteDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(DashLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrBadDate, s)
}

// RemoteISO normalizes a remote timestamp to ISOLayout. Unparseable input is
// returned unchanged so that it never matches a local date by accident.
func RemoteISO(s string) string {
	t, err := ParseRemoteDate(s)
	if err != nil {
		return s
	}
	return ISO(t)
}

// MonthStart returns the first day of the given month at UTC midnight.
func MonthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonthYear parses the broker's "MM/YYYY" fee period.
func ParseMonthYear(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w %q: expected MM/YYYY", ErrBadDate, s)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w %q: bad month", ErrBadDate, s)
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || year < 1900 {
		return time.Time{}, fmt.Errorf("%w %q: bad year", ErrBadDate, s)
	}
	return MonthStart(year, month), nil
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ParseNumber parses broker numbers: spaces (including NBSP) are dropped and a
// decimal comma is accepted.
func ParseNumber(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q", ErrBadAmount, s)
	}
	return d, nil
}

// FeeAmount is a parsed fee cell such as "€12.34 EUR".
type FeeAmount struct {
	Value    decimal.Decimal
	Currency string // empty for "-"
}

// ParseFeeAmount parses a fee cell. "-" (or empty) is zero with no currency.
// Otherwise the first token loses its leading currency sign and the second
// token, when present, is the ISO currency code.
func ParseFeeAmount(s string) (FeeAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return FeeAmount{Value: decimal.Zero}, nil
	}

	fields := strings.Fields(s)
	amount := []rune(fields[0])
	if len(amount) < 2 {
		return FeeAmount{}, fmt.Errorf("%w %q", ErrBadAmount, s)
	}
	value, err := ParseNumber(string(amount[1:]))
	if err != nil {
		return FeeAmount{}, err
	}

	fa := FeeAmount{Value: value}
	if len(fields) > 1 {
		fa.Currency = strings.ToUpper(fields[1])
	}
	return fa, nil
}

// IsCurrencyCode reports whether s looks like a three-letter ISO 4217 code.
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
