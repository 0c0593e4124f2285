// Package countrycodes reads the ISO 3166 country table published at
// iban.com and keeps it in memory.
package countrycodes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/rest"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/patrickmn/go-cache"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultURL = "https://www.iban.com/country-codes"
	cacheKey   = "codes"
)

// Client implements ports.CountryCodeSource.
type Client struct {
	url   string
	http  *rest.Client
	exec  *resilient.Executor
	cache *cache.Cache
	log   *slog.Logger
}

type Options struct {
	URL      string
	TTL      time.Duration // 0 means one hour
	Executor *resilient.Executor
	Logger   *slog.Logger
	HTTP     *rest.Client
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = defaultURL
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.HTTP == nil {
		opts.HTTP = rest.NewClient(1, 1, rest.WithHeader("User-Agent", "Mozilla/5.0 (compatible; eicfolio)"))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = resilient.New(opts.Logger)
	}
	return &Client{
		url:   opts.URL,
		http:  opts.HTTP,
		exec:  opts.Executor,
		cache: cache.New(opts.TTL, 2*opts.TTL),
		log:   opts.Logger.With("component", "countrycodes"),
	}
}

// CountryCodes returns the table, fetching it once per TTL.
func (c *Client) CountryCodes(ctx context.Context) ([]domain.CountryCode, error) {
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.([]domain.CountryCode), nil
	}

	body, err := resilient.Call(ctx, c.exec, resilient.Long("getCountryCodes"),
		func(ctx context.Context) ([]byte, error) {
			return c.http.Raw(ctx, rest.Request{
				Method: http.MethodGet,
				URL:    c.url,
				Header: http.Header{"Accept": []string{"text/html"}},
			})
		})
	if err != nil {
		return nil, fmt.Errorf("countrycodes.CountryCodes: %w", err)
	}

	codes, err := ParseTable(body)
	if err != nil {
		return nil, fmt.Errorf("countrycodes.CountryCodes: %w", err)
	}

	c.cache.SetDefault(cacheKey, codes)
	c.log.Debug("country codes loaded", "count", len(codes))
	return codes, nil
}

// Flush drops the cached table.
func (c *Client) Flush() {
	c.cache.Flush()
}

// ParseTable extracts {country, alpha2, alpha3} from the first <tbody>.
func ParseTable(page []byte) ([]domain.CountryCode, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tbody := find(doc, atom.Tbody)
	if tbody == nil {
		return nil, errors.New("no country table found")
	}

	var codes []domain.CountryCode
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.DataAtom != atom.Tr {
			continue
		}
		cells := cellTexts(tr)
		if len(cells) < 3 || cells[0] == "" || cells[1] == "" || cells[2] == "" {
			continue
		}
		codes = append(codes, domain.CountryCode{Country: cells[0], Alpha2: cells[1], Alpha3: cells[2]})
	}

	if len(codes) == 0 {
		return nil, errors.New("country table is empty")
	}
	return codes, nil
}

// Resolve finds the code whose country name contains name, ignoring case.
func Resolve(codes []domain.CountryCode, name string) (domain.CountryCode, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return domain.CountryCode{}, false
	}
	for _, c := range codes {
		if strings.Contains(strings.ToLower(c.Country), needle) {
			return c, true
		}
	}
	return domain.CountryCode{}, false
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := find(child, a); found != nil {
			return found
		}
	}
	return nil
}

func cellTexts(tr *html.Node) []string {
	var out []string
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && td.DataAtom == atom.Td {
			out = append(out, strings.TrimSpace(text(td)))
		}
	}
	return out
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(text(child))
	}
	return sb.String()
}
