package justetf

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/browser"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/chromedp/chromedp"
)

// minWeightSum is the plausibility floor for scraped weights.
const minWeightSum = 0.99

// ErrImplausibleWeights means the scraped table is incomplete.
var ErrImplausibleWeights = errors.New("scraped weights do not add up")

// RawRow is one table row as text, e.g. {"Ireland", "12.34%"}.
type RawRow struct {
	Name   string `json:"name"`
	Weight string `json:"weight"`
}

// RawAllocation is what the profile page yields before parsing. A nil slice
// means the section is absent.
type RawAllocation struct {
	Countries []RawRow `json:"countries"`
	Sectors   []RawRow `json:"sectors"`
}

// CountriesAndSectors scrapes and checks the allocation of isin.
func (c *Client) CountriesAndSectors(ctx context.Context, isin string) (domain.Allocation, error) {
	if c.profiles == nil {
		return domain.Allocation{}, errors.New("justetf.CountriesAndSectors: no profile fetcher configured")
	}
	pageURL := c.profileBase + "?isin=" + url.QueryEscape(isin)

	raw, err := resilient.Call(ctx, c.exec, resilient.Long("getCountriesAndSectors"),
		func(ctx context.Context) (RawAllocation, error) {
			return c.profiles.FetchAllocation(ctx, pageURL)
		})
	if err != nil {
		return domain.Allocation{}, fmt.Errorf("justetf.CountriesAndSectors %s: %w", isin, err)
	}

	alloc, err := ParseAllocation(raw)
	if err != nil {
		return domain.Allocation{}, fmt.Errorf("justetf.CountriesAndSectors %s: %w", isin, err)
	}
	c.log.Debug("allocation scraped", "isin", isin, "countries", len(alloc.Countries), "sectors", len(alloc.Sectors))
	return alloc, nil
}

// ParseAllocation converts the percentages and runs the plausibility check:
// each present section must sum to at least 0.99, except a sector table whose
// only row is "Other".
func ParseAllocation(raw RawAllocation) (domain.Allocation, error) {
	var out domain.Allocation
	var err error

	if raw.Countries != nil {
		out.Countries, err = parseRows(raw.Countries)
		if err != nil {
			return domain.Allocation{}, fmt.Errorf("countries: %w", err)
		}
		if sum := weightSum(out.Countries); sum < minWeightSum {
			return domain.Allocation{}, fmt.Errorf("countries: %w (%.4f)", ErrImplausibleWeights, sum)
		}
	}

	if raw.Sectors != nil {
		out.Sectors, err = parseRows(raw.Sectors)
		if err != nil {
			return domain.Allocation{}, fmt.Errorf("sectors: %w", err)
		}
		onlyOther := len(out.Sectors) == 1 && out.Sectors[0].Name == "Other"
		if sum := weightSum(out.Sectors); sum < minWeightSum && !onlyOther {
			return domain.Allocation{}, fmt.Errorf("sectors: %w (%.4f)", ErrImplausibleWeights, sum)
		}
	}
	return out, nil
}

func parseRows(rows []RawRow) ([]domain.NamedWeight, error) {
	out := make([]domain.NamedWeight, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" || strings.TrimSpace(r.Weight) == "" {
			continue
		}
		w, err := parsePercent(r.Weight)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NamedWeight{Name: name, Weight: w})
	}
	return out, nil
}

// parsePercent turns "12.34%" into 0.1234.
func parsePercent(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad percentage %q", s)
	}
	return v / 100, nil
}

func weightSum(ws []domain.NamedWeight) float64 {
	var sum float64
	for _, w := range ws {
		sum += w.Weight
	}
	return sum
}

// --- chromedp ---

// extractAllocationJS reads the "Countries" and "Sectors" tables, returning
// null for a missing section. The sectors block is expanded first when its
// toggle is collapsed.
const extractAllocationJS = `(() => {
  const headers = [...document.querySelectorAll('h3')];
  const read = (title, expand) => {
    const header = headers.find((h) => (h.textContent || '').includes(title));
    if (!header) return null;
    const root = header.parentElement;
    if (expand) {
      const anchor = root.getElementsByTagName('a')[0];
      if (anchor && anchor.getAttribute('state') !== 'active') anchor.click();
    }
    return [...root.querySelectorAll('tr')].map((row) => {
      const cells = row.querySelectorAll('td');
      const weightCell = cells[1] && cells[1].children[0] && cells[1].children[0].children[0];
      return {
        name: cells[0] ? (cells[0].textContent || '').trim() : '',
        weight: weightCell ? (weightCell.textContent || '').trim() : '',
      };
    });
  };
  return { countries: read('Countries', false), sectors: read('Sectors', true) };
})()`

const dismissCookiesJS = `(() => {
  const modal = document.querySelector('#CybotCookiebotDialog');
  const button = document.querySelector('#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll');
  if (modal && button) { button.click(); return true; }
  return false;
})()`

// PageFetcher implements ProfileFetcher with a shared Browser.
type PageFetcher struct {
	browser *browser.Browser
	settle  time.Duration
}

func NewPageFetcher(b *browser.Browser) *PageFetcher {
	return &PageFetcher{browser: b, settle: 2 * time.Second}
}

func (f *PageFetcher) FetchAllocation(ctx context.Context, pageURL string) (RawAllocation, error) {
	tabCtx, cancel := f.browser.Tab(ctx)
	defer cancel()

	var dismissed bool
	var raw RawAllocation
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		browser.WaitIdle(f.settle),
		chromedp.Evaluate(dismissCookiesJS, &dismissed),
		browser.WaitIdle(f.settle),
		chromedp.Evaluate(extractAllocationJS, &raw),
	)
	if err != nil {
		return RawAllocation{}, fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	return raw, nil
}
