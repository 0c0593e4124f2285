package eic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/adapters/browser"
	"github.com/alejandrodnm/eicfolio/internal/adapters/rest"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
	"github.com/chromedp/chromedp"
)

const (
	defaultBaseURL   = "https://webapp.eic.eu"
	transactionsPath = "/services/services.php?action=export_transakcie"
	ordersPath       = "/services/services.php?action=export_pokyny"

	headerSelector   = `div.header`
	usernameSelector = `input[name="j_username"]`
	passwordSelector = `input[name="j_password"]`
	loginSelector    = `input[name="login"]`

	loginCheckTimeout = 5 * time.Second
)

var ErrNotLoggedIn = errors.New("not logged in to EIC")

// Scraper implementa ports.BrokerScraper sobre un Browser compartido.
type Scraper struct {
	baseURL string
	browser *browser.Browser
	http    *rest.Client
	exec    *resilient.Executor
	settle  time.Duration
	log     *slog.Logger
}

type Options struct {
	BaseURL  string
	Browser  *browser.Browser
	HTTP     *rest.Client
	Executor *resilient.Executor
	Logger   *slog.Logger
	// Settle sustituye a "network idle" tras cada interacción.
	Settle time.Duration
}

func NewScraper(opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTP == nil {
		opts.HTTP = rest.NewClient(1, 1)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = resilient.New(opts.Logger)
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	return &Scraper{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		browser: opts.Browser,
		http:    opts.HTTP,
		exec:    opts.Executor,
		settle:  opts.Settle,
		log:     opts.Logger.With("component", "eic"),
	}
}

// Login abre una pestaña, envía el formulario y comprueba que aparece la
// cabecera del dashboard.
func (s *Scraper) Login(ctx context.Context, creds ports.Credentials) (ports.BrokerSession, error) {
	if creds.Login == "" || creds.Password == "" {
		return nil, errors.New("eic.Login: login or password is not provided")
	}
	if s.browser == nil {
		return nil, errors.New("eic.Login: no browser configured")
	}

	tabCtx, cancel := s.browser.Tab(ctx)
	// la pestaña ya lleva el ctx de la llamada
	err := resilient.Do(ctx, s.exec, resilient.Long("login"), func(context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.Navigate(s.baseURL),
			chromedp.WaitVisible(usernameSelector, chromedp.ByQuery),
			chromedp.SendKeys(usernameSelector, creds.Login, chromedp.ByQuery),
			chromedp.SendKeys(passwordSelector, creds.Password, chromedp.ByQuery),
			chromedp.Click(loginSelector, chromedp.ByQuery),
		)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("eic.Login: %w", err)
	}

	sess := &session{scraper: s, tabCtx: tabCtx, cancel: cancel}
	if err := sess.ensureLoggedIn("Login"); err != nil {
		cancel()
		return nil, fmt.Errorf("eic.Login: unable to login: %w", err)
	}

	s.log.Debug("logged into EIC")
	return sess, nil
}

// session es una pestaña con sesión iniciada.
type session struct {
	scraper *Scraper
	tabCtx  context.Context
	cancel  context.CancelFunc
}

func (ss *session) ensureLoggedIn(method string) error {
	checkCtx, cancel := context.WithTimeout(ss.tabCtx, loginCheckTimeout)
	defer cancel()
	if err := chromedp.Run(checkCtx, chromedp.WaitVisible(headerSelector, chromedp.ByQuery)); err != nil {
		ss.scraper.log.Error("dashboard header not found", "method", method, "error", err)
		return fmt.Errorf("%w: %s requires a logged-in session", ErrNotLoggedIn, method)
	}
	return nil
}

func (ss *session) DownloadTransactionsCSV(ctx context.Context) ([]byte, error) {
	return ss.download(ctx, resilient.Long("getAllTransactionsFile"), transactionsPath)
}

func (ss *session) DownloadOrdersCSV(ctx context.Context) ([]byte, error) {
	return ss.download(ctx, resilient.Short("getOrdersFile"), ordersPath)
}

// download reutiliza las cookies del navegador en una petición HTTP normal.
func (ss *session) download(ctx context.Context, policy resilient.Policy, path string) ([]byte, error) {
	if err := ss.ensureLoggedIn(policy.Name); err != nil {
		return nil, err
	}
	if err := chromedp.Run(ss.tabCtx, browser.WaitIdle(ss.scraper.settle)); err != nil {
		return nil, fmt.Errorf("eic.%s: %w", policy.Name, err)
	}

	cookie, err := browser.CookieHeader(ss.tabCtx)
	if err != nil {
		return nil, fmt.Errorf("eic.%s: %w", policy.Name, err)
	}

	u := ss.scraper.baseURL + path
	body, err := resilient.Call(ctx, ss.scraper.exec, policy, func(ctx context.Context) ([]byte, error) {
		return ss.scraper.http.Raw(ctx, rest.Request{
			Method: http.MethodGet,
			URL:    u,
			Header: http.Header{"Cookie": []string{cookie}, "Accept": []string{"text/csv, */*"}},
		})
	})
	if err != nil {
		return nil, err
	}
	ss.scraper.log.Debug("csv downloaded", "call", policy.Name, "bytes", len(body))
	return body, nil
}

// FeeTable devuelve un pager sobre la tabla "Záväzky a poplatky mesačne".
func (ss *session) FeeTable(ctx context.Context) (ports.FeeTablePager, error) {
	if err := ss.ensureLoggedIn("getFeesRecords"); err != nil {
		return nil, err
	}

	var found bool
	err := chromedp.Run(ss.tabCtx,
		browser.WaitIdle(ss.scraper.settle),
		chromedp.Evaluate(hasFeeTableJS, &found),
	)
	if err != nil {
		return nil, fmt.Errorf("eic.FeeTable: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("eic.FeeTable: %w", ErrNoFeeTable)
	}
	return &feePager{tabCtx: ss.tabCtx, settle: ss.scraper.settle}, nil
}

func (ss *session) Close() error {
	ss.cancel()
	return nil
}

// --- pager ---

// feeTableRootJS localiza el bloque que contiene el selector con la tabla
// mensual de comisiones.
const feeTableRootJS = `const root = (() => {
  const option = [...document.querySelectorAll('option')].find(
    (o) => o.selected && (o.textContent || '').includes('Záväzky a poplatky mesačne'));
  let el = option;
  for (let i = 0; el && i < 6; i++) el = el.parentElement;
  return el || null;
})();
const links = root ? [...((root.getElementsByClassName('pagination')[0] || { getElementsByTagName: () => [] }).getElementsByTagName('a'))] : [];`

const hasFeeTableJS = `[...document.querySelectorAll('option')].some(
  (o) => o.selected && (o.textContent || '').includes('Záväzky a poplatky mesačne'))`

const pageIndicatorJS = `(() => {` + feeTableRootJS + `
  const current = links.find((a) => a.textContent !== '<' && a.textContent !== '>');
  return current ? (current.textContent || '').trim() : '';
})()`

const nextPageJS = `(() => {` + feeTableRootJS + `
  const next = links.find((a) => a.textContent === '>');
  if (!next) return false;
  next.click();
  return true;
})()`

const feeRowsJS = `(() => {` + feeTableRootJS + `
  if (!root) return [];
  const table = [...root.getElementsByTagName('table')].find((t) => t.className.includes('poplatky'));
  if (!table) return [];
  return [...table.getElementsByTagName('tr')].slice(1).map((row) => {
    const cells = row.querySelectorAll('td');
    const text = (i) => (cells[i] && cells[i].textContent ? cells[i].textContent.trim() : '-');
    return {
      period: cells[0] ? (cells[0].textContent || '').trim() : '',
      processingFee: text(3),
      managementFee: text(4),
      baggageFee: text(5),
    };
  });
})()`

// feeRowJSON fija los nombres que devuelve feeRowsJS.
type feeRowJSON struct {
	Period        string `json:"period"`
	ProcessingFee string `json:"processingFee"`
	ManagementFee string `json:"managementFee"`
	BaggageFee    string `json:"baggageFee"`
}

type feePager struct {
	tabCtx context.Context
	settle time.Duration
}

func (p *feePager) PageIndicator(_ context.Context) (string, error) {
	var indicator string
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(pageIndicatorJS, &indicator)); err != nil {
		return "", err
	}
	return indicator, nil
}

func (p *feePager) Rows(_ context.Context) ([]ports.FeeRow, error) {
	var raw []feeRowJSON
	if err := chromedp.Run(p.tabCtx, chromedp.Evaluate(feeRowsJS, &raw)); err != nil {
		return nil, err
	}
	rows := make([]ports.FeeRow, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, ports.FeeRow(r))
	}
	return rows, nil
}

func (p *feePager) Next(_ context.Context) error {
	var clicked bool
	return chromedp.Run(p.tabCtx,
		chromedp.Evaluate(nextPageJS, &clicked),
		browser.WaitIdle(p.settle),
	)
}
