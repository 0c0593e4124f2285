package reconcile_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/application/reconcile"
	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/ports"
)

// fakePortfolio es un Ghostfolio en memoria: lo que se crea aparece en los
// listados siguientes, igual que en el servidor real.
type fakePortfolio struct {
	platforms  []domain.Platform
	tags       []domain.Tag
	accounts   []domain.Account
	user       domain.User
	profiles   []domain.Profile
	created    domain.Profile // lo que devuelve CreateProfile
	marketData map[string][]domain.MarketPrice
	orders     []domain.Activity

	updates       map[string]domain.ProfileUpdate
	batches       map[string][][]domain.MarketPrice
	createdOrders []domain.NewActivity
	marketReads   []string
	profileReads  int

	setMarketErr   error
	createOrderErr error
	closed         bool
	seq            int
}

func newFakePortfolio() *fakePortfolio {
	return &fakePortfolio{
		user:       domain.User{ID: "user-1", BaseCurrency: "EUR"},
		marketData: make(map[string][]domain.MarketPrice),
		updates:    make(map[string]domain.ProfileUpdate),
		batches:    make(map[string][][]domain.MarketPrice),
	}
}

func (f *fakePortfolio) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakePortfolio) Platforms(context.Context) ([]domain.Platform, error) {
	return f.platforms, nil
}

func (f *fakePortfolio) CreatePlatform(_ context.Context, p domain.Platform) (domain.Platform, error) {
	p.ID = f.nextID("platform")
	f.platforms = append(f.platforms, p)
	return p, nil
}

func (f *fakePortfolio) Tags(context.Context) ([]domain.Tag, error) {
	return f.tags, nil
}

func (f *fakePortfolio) CreateTag(_ context.Context, name, userID string) (domain.Tag, error) {
	t := domain.Tag{ID: f.nextID("tag"), Name: name, UserID: userID}
	f.tags = append(f.tags, t)
	return t, nil
}

func (f *fakePortfolio) Accounts(context.Context) ([]domain.Account, error) {
	return f.accounts, nil
}

func (f *fakePortfolio) CreateAccount(_ context.Context, a domain.Account) (domain.Account, error) {
	a.ID = f.nextID("account")
	f.accounts = append(f.accounts, a)
	return a, nil
}

func (f *fakePortfolio) User(context.Context) (domain.User, error) {
	return f.user, nil
}

func (f *fakePortfolio) Profiles(context.Context) ([]domain.Profile, error) {
	f.profileReads++
	return f.profiles, nil
}

func (f *fakePortfolio) CreateProfile(_ context.Context, symbol string) (domain.Profile, error) {
	p := f.created
	p.Symbol = symbol
	p.DataSource = domain.DataSourceManual
	f.profiles = append(f.profiles, p)
	return p, nil
}

func (f *fakePortfolio) UpdateProfile(_ context.Context, symbol string, u domain.ProfileUpdate) error {
	f.updates[symbol] = u
	return nil
}

func (f *fakePortfolio) MarketData(_ context.Context, symbol string) ([]domain.MarketPrice, error) {
	f.marketReads = append(f.marketReads, symbol)
	return f.marketData[symbol], nil
}

func (f *fakePortfolio) SetMarketData(_ context.Context, symbol string, points []domain.MarketPrice) error {
	if f.setMarketErr != nil {
		return f.setMarketErr
	}
	f.batches[symbol] = append(f.batches[symbol], points)
	f.marketData[symbol] = append(f.marketData[symbol], points...)
	return nil
}

func (f *fakePortfolio) Orders(context.Context) ([]domain.Activity, error) {
	return f.orders, nil
}

func (f *fakePortfolio) CreateOrder(_ context.Context, a domain.NewActivity) (domain.Activity, error) {
	if f.createOrderErr != nil {
		return domain.Activity{}, f.createOrderErr
	}
	f.createdOrders = append(f.createdOrders, a)
	act := domain.Activity{
		ID:          f.nextID("order"),
		Date:        a.Date,
		Type:        a.Type,
		UnitPrice:   a.UnitPrice,
		Fee:         a.Fee,
		Symbol:      a.Symbol,
		ProfileName: a.Symbol,
		Tags:        a.Tags,
	}
	f.orders = append(f.orders, act)
	return act, nil
}

func (f *fakePortfolio) Close() {
	f.closed = true
}

var _ ports.PortfolioSession = (*fakePortfolio)(nil)

type fakeOpener struct {
	session *fakePortfolio
	opened  int
	err     error
}

func (o *fakeOpener) Open(context.Context) (ports.PortfolioSession, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.opened++
	return o.session, nil
}

type fakePrices struct {
	series      map[string]domain.PriceSeries
	allocations map[string]domain.Allocation
	seriesCalls []string
	allocCalls  int
}

func (p *fakePrices) HistoricalSeries(_ context.Context, isin, _ string, _, _ *time.Time) (domain.PriceSeries, error) {
	p.seriesCalls = append(p.seriesCalls, isin)
	return p.series[isin], nil
}

func (p *fakePrices) CountriesAndSectors(_ context.Context, isin string) (domain.Allocation, error) {
	p.allocCalls++
	return p.allocations[isin], nil
}

type fakeCountries struct {
	codes []domain.CountryCode
	calls int
}

func (c *fakeCountries) CountryCodes(context.Context) ([]domain.CountryCode, error) {
	c.calls++
	return c.codes, nil
}

type rateCall struct {
	from, to   string
	start, end time.Time
}

type fakeRates struct {
	series domain.ExchangeRateSeries
	calls  []rateCall
}

func (r *fakeRates) RatesForDateRange(_ context.Context, from, to string, start, end time.Time) (domain.ExchangeRateSeries, error) {
	r.calls = append(r.calls, rateCall{from: from, to: to, start: start, end: end})
	return r.series, nil
}

type fakeBroker struct {
	data domain.BrokerData
	err  error
}

func (b *fakeBroker) Collect(context.Context) (domain.BrokerData, error) {
	return b.data, b.err
}

type fakeJournal struct {
	started  []domain.RunSummary
	writes   []domain.Write
	finished []domain.RunSummary
}

func (j *fakeJournal) StartRun(_ context.Context, s domain.RunSummary) error {
	j.started = append(j.started, s)
	return nil
}

func (j *fakeJournal) RecordWrite(_ context.Context, _ string, w domain.Write) error {
	j.writes = append(j.writes, w)
	return nil
}

func (j *fakeJournal) FinishRun(_ context.Context, s domain.RunSummary) error {
	j.finished = append(j.finished, s)
	return nil
}

func (j *fakeJournal) Runs(context.Context, int) ([]domain.RunRecord, error) {
	return nil, errors.New("not implemented")
}

func (j *fakeJournal) Close() error { return nil }

// sleepRecorder cuenta las pausas sin dormir.
type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// harness agrupa un Reconciler con sus fakes.
type harness struct {
	portfolio *fakePortfolio
	prices    *fakePrices
	countries *fakeCountries
	rates     *fakeRates
	sleeps    *sleepRecorder
	writes    []domain.Write
	logs      *bytes.Buffer
	rec       *reconcile.Reconciler
}

func newHarness(opts reconcile.Options) *harness {
	h := &harness{
		portfolio: newFakePortfolio(),
		prices: &fakePrices{
			series:      make(map[string]domain.PriceSeries),
			allocations: make(map[string]domain.Allocation),
		},
		countries: &fakeCountries{},
		rates:     &fakeRates{},
		sleeps:    &sleepRecorder{},
		logs:      &bytes.Buffer{},
	}
	h.rec = h.reconciler(opts)
	return h
}

// reconciler crea un Reconciler nuevo sobre los mismos fakes (otra ejecución).
func (h *harness) reconciler(opts reconcile.Options) *reconcile.Reconciler {
	return reconcile.NewReconciler(h.portfolio,
		reconcile.Sources{Prices: h.prices, Countries: h.countries, Rates: h.rates},
		opts,
		reconcile.WithSleeper(h.sleeps.sleep),
		reconcile.WithLogger(slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		reconcile.WithWriteHook(func(w domain.Write) { h.writes = append(h.writes, w) }),
	)
}

func testOptions() reconcile.Options {
	opts := reconcile.DefaultOptions()
	opts.AccountName = "EIC account"
	opts.TargetTag = "EIC"
	return opts
}
