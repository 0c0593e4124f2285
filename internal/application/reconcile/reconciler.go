// Package reconcile converge el estado de Ghostfolio con los datos del
// broker: plataforma, etiqueta y cuenta, perfiles de activos, huecos de la
// serie histórica, órdenes y comisiones de gestión.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/patrickmn/go-cache"
)

// Options son los parámetros de negocio de una ejecución.
type Options struct {
	PlatformName string
	PlatformURL  string
	AccountName  string
	TargetTag    string
	FeeSymbol    string
	// GatherData activa la recogida de datos en los perfiles creados.
	GatherData bool

	BatchSize   int           // puntos por lote de market data
	BatchDelay  time.Duration // espera entre lotes
	CreateDelay time.Duration // espera tras cada perfil u orden creados
}

// DefaultOptions devuelve los valores por defecto del broker EIC.
func DefaultOptions() Options {
	return Options{
		PlatformName: "EIC",
		PlatformURL:  "https://webapp.eic.eu/",
		FeeSymbol:    "EIC-MNG-FEE",
		BatchSize:    500,
		BatchDelay:   time.Second,
		CreateDelay:  time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PlatformName == "" {
		o.PlatformName = def.PlatformName
	}
	if o.PlatformURL == "" {
		o.PlatformURL = def.PlatformURL
	}
	if o.FeeSymbol == "" {
		o.FeeSymbol = def.FeeSymbol
	}
	if o.BatchSize <= 0 {
		o.BatchSize = def.BatchSize
	}
	return o
}

// Sleeper espera d o hasta que ctx se cancele.
type Sleeper func(ctx context.Context, d time.Duration) error

// pause es el Sleeper real.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sources agrupa las fuentes secundarias que usa el reconciliador.
type Sources struct {
	Prices    ports.PriceSource
	Countries ports.CountryCodeSource
	Rates     ports.RateSource
}

// Reconciler opera sobre una sesión de Ghostfolio abierta. No es seguro para
// uso concurrente: todas las llamadas son secuenciales.
type Reconciler struct {
	portfolio ports.Portfolio
	src       Sources
	opts      Options
	sleep     Sleeper
	log       *slog.Logger
	now       func() time.Time
	onWrite   func(domain.Write)

	// cache vive lo que la ejecución: códigos de país, allocations y usuario.
	cache *cache.Cache
}

// ReconcilerOption configura un Reconciler.
type ReconcilerOption func(*Reconciler)

// WithSleeper reemplaza la espera entre creaciones y lotes (tests).
func WithSleeper(s Sleeper) ReconcilerOption {
	return func(r *Reconciler) { r.sleep = s }
}

// WithWriteHook recibe cada escritura remota realizada.
func WithWriteHook(fn func(domain.Write)) ReconcilerOption {
	return func(r *Reconciler) { r.onWrite = fn }
}

// WithLogger cambia el logger.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.log = l }
}

// WithClock fija el reloj usado para sellar las escrituras.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) { r.now = now }
}

// NewReconciler crea un reconciliador sobre una sesión de Ghostfolio.
func NewReconciler(portfolio ports.Portfolio, src Sources, opts Options, options ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		portfolio: portfolio,
		src:       src,
		opts:      opts.withDefaults(),
		sleep:     pause,
		log:       slog.Default(),
		now:       time.Now,
		onWrite:   func(domain.Write) {},
		cache:     cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range options {
		opt(r)
	}
	r.log = r.log.With("component", "reconcile")
	return r
}

func (r *Reconciler) record(w domain.Write) {
	if w.At.IsZero() {
		w.At = r.now().UTC()
	}
	r.onWrite(w)
}

// user devuelve el usuario del token, una sola vez por ejecución.
func (r *Reconciler) user(ctx context.Context) (domain.User, error) {
	if v, ok := r.cache.Get("user"); ok {
		return v.(domain.User), nil
	}
	u, err := r.portfolio.User(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("reconcile.user: %w", err)
	}
	r.cache.SetDefault("user", u)
	return u, nil
}
