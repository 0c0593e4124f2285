// Package resilient envuelve cualquier llamada remota con espera y reintentos
// acotados cuando el servidor responde 429, y traduce los fallos a un error
// uniforme que nombra la operación.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultMaxRetries es el número de reintentos tras el primer intento.
	DefaultMaxRetries = 3

	// LongWait aplica a lecturas y llamadas pesadas.
	LongWait = 300 * time.Second
	// ShortWait aplica a creaciones ligeras (platform, account, tag) y al CSV de órdenes.
	ShortWait = 30 * time.Second
)

// Policy describe cómo ejecutar una llamada concreta.
type Policy struct {
	Name       string
	Wait       time.Duration
	MaxRetries int

	short bool
}

// Long devuelve la política de lecturas pesadas para la operación dada.
func Long(name string) Policy {
	return Policy{Name: name, Wait: LongWait, MaxRetries: DefaultMaxRetries}
}

// Short devuelve la política de creaciones ligeras para la operación dada.
func Short(name string) Policy {
	return Policy{Name: name, Wait: ShortWait, MaxRetries: DefaultMaxRetries, short: true}
}

// CallError es el error traducido que sale del executor.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("failed call %s(): %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// statusCoder lo implementan los errores HTTP de los adapters.
type statusCoder interface {
	HTTPStatus() int
}

// IsRateLimited indica si la causa del error es un 429.
func IsRateLimited(err error) bool {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus() == http.StatusTooManyRequests
	}
	return false
}

// Executor guarda el logger y la función de espera. Es seguro para uso
// concurrente, aunque el pipeline solo lo usa de forma secuencial.
type Executor struct {
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error

	// overrides de configuración; cero conserva la política
	longWait   time.Duration
	shortWait  time.Duration
	maxRetries int
}

// Option configura un Executor.
type Option func(*Executor)

// WithSleep reemplaza la espera entre reintentos (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// WithLimits sustituye las esperas de Long/Short y el máximo de reintentos.
// Los valores cero conservan los de la política.
func WithLimits(longWait, shortWait time.Duration, maxRetries int) Option {
	return func(e *Executor) {
		e.longWait = longWait
		e.shortWait = shortWait
		e.maxRetries = maxRetries
	}
}

// New crea un Executor. Si log es nil usa slog.Default().
func New(log *slog.Logger, opts ...Option) *Executor {
	if log == nil {
		log = slog.Default()
	}
	e := &Executor{log: log, sleep: Sleep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Call ejecuta fn bajo la política p. Solo los 429 se reintentan; el resto de
// errores, o el agotamiento de reintentos, sale como *CallError.
func Call[T any](ctx context.Context, e *Executor, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if e == nil {
		e = New(nil)
	}
	p = e.tune(p)

	for attempt := 1; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		if !IsRateLimited(err) || attempt > p.MaxRetries {
			return zero, &CallError{Op: p.Name, Err: err}
		}

		e.log.Warn("rate limited, retrying call",
			"call", p.Name,
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"wait", p.Wait,
		)
		if err := e.sleep(ctx, p.Wait); err != nil {
			return zero, &CallError{Op: p.Name, Err: err}
		}
	}
}

func (e *Executor) tune(p Policy) Policy {
	if p.short && e.shortWait > 0 {
		p.Wait = e.shortWait
	}
	if !p.short && e.longWait > 0 {
		p.Wait = e.longWait
	}
	if e.maxRetries > 0 {
		p.MaxRetries = e.maxRetries
	}
	return p
}

// Do es Call para operaciones sin valor de retorno.
func Do(ctx context.Context, e *Executor, p Policy, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, e, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Sleep espera d respetando el contexto.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
