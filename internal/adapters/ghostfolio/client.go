package ghostfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/alejandrodnm/eicfolio/internal/adapters/rest"
	"github.com/alejandrodnm/eicfolio/internal/ports"
	"github.com/alejandrodnm/eicfolio/internal/resilient"
)

const (
	// Ghostfolio self-hosted no documenta límites; 5/s mantiene el servidor tranquilo.
	defaultRatePerSec = 5
	defaultBurst      = 2
)

// ErrSessionClosed se devuelve al usar una sesión tras Close.
var ErrSessionClosed = errors.New("ghostfolio: session closed")

// Client sabe abrir sesiones contra una instancia de Ghostfolio.
type Client struct {
	baseURL string
	secret  string
	http    *rest.Client
	exec    *resilient.Executor
	log     *slog.Logger
}

// Options configura un Client.
type Options struct {
	BaseURL       string
	SecurityToken string
	RatePerSec    float64
	Executor      *resilient.Executor
	Logger        *slog.Logger
	HTTP          *rest.Client // opcional, para tests
}

// NewClient crea un Client. No hace ninguna llamada.
func NewClient(opts Options) *Client {
	if opts.RatePerSec == 0 {
		opts.RatePerSec = defaultRatePerSec
	}
	if opts.HTTP == nil {
		opts.HTTP = rest.NewClient(opts.RatePerSec, defaultBurst, rest.WithHeader("User-Agent", "eicfolio"))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = resilient.New(opts.Logger)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		secret:  opts.SecurityToken,
		http:    opts.HTTP,
		exec:    opts.Executor,
		log:     opts.Logger.With("component", "ghostfolio"),
	}
}

// Open intercambia el secreto por un bearer token y devuelve la sesión.
func (c *Client) Open(ctx context.Context) (ports.PortfolioSession, error) {
	return c.OpenSession(ctx)
}

// OpenSession es Open con el tipo concreto.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	if c.secret == "" {
		return nil, errors.New("ghostfolio.Open: security token is empty")
	}
	resp, err := resilient.Call(ctx, c.exec, resilient.Long("getAuthToken"),
		func(ctx context.Context) (authResponse, error) {
			var out authResponse
			err := c.http.JSON(ctx, rest.Request{
				Method: http.MethodPost,
				URL:    c.url("/api/v1/auth/anonymous"),
				Body:   authRequest{AccessToken: c.secret},
			}, &out)
			return out, err
		})
	if err != nil {
		return nil, fmt.Errorf("ghostfolio.Open: %w", err)
	}
	if resp.AuthToken == "" {
		return nil, errors.New("ghostfolio.Open: empty auth token in response")
	}
	c.log.Debug("ghostfolio session opened")
	return &Session{client: c, token: resp.AuthToken}, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// Session lleva el token de una ejecución. No es compartida entre ejecuciones.
type Session struct {
	client *Client

	mu     sync.Mutex
	token  string
	closed bool
}

// Close descarta el token.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.closed = true
	s.client.log.Debug("ghostfolio session closed")
}

func (s *Session) bearer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	return "Bearer " + s.token, nil
}

// call ejecuta una request autenticada bajo la política dada.
func call[T any](ctx context.Context, s *Session, p resilient.Policy, method, path string, body any) (T, error) {
	return resilient.Call(ctx, s.client.exec, p, func(ctx context.Context) (T, error) {
		var out T
		auth, err := s.bearer()
		if err != nil {
			return out, err
		}
		err = s.client.http.JSON(ctx, rest.Request{
			Method: method,
			URL:    s.client.url(path),
			Header: http.Header{"Authorization": []string{auth}},
			Body:   body,
		}, &out)
		return out, err
	})
}

func escape(symbol string) string {
	return url.PathEscape(symbol)
}
