// Package rest es el cliente HTTP compartido por los adapters: rate limiting
// por host, JSON in/out y errores tipados por status. No reintenta; los
// reintentos los decide internal/resilient.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 2048
)

// StatusError es una respuesta no-2xx.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// HTTPStatus permite a resilient detectar 429 sin importar este paquete.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client es un http.Client con limiter y headers comunes.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers http.Header
}

// Option configura un Client.
type Option func(*Client)

// WithTimeout cambia el timeout por request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient reemplaza el http.Client subyacente.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithHeader añade un header a todas las requests.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// NewClient crea un Client limitado a perSec requests por segundo.
// perSec <= 0 desactiva el limiter.
func NewClient(perSec float64, burst int, opts ...Option) *Client {
	limit := rate.Limit(perSec)
	if perSec <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(limit, burst),
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describe una llamada.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any // se serializa como JSON si no es nil
}

// JSON ejecuta req y decodifica la respuesta en out (puede ser nil).
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	body, err := c.Raw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL, err)
	}
	return nil
}

// Raw ejecuta req y devuelve el body completo.
func (c *Client) Raw(ctx context.Context, req Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Method: method, URL: req.URL, StatusCode: resp.StatusCode, Body: msg}
	}
	return body, nil
}
