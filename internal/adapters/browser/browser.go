// Package browser wraps a headless Chrome instance driven through chromedp.
// One Browser lives for the scrape phase of a run; each page gets its own tab.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome process.
type Options struct {
	Headless bool
	ExecPath string // empty lets chromedp find Chrome
	// PageTimeout bounds every tab.
	PageTimeout time.Duration
}

// Browser owns the allocator and the root browser context.
type Browser struct {
	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	timeout     time.Duration
	log         *slog.Logger
}

// New starts Chrome. The process lives until Close.
func New(ctx context.Context, opts Options, log *slog.Logger) (*Browser, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 5 * time.Minute
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...), "component", "browser")
	}))

	// Arranca el proceso ahora para fallar pronto si no hay Chrome.
	if err := chromedp.Run(rootCtx); err != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("browser.New: start chrome: %w", err)
	}

	return &Browser{
		allocCancel: allocCancel,
		rootCtx:     rootCtx,
		rootCancel:  rootCancel,
		timeout:     opts.PageTimeout,
		log:         log.With("component", "browser"),
	}, nil
}

// Tab opens a new tab. Cancelling the returned func closes it.
func (b *Browser) Tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(b.rootCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, b.timeout)

	stop := context.AfterFunc(ctx, timeoutCancel)
	return timeoutCtx, func() {
		stop()
		timeoutCancel()
		tabCancel()
	}
}

// Close shuts Chrome down.
func (b *Browser) Close() error {
	b.rootCancel()
	b.allocCancel()
	return nil
}

// CookieHeader returns the tab's cookies formatted for a Cookie header.
func CookieHeader(tabCtx context.Context) (string, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("browser.CookieHeader: %w", err)
	}

	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// WaitIdle sleeps a little so XHR-driven pages settle. chromedp has no
// network-idle primitive.
func WaitIdle(d time.Duration) chromedp.Action {
	return chromedp.Sleep(d)
}
