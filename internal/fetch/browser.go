// Package fetch - browser.go provides a session-scoped headless browser for
// the JavaScript-rendered job board. Requires Chrome/Chromium on the system.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/evasion"
)

// DefaultRenderTimeout bounds a single page render.
const DefaultRenderTimeout = 30 * time.Second

// settleDelay gives client-side rendering time to populate the listing
// cards after the document is ready.
const settleDelay = 3 * time.Second

// Browser is a scoped transport resource: acquired at search start (or at a
// session rotation boundary) and released via Close, even on error. One
// browser serves exactly one session epoch.
type Browser struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
}

// NewBrowser starts a headless browser presenting the given identity: its
// user agent and viewport come from the identity, and automation markers
// are suppressed.
func NewBrowser(ctx context.Context, id evasion.RequestIdentity, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(id.UserAgent),
		chromedp.WindowSize(id.Viewport.Width, id.Viewport.Height),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	logger.Debug("browser session started",
		zap.String("epoch", id.Epoch.String()),
		zap.Int("viewport_width", id.Viewport.Width),
		zap.Int("viewport_height", id.Viewport.Height))

	return &Browser{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}, nil
}

// Render navigates to a URL and returns the rendered HTML once the page has
// settled. The navigation runs to its own timeout even if the outer context
// is cancelled mid-flight, so the browser is never left mid-navigation.
func (b *Browser) Render(url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}

	renderCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed for %s: %w", url, err)
	}

	b.logger.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Close releases the browser process and its allocator.
func (b *Browser) Close() {
	b.cancelCtx()
	b.cancelAlloc()
	b.logger.Debug("browser session closed")
}
