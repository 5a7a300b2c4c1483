// Package fetch retrieves a page's rendered content, either via a
// lightweight static HTTP fetch or via a headless-browser render that
// executes page scripts. Static fetching is cheap and sufficient for most
// sites; the rendered path is reserved for JavaScript-dependent CMSs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/dirscout/config"
)

// Custom errors for fetch operations
var (
	ErrTimeout       = errors.New("fetch timed out")
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
	ErrRenderFailure = errors.New("headless render failed")
)

// maxResponseBytes limits the size of fetched page bodies.
const maxResponseBytes = 5 * 1024 * 1024 // 5 MB

// Client fetches pages over both the static and the rendered path. Render
// sessions are a shared, limited resource: a semaphore bounds them to one
// per worker slot, and a slot is always released before reuse.
type Client struct {
	httpClient    *http.Client
	userAgent     string
	staticTimeout time.Duration
	renderTimeout time.Duration
	probeTimeout  time.Duration
	renderSlots   chan struct{}
}

// NewClient creates a fetch client from the given configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		// Per-attempt deadlines come from request contexts, not the client
		httpClient:    &http.Client{},
		userAgent:     cfg.UserAgent,
		staticTimeout: cfg.StaticTimeout,
		renderTimeout: cfg.RenderTimeout,
		probeTimeout:  cfg.ProbeTimeout,
		renderSlots:   make(chan struct{}, cfg.Concurrency),
	}
}

// FetchStatic retrieves a URL's server-delivered markup without executing
// embedded scripts and parses it with goquery.
func (c *Client) FetchStatic(ctx context.Context, pageURL string) (*goquery.Document, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.staticTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(fetchCtx, err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, pageURL)
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// Probe performs a lightweight existence check on a URL: HTTP success with
// a non-empty body. Used by the URL pattern discovery strategy.
func (c *Client) Probe(ctx context.Context, pageURL string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	// A 200 with an empty body is a soft 404 as far as probing goes
	buf := make([]byte, 512)
	n, _ := io.ReadFull(resp.Body, buf)
	return n > 0
}

// isTimeout reports whether a request error was a deadline rather than some
// other network failure.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
