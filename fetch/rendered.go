package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// settleDelay gives client-side scripts a moment to populate lazy content
// after the body is ready.
const settleDelay = 2 * time.Second

// FetchRendered retrieves a URL via a headless browser that executes page
// scripts, then parses the resulting DOM. The browser context is scoped to
// this one attempt and torn down on every path, including errors. Any
// failure here is a render failure: there is no cheaper path left to fall
// back to.
func (c *Client) FetchRendered(ctx context.Context, pageURL string) (*goquery.Document, error) {
	// Acquire a render slot; the headless browser is a limited resource
	select {
	case c.renderSlots <- struct{}{}:
		defer func() { <-c.renderSlots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, ctx.Err())
	}

	renderCtx, cancel := context.WithTimeout(ctx, c.renderTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(renderCtx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.UserAgent(c.userAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var renderedHTML string
	tasks := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &renderedHTML, chromedp.ByQuery),
	}

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse rendered DOM: %v", ErrRenderFailure, err)
	}

	return doc, nil
}
