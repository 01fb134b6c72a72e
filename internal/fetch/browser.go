// Package fetch - browser.go renders script-heavy board pages in headless Chrome.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// minStaticText is the shortest description text a plain HTTP fetch can
// yield before the page counts as script-rendered. Boards that build the
// posting client side serve a static shell well under this length.
const minStaticText = 500

// contentWait bounds the wait for the caller's content selector during a
// render. The DOM is captured either way once the wait ends.
const contentWait = 8 * time.Second

// settleDelay is the render pause used when the caller names no selector
// to wait for.
const settleDelay = 2 * time.Second

// ShouldUseBrowser reports whether text extracted from a plain HTTP fetch
// is too thin to be a real posting, which marks the page for a headless
// render.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < minStaticText
}

// WithBrowser loads a page in headless Chrome and returns the DOM after
// scripts have run. waitFor, when non-empty, is the selector whose
// appearance means the content has rendered; a page that never shows it
// still returns its shell once contentWait passes. Chrome or Chromium
// must be installed.
func WithBrowser(ctx context.Context, pageURL, waitFor string, timeout time.Duration, verbose bool) (string, error) {
	if verbose {
		fmt.Printf("  rendering %s in headless browser\n", pageURL)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	tasks := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	}
	if waitFor == "" {
		tasks = append(tasks, chromedp.Sleep(settleDelay))
	} else {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			// Best effort. A page with no matching node, a no-results
			// listing or a bot wall, still returns its shell.
			waitCtx, cancel := context.WithTimeout(ctx, contentWait)
			defer cancel()
			_ = chromedp.WaitVisible(waitFor, chromedp.ByQuery).Do(waitCtx)
			return nil
		}))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, tasks...); err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if verbose {
		fmt.Printf("  rendered %d bytes\n", len(html))
	}
	return html, nil
}
