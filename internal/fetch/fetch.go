// Package fetch retrieves job board pages and reduces posting HTML to
// clean text. Plain HTTP is the first try for every page; boards that
// only render through JavaScript get a second pass in headless Chrome.
// The discovery and detail stages share this package.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// requestTimeout bounds one plain HTTP fetch.
const requestTimeout = 30 * time.Second

// userAgent identifies the agent to job boards. Boards answer Go's
// default user agent with bot walls.
const userAgent = "Mozilla/5.0 (compatible; JobAgent/1.0)"

// maxBodyBytes caps how much of a response body is read. Reads past the
// cap are truncated, not failed.
const maxBodyBytes = 8 << 20

// baseNoiseSelector strips the chrome every page shares before any
// board-specific cleanup runs.
const baseNoiseSelector = "script, style, noscript, nav, header, footer, " +
	".ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup"

// httpClient is shared by all fetches so listing pages on the same board
// reuse connections.
var httpClient = &http.Client{Timeout: requestTimeout}

// Result holds one fetched page.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error reports a failed fetch. Cause carries the transport error when
// there is one; an HTTP-level failure leaves Cause nil and puts the
// status in Message.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetching %s: %s", e.URL, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// URL fetches one page over plain HTTP. A reachable page with a non-200
// status returns both the Result and an Error so the caller can inspect
// the status code.
func URL(ctx context.Context, pageURL string) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{URL: pageURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         pageURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: pageURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

// ExtractMainText reduces page HTML to readable text. Noise elements are
// removed first, then the content selectors are tried in order; the
// first one holding visible text wins, so an empty container does not
// shadow a populated later one. When nothing matches, the whole body is
// used.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(baseNoiseSelector).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if text := collapseText(sel.First().Text()); text != "" {
			return text, nil
		}
	}
	return collapseText(doc.Find("body").Text()), nil
}

// JobPostingSelectors are generic description containers, tried when a
// page's board is unknown.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		"#job-description",
		".job-details",
		".posting-content",
		"[data-testid='job-description']",
		"[class*='jobDescription']",
		"main",
		"article",
		"#content",
		".content",
	}
}

// collapseText trims every line, collapses interior whitespace runs to a
// single space, and drops blank lines.
func collapseText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}
