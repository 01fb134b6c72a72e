// Package detail implements the per-posting scrape stage: it fetches each
// record's detail page and fills the description, company overview, and
// contact fields the AI stages read. Every outcome is written to the record
// as a status; the stage never fails the run for one bad posting.
package detail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-pipeline/internal/fetch"
	"github.com/jonathan/job-pipeline/internal/types"
)

// MinDescriptionLength is the shortest description the AI stages accept.
// Anything under it means the page rendered without its posting body.
const MinDescriptionLength = 50

// maxContacts caps how many contact leads one page contributes.
const maxContacts = 5

// browserTimeout bounds one headless-browser render of a detail page.
const browserTimeout = 60 * time.Second

// Options configures the detail stage.
type Options struct {
	UseBrowser bool
	Verbose    bool
}

// Scraper fetches and parses posting detail pages.
type Scraper struct {
	opts Options

	fetchPage  func(ctx context.Context, pageURL string) (string, error)
	renderPage func(ctx context.Context, pageURL string) (string, error)
}

// New returns a Scraper for the detail stage.
func New(opts Options) *Scraper {
	s := &Scraper{opts: opts}
	s.fetchPage = func(ctx context.Context, pageURL string) (string, error) {
		result, err := fetch.URL(ctx, pageURL)
		if err != nil {
			return "", err
		}
		return result.HTML, nil
	}
	s.renderPage = func(ctx context.Context, pageURL string) (string, error) {
		// Rendering is done once the board's description container shows up.
		wait := strings.Join(fetch.BoardContentSelectors(fetch.DetectBoard(pageURL)), ", ")
		return fetch.WithBrowser(ctx, pageURL, wait, browserTimeout, opts.Verbose)
	}
	return s
}

// Scrape fetches rec's detail page and writes the outcome onto the record:
// ReadyForAI with the parsed fields on success, one of the detail error
// statuses otherwise. The returned error is non-nil only when the context
// ended.
func (s *Scraper) Scrape(ctx context.Context, rec *types.Record) error {
	if !validLink(rec.Link) {
		rec.Status = types.StatusErrorInvalidLink
		rec.Notes = "job link is not an absolute http(s) URL"
		return nil
	}

	board := fetch.DetectBoard(rec.Link)

	html, fetchErr := s.fetchPage(ctx, rec.Link)
	var details *PageDetails
	var parseErr error
	if fetchErr == nil {
		details, parseErr = ParseDetails(html, board)
	}

	// Boards that render the posting with JavaScript serve an empty shell
	// over plain HTTP; one headless render is the second and last try.
	if s.opts.UseBrowser && (fetchErr != nil || parseErr != nil || fetch.ShouldUseBrowser(details.Description)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		rendered, renderErr := s.renderPage(ctx, rec.Link)
		if renderErr != nil {
			if s.opts.Verbose {
				fmt.Printf("  browser render failed for %s: %v\n", rec.Link, renderErr)
			}
		} else if d, p := ParseDetails(rendered, board); p == nil {
			details, parseErr, fetchErr = d, nil, nil
		} else if details == nil {
			parseErr = p
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case details == nil && fetchErr != nil:
		if isConnectionError(fetchErr) {
			rec.Status = types.StatusErrorConnection
			rec.Notes = fmt.Sprintf("connection failed: %v", fetchErr)
		} else {
			rec.Status = types.StatusErrorDetailScrape
			rec.Notes = fmt.Sprintf("detail fetch failed: %v", fetchErr)
		}
		return nil
	case parseErr != nil:
		rec.Status = types.StatusErrorDetailScrape
		rec.Notes = fmt.Sprintf("detail parse failed: %v", parseErr)
		return nil
	}

	description := strings.TrimSpace(details.Description)
	if len(description) < MinDescriptionLength {
		rec.Status = types.StatusErrorMissingData
		rec.Notes = fmt.Sprintf("job description too short (%d chars)", len(description))
		return nil
	}

	rec.Description = description
	rec.CompanyOverview = details.CompanyOverview
	rec.Contacts = details.Contacts
	rec.Status = types.StatusReadyForAI
	rec.Notes = ""
	return nil
}

// PageDetails holds the fields scraped from one posting's detail page.
type PageDetails struct {
	Description     string
	CompanyOverview string
	Contacts        []string
}

// ParseDetails extracts the description, the employer blurb, and contact
// leads from a detail page. A page without a recognizable description
// container is a scrape failure; the overview and contacts are best-effort.
func ParseDetails(html string, board fetch.Board) (*PageDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &DetailScrapeError{Message: "failed to parse detail page", Cause: err}
	}

	contentSelectors := fetch.BoardContentSelectors(board)
	if !anyMatch(doc, contentSelectors) {
		return nil, &DetailScrapeError{Message: "job description container not found"}
	}

	description, err := fetch.ExtractMainText(html, contentSelectors, fetch.BoardNoiseSelectors(board)...)
	if err != nil {
		return nil, &DetailScrapeError{Message: "failed to extract description text", Cause: err}
	}

	details := &PageDetails{
		Description:     description,
		CompanyOverview: companyOverview(doc, board),
		Contacts:        extractContacts(doc, board),
	}
	return details, nil
}

// companyOverview returns the text of the first matching employer block.
func companyOverview(doc *goquery.Document, board fetch.Board) string {
	for _, selector := range fetch.BoardCompanySelectors(board) {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return flattenText(sel.First().Text())
		}
	}
	return ""
}

// companyLinkSelectors locate official-website links inside a posting's
// employer section.
func companyLinkSelectors(board fetch.Board) []string {
	switch board {
	case fetch.BoardLinkedIn:
		return []string{
			"a.topcard__org-name-link",
			"[class*='company-info'] a[href^='http']",
		}
	case fetch.BoardIndeed:
		return []string{
			"[data-testid='inlineHeader-companyName'] a",
			"[class*='companyInfo'] a[href^='http']",
		}
	default:
		return []string{
			"[class*='about-company'] a[href^='http']",
			"[class*='comp-info'] a[href^='http']",
		}
	}
}

// extractContacts collects employer links and address lines, deduplicated in
// page order and capped at maxContacts.
func extractContacts(doc *goquery.Document, board fetch.Board) []string {
	var contacts []string
	seen := make(map[string]bool)

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			contacts = append(contacts, v)
		}
	}

	for _, selector := range companyLinkSelectors(board) {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if href := strings.TrimSpace(s.AttrOr("href", "")); strings.HasPrefix(href, "http") {
				add(href)
			}
		})
	}

	doc.Find("[class*='address']").Each(func(_ int, s *goquery.Selection) {
		add(flattenText(s.Text()))
	})

	if len(contacts) > maxContacts {
		contacts = contacts[:maxContacts]
	}
	return contacts
}

// anyMatch reports whether any of the selectors matches the document.
func anyMatch(doc *goquery.Document, selectors []string) bool {
	for _, selector := range selectors {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}

// flattenText collapses an element's text to one whitespace-normalized line.
func flattenText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// validLink reports whether link is an absolute http(s) URL. Records from
// partial listing scrapes can carry empty or relative links; those never
// reach the network.
func validLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isConnectionError reports whether err is a transport-level failure rather
// than a bad HTTP response. fetch.Error carries a cause only for the former.
func isConnectionError(err error) bool {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Cause != nil
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
