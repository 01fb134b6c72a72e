// Package discovery implements the listing-scrape stage: it walks a board's
// search result pages, parses the job cards, and turns unseen postings into
// new records. Postings whose link is already in the store are counted as
// duplicates and never touched again.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-pipeline/internal/fetch"
	"github.com/jonathan/job-pipeline/internal/types"
)

// maxEmptyPages ends pagination after this many consecutive pages without a
// single card; the board has run out of results.
const maxEmptyPages = 2

// browserTimeout bounds one headless-browser render of a listing page.
const browserTimeout = 60 * time.Second

// Options configures one discovery run.
type Options struct {
	Board      fetch.Board
	Query      string
	Location   string
	Pages      int
	UseBrowser bool
	Verbose    bool
}

// Result summarizes one discovery run.
type Result struct {
	Records      []types.Record
	Duplicates   int
	PagesFetched int
}

// Scraper walks board listing pages and produces records for new postings.
type Scraper struct {
	opts Options

	fetchPage  func(ctx context.Context, pageURL string) (string, error)
	renderPage func(ctx context.Context, pageURL string) (string, error)
}

// New returns a Scraper for one board search.
func New(opts Options) *Scraper {
	if opts.Pages < 1 {
		opts.Pages = 1
	}

	s := &Scraper{opts: opts}
	s.fetchPage = func(ctx context.Context, pageURL string) (string, error) {
		result, err := fetch.URL(ctx, pageURL)
		if err != nil {
			return "", err
		}
		return result.HTML, nil
	}
	s.renderPage = func(ctx context.Context, pageURL string) (string, error) {
		// Rendering is done once a job card shows up.
		wait := boardCardSelectors(opts.Board).wrapper
		return fetch.WithBrowser(ctx, pageURL, wait, browserTimeout, opts.Verbose)
	}
	return s
}

// Run scrapes up to Options.Pages listing pages and returns records for the
// cards whose links are not already present in existing. A page that fails
// to fetch is skipped; Run returns an error only when no page at all could
// be fetched. Cards parsed with a link but no title become records with
// StatusErrorListScrape so the miss is visible in the store instead of
// silently dropped.
func (s *Scraper) Run(ctx context.Context, existing []types.Record) (*Result, error) {
	seen := knownLinks(existing)
	res := &Result{}
	now := time.Now()

	emptyPages := 0
	var lastErr error

	for page := 1; page <= s.opts.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		pageURL := SearchURL(s.opts.Board, s.opts.Query, s.opts.Location, page)
		if s.opts.Verbose {
			fmt.Printf("  page %d: %s\n", page, pageURL)
		}

		html, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			lastErr = err
			fmt.Printf("  page %d fetch failed: %v\n", page, err)
			continue
		}
		res.PagesFetched++

		cards, err := ParseCards(html, s.opts.Board, pageURL)
		if err != nil {
			lastErr = err
			continue
		}

		// Boards that render cards with JavaScript serve an empty shell to
		// plain HTTP; retry the page in a headless browser.
		if len(cards) == 0 && s.opts.UseBrowser {
			rendered, rerr := s.renderPage(ctx, pageURL)
			if rerr != nil {
				lastErr = rerr
				fmt.Printf("  page %d browser render failed: %v\n", page, rerr)
			} else if more, perr := ParseCards(rendered, s.opts.Board, pageURL); perr == nil {
				cards = more
			}
		}

		if len(cards) == 0 {
			emptyPages++
			if emptyPages >= maxEmptyPages {
				break
			}
			continue
		}
		emptyPages = 0

		for _, card := range cards {
			if card.Link == "" {
				if s.opts.Verbose {
					fmt.Printf("  card skipped (job %q): no link\n", card.JobID)
				}
				continue
			}
			if seen[card.Link] {
				res.Duplicates++
				continue
			}
			seen[card.Link] = true
			res.Records = append(res.Records, recordFromCard(card, now))
		}
	}

	if res.PagesFetched == 0 && lastErr != nil {
		return res, &ListScrapeError{Message: "no listing page could be fetched", Cause: lastErr}
	}
	return res, nil
}

// recordFromCard builds the stage-entry record for a parsed card.
func recordFromCard(card Card, now time.Time) types.Record {
	rec := types.Record{
		JobID:     card.JobID,
		Title:     card.Title,
		Company:   card.Company,
		Location:  card.Location,
		Link:      card.Link,
		PostedAge: card.PostedAge,
		Promoted:  card.Promoted,
		EasyApply: card.EasyApply,
		Status:    types.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rec.Title == "" {
		rec.Status = types.StatusErrorListScrape
		rec.Notes = "listing card has no title"
	}
	return rec
}

// knownLinks indexes the links already present in the store. Dedup is by
// link, the one field every board exposes for a posting.
func knownLinks(records []types.Record) map[string]bool {
	known := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Link != "" {
			known[rec.Link] = true
		}
	}
	return known
}
