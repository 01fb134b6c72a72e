package discovery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-pipeline/internal/fetch"
)

// Card is one parsed listing-page entry.
type Card struct {
	JobID     string
	Title     string
	Company   string
	Location  string
	Link      string
	PostedAge string
	Promoted  bool
	EasyApply bool
}

// cardSelectors locates the pieces of a listing card for one board. An empty
// selector means the board does not expose that piece on its cards. jobIDAttr
// names the wrapper attribute carrying the board's own job identifier; boards
// without one get an identifier derived from the card link.
type cardSelectors struct {
	wrapper   string
	titleLink string
	company   string
	location  string
	postedAge string
	promoted  string
	easyApply string
	jobIDAttr string
}

func boardCardSelectors(board fetch.Board) cardSelectors {
	switch board {
	case fetch.BoardLinkedIn:
		return cardSelectors{
			wrapper:   "div.base-card, div.base-search-card",
			titleLink: "a.base-card__full-link",
			company:   "h4.base-search-card__subtitle a, h4.base-search-card__subtitle",
			location:  "span.job-search-card__location",
			postedAge: "time",
		}
	case fetch.BoardIndeed:
		return cardSelectors{
			wrapper:   "div.job_seen_beacon",
			titleLink: "h2.jobTitle a",
			company:   "span[data-testid='company-name']",
			location:  "div[data-testid='text-location']",
			postedAge: "span[data-testid='myJobsStateDate'], span.date",
			promoted:  "span.sponsoredGray, [data-testid='sponsoredJob']",
			easyApply: "[data-testid='indeedApply'], .iaLabel",
		}
	default:
		// Naukri search result tuples.
		return cardSelectors{
			wrapper:   "div.srp-jobtuple-wrapper",
			titleLink: "a.title",
			company:   "a.comp-name",
			location:  "span.locWdth",
			postedAge: "span.job-post-day",
			promoted:  "span.promoted-tag, .promoted",
			jobIDAttr: "data-job-id",
		}
	}
}

// ParseCards extracts the job cards from one listing page. baseURL is the
// page's own URL and resolves relative card links. Cards stay in page order;
// a card the page renders without an href yields an empty Link and is left
// for the caller to handle.
func ParseCards(html string, board fetch.Board, baseURL string) ([]Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ListScrapeError{Message: "failed to parse listing HTML", Cause: err}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ListScrapeError{Message: "invalid listing URL", Cause: err}
	}

	sel := boardCardSelectors(board)

	var cards []Card
	doc.Find(sel.wrapper).Each(func(_ int, s *goquery.Selection) {
		var card Card
		if sel.jobIDAttr != "" {
			card.JobID = strings.TrimSpace(s.AttrOr(sel.jobIDAttr, ""))
		}

		titleLink := s.Find(sel.titleLink).First()
		card.Title = attrOrText(titleLink, "title")
		card.Link = resolveLink(base, titleLink.AttrOr("href", ""))

		card.Company = attrOrText(s.Find(sel.company).First(), "title")
		card.Location = attrOrText(s.Find(sel.location).First(), "title")
		card.PostedAge = strings.TrimSpace(s.Find(sel.postedAge).First().Text())

		if sel.promoted != "" && s.Find(sel.promoted).Length() > 0 {
			card.Promoted = true
		}
		if sel.easyApply != "" && s.Find(sel.easyApply).Length() > 0 {
			card.EasyApply = true
		}

		if card.JobID == "" && card.Link != "" {
			card.JobID = deriveJobID(card.Link)
		}

		cards = append(cards, card)
	})

	return cards, nil
}

// attrOrText prefers the named attribute over the element text, both trimmed.
// Boards put the full value in a title attribute when the visible text is
// truncated.
func attrOrText(s *goquery.Selection, attr string) string {
	if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
		return v
	}
	return strings.TrimSpace(s.Text())
}

// resolveLink makes a card href absolute against the listing URL, dropping
// the fragment and any trailing slash so the same posting always yields the
// same link.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(u)
	abs.Fragment = ""
	return strings.TrimSuffix(abs.String(), "/")
}

// deriveJobID extracts a stable identifier from a card link for boards that
// do not expose one as a card attribute. Indeed carries it in the jk query
// parameter, LinkedIn in the last path segment of /jobs/view/ links.
func deriveJobID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}

	if jk := u.Query().Get("jk"); jk != "" {
		return jk
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	return link
}
