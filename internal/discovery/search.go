package discovery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-pipeline/internal/fetch"
)

// SearchURL builds the listing-page URL for a board search. Page numbers
// start at 1; unknown boards use the naukri URL scheme.
func SearchURL(board fetch.Board, query, location string, page int) string {
	if page < 1 {
		page = 1
	}

	switch board {
	case fetch.BoardLinkedIn:
		v := url.Values{}
		v.Set("keywords", query)
		if location != "" {
			v.Set("location", location)
		}
		if page > 1 {
			v.Set("start", strconv.Itoa((page-1)*25))
		}
		return "https://www.linkedin.com/jobs/search?" + v.Encode()

	case fetch.BoardIndeed:
		v := url.Values{}
		v.Set("q", query)
		if location != "" {
			v.Set("l", location)
		}
		if page > 1 {
			v.Set("start", strconv.Itoa((page-1)*10))
		}
		return "https://www.indeed.com/jobs?" + v.Encode()

	default:
		return naukriSearchURL(query, location, page)
	}
}

// naukriSearchURL reproduces the board's path-style search URLs, e.g.
// https://www.naukri.com/data-engineer-jobs-in-bangalore-2?k=data+engineer&l=bangalore
func naukriSearchURL(query, location string, page int) string {
	path := slugify(query) + "-jobs"
	if location != "" {
		path += "-in-" + slugify(location)
	}
	if page > 1 {
		path += "-" + strconv.Itoa(page)
	}

	v := url.Values{}
	v.Set("k", query)
	if location != "" {
		v.Set("l", location)
	}
	return "https://www.naukri.com/" + path + "?" + v.Encode()
}

// slugify lowercases a phrase and joins its words with hyphens.
func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
