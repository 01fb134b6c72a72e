package detail

import "fmt"

// DetailScrapeError indicates a posting's detail page could not be parsed
// into the fields the AI stages need.
type DetailScrapeError struct {
	Message string
	Cause   error
}

func (e *DetailScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("detail scrape error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("detail scrape error: %s", e.Message)
}

func (e *DetailScrapeError) Unwrap() error {
	return e.Cause
}
