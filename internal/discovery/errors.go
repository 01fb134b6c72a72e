package discovery

import "fmt"

// ListScrapeError indicates a listing page could not be fetched or parsed.
type ListScrapeError struct {
	Message string
	Cause   error
}

func (e *ListScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("list scrape error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("list scrape error: %s", e.Message)
}

func (e *ListScrapeError) Unwrap() error {
	return e.Cause
}
