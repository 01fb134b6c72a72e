// Package fetch - board.go provides job board detection and board-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Board represents a known job board.
type Board string

const (
	// BoardNaukri is the Naukri job board
	BoardNaukri Board = "naukri"
	// BoardLinkedIn is the LinkedIn jobs board
	BoardLinkedIn Board = "linkedin"
	// BoardIndeed is the Indeed job board
	BoardIndeed Board = "indeed"
	// BoardUnknown is an unrecognized board
	BoardUnknown Board = "unknown"
)

// DetectBoard identifies the job board from a URL.
func DetectBoard(urlStr string) Board {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return BoardUnknown
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "naukri.com") {
		return BoardNaukri
	}

	if strings.Contains(host, "linkedin.com") {
		return BoardLinkedIn
	}

	if strings.Contains(host, "indeed.com") {
		return BoardIndeed
	}

	return BoardUnknown
}

// BoardContentSelectors returns description selectors optimized for a specific board.
func BoardContentSelectors(board Board) []string {
	switch board {
	case BoardNaukri:
		return []string{
			"[class*='dang-inner-html']", // the JD body itself
			"[class*='job-desc']",
			"section.job-desc",
			".jd-container",
			"[class*='jdc__content']", // whole details column, last resort
		}
	case BoardLinkedIn:
		return []string{
			".description__text",
			".show-more-less-html__markup",
			"#job-details",
			".jobs-description-content",
		}
	case BoardIndeed:
		return []string{
			"#jobDescriptionText",
			".jobsearch-jobDescriptionText",
			".jobsearch-JobComponent-description",
		}
	default:
		return JobPostingSelectors()
	}
}

// BoardCompanySelectors returns selectors for the about-the-company block of a
// posting page.
func BoardCompanySelectors(board Board) []string {
	switch board {
	case BoardNaukri:
		return []string{
			"[class*='about-company']",
			"section.about-company",
			".comp-info",
		}
	case BoardLinkedIn:
		return []string{
			".company-description",
			"[data-test-id='about-us__description']",
		}
	case BoardIndeed:
		return []string{
			"[data-testid='AboutSection-section']",
			".jobsearch-CompanyInfoContainer",
		}
	default:
		return []string{
			"[class*='about-company']",
			".company-description",
			".about-content",
		}
	}
}

// BoardNoiseSelectors returns noise exclusion selectors for a specific board.
func BoardNoiseSelectors(board Board) []string {
	// Common noise selectors for all boards
	common := []string{
		// Application forms and buttons
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		"[class*='apply-button']",

		// Similar/recommended jobs rails
		"[class*='similar-jobs']",
		"[class*='recommended-jobs']",
		".job-recommendations",

		// Social and share buttons
		".social-share",
		".share-buttons",
		".social-links",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",

		// Generic navigation already handled in fetch.go
	}

	// Board-specific noise selectors
	switch board {
	case BoardNaukri:
		return append(common,
			"[class*='sticky-footer']",
			"[class*='login-layer']",
			".reg-layer",
		)
	case BoardLinkedIn:
		return append(common,
			".top-card-layout__cta-container",
			".sign-in-modal",
			".contextual-sign-in-modal",
		)
	case BoardIndeed:
		return append(common,
			".jobsearch-ViewJobButtons",
			"#mosaic-belowFullJobDescription",
			".icl-Card",
		)
	default:
		return common
	}
}
