package types

import "strings"

// Status represents the lifecycle state of a record. The set is closed:
// every transition writes exactly one of these values, and stage eligibility
// is decided from this field alone. Values are persisted as the
// human-readable strings below because operators inspect the table directly.
type Status string

const (
	StatusNew         Status = "New"
	StatusReadyForAI  Status = "Ready for AI"
	StatusAIAnalyzed  Status = "AI Analyzed"
	StatusTailored    Status = "Tailored Resume Created"
	StatusNeedsEdit   Status = "Tailored Needs Manual Edit"
	StatusImproved    Status = "Rescored - Improved"
	StatusMaintained  Status = "Rescored - Maintained"
	StatusNeedsRetail Status = "Needs Re-Tailoring"

	// Gate-caused terminal states for the tailoring stage.
	StatusSkippedLowScore        Status = "Skipped - Low AI Score"
	StatusErrorAttemptsExhausted Status = "Error - Max Re-Tailoring Attempts"

	// Per-stage error states.
	StatusErrorListScrape      Status = "Error - List Scrape Failed"
	StatusErrorInvalidLink     Status = "Error - Invalid Job Link"
	StatusErrorDetailScrape    Status = "Error - Detail Scrape Failed"
	StatusErrorConnection      Status = "Error - Connection Failed"
	StatusErrorMissingData     Status = "Error - Missing Input Data"
	StatusErrorExtraction      Status = "Error - Extraction Failed"
	StatusErrorAnalysis        Status = "Error - AI Analysis Failed"
	StatusErrorAPIAuth         Status = "Error - API Authentication"
	StatusErrorTailoring       Status = "Error - Tailoring Failed"
	StatusErrorHTMLEdit        Status = "Error - HTML Edit Failed"
	StatusErrorRender          Status = "Error - PDF Render Failed"
	StatusErrorFileAccess      Status = "Error - File Access Failed"
	StatusErrorRescore         Status = "Error - Rescore Failed"
	StatusErrorMissingDocument Status = "Error - Tailored HTML Missing"
	StatusErrorScoreCompare    Status = "Error - Score Comparison Failed"
)

var allStatuses = []Status{
	StatusNew,
	StatusReadyForAI,
	StatusAIAnalyzed,
	StatusTailored,
	StatusNeedsEdit,
	StatusImproved,
	StatusMaintained,
	StatusNeedsRetail,
	StatusSkippedLowScore,
	StatusErrorAttemptsExhausted,
	StatusErrorListScrape,
	StatusErrorInvalidLink,
	StatusErrorDetailScrape,
	StatusErrorConnection,
	StatusErrorMissingData,
	StatusErrorExtraction,
	StatusErrorAnalysis,
	StatusErrorAPIAuth,
	StatusErrorTailoring,
	StatusErrorHTMLEdit,
	StatusErrorRender,
	StatusErrorFileAccess,
	StatusErrorRescore,
	StatusErrorMissingDocument,
	StatusErrorScoreCompare,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Terminal states the controller never revisits without a retry flag for the
// owning stage; SkippedLowScore and ErrorAttemptsExhausted are not retryable
// at all.
var terminalStatuses = map[Status]struct{}{
	StatusImproved:               {},
	StatusMaintained:             {},
	StatusSkippedLowScore:        {},
	StatusErrorAttemptsExhausted: {},
}

// AllStatuses returns the closed set of valid statuses in declaration order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus maps a persisted string back to a Status. Unknown values are
// reported via ok=false, never coerced.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// IsError reports whether s is one of the error states.
func (s Status) IsError() bool {
	return strings.HasPrefix(string(s), "Error - ")
}

// IsTerminal reports whether s ends the record's life for unflagged runs.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}
