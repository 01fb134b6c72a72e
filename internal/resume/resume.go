// Package resume loads resume HTML documents and extracts their plain text
// for prompt building. Both the base template and generated tailored copies
// go through the same extraction.
package resume

import (
	"fmt"
	"os"

	"github.com/jonathan/job-pipeline/internal/fetch"
)

// MinTextLength is the shortest extracted text accepted as usable resume
// content.
const MinTextLength = 100

// contentSelectors locate the template's content wrapper before falling back
// to the whole body.
var contentSelectors = []string{"div.container"}

// SourceError reports a resume document that could not be read or parsed.
type SourceError struct {
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume source error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("resume source error: %s", e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// Text extracts readable text from resume HTML. Script and style content is
// dropped, lines are trimmed, and blank lines are removed.
func Text(html string) (string, error) {
	text, err := fetch.ExtractMainText(html, contentSelectors)
	if err != nil {
		return "", &SourceError{Message: "failed to parse resume HTML", Cause: err}
	}
	return text, nil
}

// Load reads an HTML resume from disk and extracts its text. Extracted text
// shorter than MinTextLength is rejected.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &SourceError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}

	text, err := Text(string(data))
	if err != nil {
		return "", err
	}
	if len(text) < MinTextLength {
		return "", &SourceError{Message: fmt.Sprintf("extracted resume text is %d chars, need at least %d", len(text), MinTextLength)}
	}
	return text, nil
}
