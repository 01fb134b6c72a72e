// Package rendering writes tailored resume artifacts: edited HTML documents
// and PDF copies rendered in headless Chrome.
package rendering

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// maxFileNameLength caps each sanitized name component.
const maxFileNameLength = 100

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace  = regexp.MustCompile(`\s+`)
	underscores = regexp.MustCompile(`_+`)
)

// FileError reports a failure reading or writing an artifact on disk.
type FileError struct {
	Message string
	Cause   error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("file error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("file error: %s", e.Message)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// SanitizeFileName makes a name safe for use in artifact file names.
// Filesystem-reserved characters and whitespace runs become single
// underscores and the result is capped at maxFileNameLength bytes.
func SanitizeFileName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = whitespace.ReplaceAllString(name, "_")
	name = underscores.ReplaceAllString(name, "_")
	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	return name
}

// ArtifactPaths returns the HTML and PDF output paths for one job, named
// company_title_jobID with each part sanitized.
func ArtifactPaths(outputDir, company, title, jobID string) (htmlPath, pdfPath string) {
	base := fmt.Sprintf("%s_%s_%s", SanitizeFileName(company), SanitizeFileName(title), SanitizeFileName(jobID))
	return filepath.Join(outputDir, base+".html"), filepath.Join(outputDir, base+".pdf")
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &FileError{Message: fmt.Sprintf("cannot create output directory %s", dir), Cause: err}
	}
	return nil
}

// WriteHTML writes an edited resume document to disk.
func WriteHTML(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return &FileError{Message: fmt.Sprintf("cannot write %s", path), Cause: err}
	}
	return nil
}
