package rendering

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	pdf "github.com/ledongthuc/pdf"
)

// A4 paper size in inches for PrintToPDF.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.4
)

// RenderError reports a PDF rendering or parsing failure.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// RenderPDF renders an HTML file to a PDF using headless Chrome. Requires
// Chrome/Chromium to be installed on the system.
func RenderPDF(ctx context.Context, htmlPath, pdfPath string, timeout time.Duration, verbose bool) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return &FileError{Message: fmt.Sprintf("cannot resolve %s", htmlPath), Cause: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return &FileError{Message: fmt.Sprintf("HTML file not found: %s", htmlPath), Cause: err}
	}

	if verbose {
		fmt.Printf("  rendering %s -> %s\n", filepath.Base(htmlPath), filepath.Base(pdfPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var buf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var printErr error
			buf, _, printErr = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			return printErr
		}),
	)
	if err != nil {
		return &RenderError{Message: fmt.Sprintf("PDF render failed for %s", filepath.Base(htmlPath)), Cause: err}
	}

	if err := os.WriteFile(pdfPath, buf, 0644); err != nil {
		return &FileError{Message: fmt.Sprintf("cannot write %s", pdfPath), Cause: err}
	}

	if verbose {
		fmt.Printf("  wrote %d bytes to %s\n", len(buf), filepath.Base(pdfPath))
	}
	return nil
}

// CountPages returns the number of pages in a PDF file.
func CountPages(pdfPath string) (int, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return 0, &FileError{Message: fmt.Sprintf("cannot read %s", pdfPath), Cause: err}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, &RenderError{Message: fmt.Sprintf("cannot parse PDF %s", filepath.Base(pdfPath)), Cause: err}
	}
	return reader.NumPage(), nil
}
