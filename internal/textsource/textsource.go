// Package textsource reads query and reference text from files for the CLI.
// PDFs are converted to plain text page by page; everything else is read as
// UTF-8 text.
package textsource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a file yields no extractable text.
var ErrNoText = errors.New("no extractable text")

// ReadFile returns the text content of path. "-" reads standard input.
func ReadFile(path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return decodePlain(raw, "stdin")
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return decodePlain(raw, path)
}

func decodePlain(raw []byte, name string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", name)
	}
	return strings.TrimPrefix(string(raw), "\ufeff"), nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if content = normalizeLines(content); content != "" {
			pages = append(pages, content)
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return strings.Join(pages, "\n"), nil
}

// normalizeLines collapses runs of spaces inside each line and drops blank
// lines. Line breaks are kept because certificate field extraction is
// line-oriented.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
