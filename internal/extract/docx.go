package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxBreakPattern = regexp.MustCompile(`</w:p>|<w:br\s*/>`)
	docxTabPattern   = regexp.MustCompile(`<w:tab\s*/>`)
	docxTagPattern   = regexp.MustCompile(`<[^>]*>`)
)

// extractDOCX reads word/document.xml and strips the markup.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxPlainText(doc.Editable().GetContent()), nil
}

func docxPlainText(content string) string {
	content = docxBreakPattern.ReplaceAllString(content, "\n")
	content = docxTabPattern.ReplaceAllString(content, " ")
	content = docxTagPattern.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
