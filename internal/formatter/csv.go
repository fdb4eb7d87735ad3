package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// csvFormatter formats the visible posts as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(page *Page) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"Post ID",
		"Title",
		"URL",
		"Comments",
		"Latest Comment",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	posts := page.Posts
	if page.Post != nil {
		posts = []PostOutput{*page.Post}
	}
	for _, post := range posts {
		latest := ""
		if len(post.Comments) > 0 {
			latest = escapeCSVString(post.Comments[0].Author + ": " + post.Comments[0].Content)
		}
		record := []string{
			strconv.Itoa(post.ID),
			escapeCSVString(post.Title),
			post.URL,
			strconv.Itoa(post.Count),
			latest,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}

// escapeCSVString flattens newlines and truncates long values
func escapeCSVString(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	if len(s) > 100 {
		s = s[:97] + "..."
	}

	return s
}
