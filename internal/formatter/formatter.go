// package formatter exports the unsupported backlog to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/strippers/internal/ledger"
	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

// Format names an export format.
type Format string

const (
	Text     Format = "txt"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// ParseFormat accepts the format names and their common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "md", "markdown":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext is the file extension for f.
func (f Format) Ext() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Row is one distinct pair in the backlog and how many times it was reported.
type Row struct {
	Song    string `json:"song"`
	Artist  string `json:"artist"`
	Reports int    `json:"reports"`
}

// Backlog is a snapshot of the ledger.
type Backlog struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Lines       int              `json:"lines"`
	Rows        []Row            `json:"entries"`
	entries     []models.SongKey
}

// NewBacklog groups entries into rows, keeping first-report order.
func NewBacklog(entries []models.SongKey, now time.Time) *Backlog {
	b := &Backlog{GeneratedAt: now.UTC(), Lines: len(entries), Rows: []Row{}, entries: entries}
	index := make(map[models.SongKey]int, len(entries))
	for _, k := range entries {
		if i, ok := index[k]; ok {
			b.Rows[i].Reports++
			continue
		}
		index[k] = len(b.Rows)
		b.Rows = append(b.Rows, Row{Song: k.Song, Artist: k.Artist, Reports: 1})
	}
	return b
}

// ExportToText renders the backlog in ledger line form, one line per report.
func ExportToText(b *Backlog) ([]byte, error) {
	var buf bytes.Buffer
	for _, k := range b.entries {
		buf.WriteString(ledger.Line(k))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ExportToCSV converts the backlog to CSV with columns: Song, Artist, Reports
func ExportToCSV(b *Backlog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Song", "Artist", "Reports"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range b.Rows {
		if err := writer.Write([]string{row.Song, row.Artist, strconv.Itoa(row.Reports)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders the backlog as a table under a heading.
func ExportToMarkdown(b *Backlog) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Unsupported songs\n\n")
	buf.WriteString(fmt.Sprintf("**Generated**: %s\n", b.GeneratedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", len(b.Rows)))
	buf.WriteString(fmt.Sprintf("**Reports**: %d\n\n", b.Lines))

	if len(b.Rows) == 0 {
		buf.WriteString("_Nothing is waiting for a stripper._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Song | Artist | Reports |\n")
	buf.WriteString("|---|------|--------|---------|\n")
	for i, row := range b.Rows {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %d |\n", i+1, escapeCell(row.Song), escapeCell(row.Artist), row.Reports))
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders the backlog as indented JSON.
func ExportToJSON(b *Backlog) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backlog: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders b in format f.
func Export(b *Backlog, f Format) ([]byte, error) {
	switch f {
	case Text:
		return ExportToText(b)
	case Markdown:
		return ExportToMarkdown(b)
	case CSV:
		return ExportToCSV(b)
	case JSON:
		return ExportToJSON(b)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport writes b to path in format f.
//
// Defaults to unsupported_{epoch}.{ext} as the filename.
func WriteExport(b *Backlog, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("unsupported_%d.%s", b.GeneratedAt.Unix(), f.Ext())
	}

	data, err := Export(b, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
