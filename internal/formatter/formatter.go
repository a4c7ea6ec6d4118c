// package formatter renders sync results and run history as CSV, Markdown, plain text or a styled terminal summary
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

var statusHeadings = map[models.Status]string{
	models.StatusAdded:             "Added",
	models.StatusAlreadyInPlaylist: "Already in playlist",
	models.StatusNotFound:          "Not found",
	models.StatusPrivateOrDeleted:  "Private or deleted",
}

// Render dispatches to the exporter for format. An empty format is text.
func Render(format string, results []models.Result) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ResultsToText(results)
	case FormatMarkdown, "md":
		return ResultsToMarkdown(results)
	case FormatCSV:
		return ResultsToCSV(results)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ResultsToCSV converts results to CSV with columns: Title, Artist, Track, Status, Catalog ID, Found Artist, Found Title
func ResultsToCSV(results []models.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Track", "Status", "Catalog ID", "Found Artist", "Found Title"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range results {
		record := []string{r.Title, r.Artist, r.Track, string(r.Status), r.TrackID, r.FoundArtist, r.FoundTitle}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultsToMarkdown converts results to a Markdown report: a count table followed by one section per non-empty status.
func ResultsToMarkdown(results []models.Result) ([]byte, error) {
	var buf bytes.Buffer
	summary := models.Count(results)

	buf.WriteString("# Sync Report\n\n")
	buf.WriteString("| Status | Count |\n|---|---|\n")
	for _, s := range models.Statuses {
		buf.WriteString(fmt.Sprintf("| %s | %d |\n", s, countOf(summary, s)))
	}
	buf.WriteString(fmt.Sprintf("| **total** | %d |\n", summary.Total))

	for _, s := range models.Statuses {
		group := byStatus(results, s)
		if len(group) == 0 {
			continue
		}
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", statusHeadings[s]))
		for i, r := range group {
			buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, escapeMarkdown(r.Title), matchSuffix(r)))
		}
	}

	return buf.Bytes(), nil
}

// ResultsToText converts results to plain text, one line per entry prefixed by its status.
func ResultsToText(results []models.Result) ([]byte, error) {
	var buf bytes.Buffer
	summary := models.Count(results)

	buf.WriteString(SummaryText(summary))
	buf.WriteString("\n")

	for i, r := range results {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s%s\n", i+1, r.Status, r.Title, matchSuffix(r)))
	}

	return buf.Bytes(), nil
}

// SummaryText is the one-line plain rendering of a run summary.
func SummaryText(s models.Summary) string {
	line := fmt.Sprintf("Total: %d, added: %d, already in playlist: %d, not found: %d, private/deleted: %d",
		s.Total, s.Added, s.AlreadyInPlaylist, s.NotFound, s.PrivateOrDeleted)
	if s.DroppedBatches > 0 {
		line += fmt.Sprintf(", dropped batches: %d", s.DroppedBatches)
	}
	return line + "\n"
}

// RunsToText renders run history as an aligned table, newest first as given.
func RunsToText(runs []*models.Run) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("%-8s  %-20s  %-22s  %5s  %5s  %5s  %5s  %s\n",
		"RUN", "STARTED", "PLAYLIST", "ADDED", "DUP", "MISS", "PRIV", "DURATION"))
	for _, r := range runs {
		id := r.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		playlist := r.PlaylistID
		if r.DryRun {
			playlist += " (dry)"
		}
		buf.WriteString(fmt.Sprintf("%-8s  %-20s  %-22s  %5d  %5d  %5d  %5d  %s\n",
			id,
			r.StartedAt.Local().Format(time.DateTime),
			playlist,
			r.Summary.Added,
			r.Summary.AlreadyInPlaylist,
			r.Summary.NotFound,
			r.Summary.PrivateOrDeleted,
			r.Duration().Round(time.Second),
		))
	}
	return buf.Bytes()
}

// WriteReport renders results in format and writes them to path.
func WriteReport(results []models.Result, format, path string) error {
	data, err := Render(format, results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func matchSuffix(r models.Result) string {
	switch {
	case r.FoundTitle != "":
		return fmt.Sprintf(" -> %s - %s", r.FoundArtist, r.FoundTitle)
	case r.TrackID != "":
		return " -> " + r.TrackID
	default:
		return ""
	}
}

func byStatus(results []models.Result, s models.Status) []models.Result {
	var out []models.Result
	for _, r := range results {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}

func countOf(s models.Summary, status models.Status) int {
	switch status {
	case models.StatusAdded:
		return s.Added
	case models.StatusAlreadyInPlaylist:
		return s.AlreadyInPlaylist
	case models.StatusNotFound:
		return s.NotFound
	case models.StatusPrivateOrDeleted:
		return s.PrivateOrDeleted
	}
	return 0
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`")

func escapeMarkdown(s string) string {
	if s == "" {
		return "(untitled)"
	}
	return markdownEscaper.Replace(s)
}

// percent is the share of n in total, formatted with one decimal.
func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64) + "%"
}
