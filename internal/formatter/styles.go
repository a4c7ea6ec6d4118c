package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytsync/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a small stylesheet of named [lipgloss.Style] fields used for terminal output.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: newBold(t).MarginBottom(1),
		ok:    newBold(s),
		err:   newBold(e),
		warn:  newStyle(w),
		help:  newEm(h),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func newEm(fg string) lipgloss.Style {
	return newStyle(fg).Italic(true)
}

// style picks the palette entry for a status.
func (p *Palette) style(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusAdded:
		return p.ok
	case models.StatusAlreadyInPlaylist:
		return p.help
	case models.StatusNotFound:
		return p.warn
	default:
		return p.err
	}
}

// RenderSummary draws the end-of-run summary for a terminal.
func RenderSummary(s models.Summary, dryRun bool) string {
	var b strings.Builder

	heading := "Sync complete"
	if dryRun {
		heading = "Dry run complete (no playlist changes)"
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	for _, status := range models.Statuses {
		n := countOf(s, status)
		label := fmt.Sprintf("%-20s", statusHeadings[status])
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			styles.style(status).Render(label),
			fmt.Sprintf("%4d", n),
			styles.help.Render(percent(n, s.Total)),
		))
	}
	b.WriteString(fmt.Sprintf("%-20s %4d\n", "Total", s.Total))

	if s.DroppedBatches > 0 {
		b.WriteString(styles.err.Render(fmt.Sprintf("%d batch(es) dropped after retries, rerun to add them", s.DroppedBatches)))
		b.WriteString("\n")
	}
	return b.String()
}
