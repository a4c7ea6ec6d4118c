package tasks

import (
	"fmt"

	"github.com/desertthunder/ytsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Classify
	SearchTracks
	CommitBatch
	WriteLedgers
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case Classify:
		return "classify"
	case SearchTracks:
		return "search_tracks"
	case CommitBatch:
		return "commit_batch"
	case WriteLedgers:
		return "write_ledgers"
	default:
		return ""
	}
}

func fetchSourceUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d source titles", total),
	}
}

func fetchDestUpdate(id string, existing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Destination playlist %s holds %d tracks", id, existing),
	}
}

func classifyUpdate(skipped, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classify,
		Step:    total - skipped,
		Total:   total,
		Message: fmt.Sprintf("Skipping %d private or deleted entries", skipped),
	}
}

func searchTracksUpdate(step, total int, r *models.Result) ProgressUpdate {
	if r == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("Searching catalog for %d entries...", total),
		}
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s: %s", step, total, r.Artist, r.Track, r.Status),
		Data:    r,
	}
}

func commitBatchUpdate(step, size int, ok bool) ProgressUpdate {
	mark := "✓"
	if !ok {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   CommitBatch,
		Step:    step,
		Total:   step,
		Message: fmt.Sprintf("[batch %d] %s %d tracks", step, mark, size),
	}
}

func writeLedgersUpdate(dir string, s models.Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteLedgers,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote ledgers to %s", dir),
		Data:    s,
	}
}
