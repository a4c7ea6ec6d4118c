package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for a persistent model.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	List(limit int) ([]T, error) // List retrieves the most recent models, newest first
}

// Status is the terminal classification of a source entry.
type Status string

const (
	StatusAdded             Status = "added"
	StatusAlreadyInPlaylist Status = "already_in_playlist"
	StatusNotFound          Status = "not_found"
	StatusPrivateOrDeleted  Status = "private_or_deleted"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{StatusAdded, StatusAlreadyInPlaylist, StatusNotFound, StatusPrivateOrDeleted}

func (s Status) String() string { return string(s) }

// SourceEntry is one title read from the source playlist.
type SourceEntry struct {
	Index    int    `json:"index"`
	RawTitle string `json:"title"`
}

// Hypothesis is the best guess at (artist, track) for a raw title.
//
// Artist is empty when the title had no artist/track separator.
type Hypothesis struct {
	Artist   string
	Track    string
	RawTitle string
}

// HasArtist reports whether a separator was found in the raw title.
func (h Hypothesis) HasArtist() bool { return h.Artist != "" }

// Empty reports whether nothing usable survived normalization.
func (h Hypothesis) Empty() bool { return h.Artist == "" && h.Track == "" }

// SearchQuery is one catalog lookup. An empty Query means "skip, result is none".
type SearchQuery struct {
	Artist   string
	Track    string
	Query    string
	RawTitle string
}

// Candidate is a single catalog search hit.
type Candidate struct {
	ID     string
	Artist string // primary artist name
	Title  string
}

// SearchResult pairs a query's hypothesis with the catalog id it resolved to.
//
// Match is only populated when the id came from the network rather than the cache.
type SearchResult struct {
	Artist  string
	Track   string
	TrackID string
	Match   *Candidate
}

// Found reports whether the query resolved to a catalog id.
func (r SearchResult) Found() bool { return r.TrackID != "" }

// Result is the classification of one source entry as persisted in the ledgers.
type Result struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Track   string `json:"track"`
	TrackID string `json:"catalog_track_id,omitempty"`
	Status  Status `json:"status"`

	FoundArtist string `json:"found_artist,omitempty"`
	FoundTitle  string `json:"found_title,omitempty"`
	Index       int    `json:"-"`
}

// DedupKey identifies a result for duplicate collapsing.
func (r Result) DedupKey() string {
	return r.Artist + "\x00" + r.Track + "\x00" + r.Title
}

// Summary counts results per status.
type Summary struct {
	Total             int `json:"total"`
	Added             int `json:"added"`
	AlreadyInPlaylist int `json:"already_in_playlist"`
	NotFound          int `json:"not_found"`
	PrivateOrDeleted  int `json:"private_or_deleted"`
	DroppedBatches    int `json:"dropped_batches"`
}

// Count tallies results into a Summary.
func Count(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusAdded:
			s.Added++
		case StatusAlreadyInPlaylist:
			s.AlreadyInPlaylist++
		case StatusNotFound:
			s.NotFound++
		case StatusPrivateOrDeleted:
			s.PrivateOrDeleted++
		}
	}
	return s
}

// Run is a persisted record of one reconciliation run.
type Run struct {
	RunID      string    `json:"id"`
	Source     string    `json:"source"`
	PlaylistID string    `json:"playlist_id"`
	DryRun     bool      `json:"dry_run"`
	Summary    Summary   `json:"summary"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *Run) ID() string           { return r.RunID }
func (r *Run) CreatedAt() time.Time { return r.StartedAt }

// Validate checks the fields required to persist a run.
func (r *Run) Validate() error {
	switch {
	case r.RunID == "":
		return fmt.Errorf("run id is required")
	case r.PlaylistID == "":
		return fmt.Errorf("playlist id is required")
	case r.FinishedAt.Before(r.StartedAt):
		return fmt.Errorf("run finished before it started")
	}
	return nil
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }
