// package services defines the interfaces for the catalog and title sources a sync talks to
//
// Spotify (catalog), YouTube Data API, yt-dlp, native extractor and local files (sources)
package services

import (
	"context"

	"github.com/desertthunder/ytsync/internal/models"
	"golang.org/x/oauth2"
)

// Catalog is the destination music service: it resolves queries to tracks and owns the target playlist.
type Catalog interface {
	// Search runs a free-text catalog query and returns at most limit candidates in catalog order.
	Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// PlaylistTrackIDs returns the ids of every track currently in the playlist, across all pages.
	PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error)

	// AddItems appends the tracks to the playlist in the order given.
	AddItems(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TitleProvider produces the ordered video titles of a source playlist.
type TitleProvider interface {
	// FetchTitles returns titles in playlist order with empty titles removed.
	FetchTitles(ctx context.Context, locator string) ([]string, error)

	Name() string
}

// OAuthService is implemented by catalogs that authorize through a browser redirect.
type OAuthService interface {
	Catalog

	// GetAuthURL returns the URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the oauth2 configuration for the callback exchange.
	GetOAuthConfig() *oauth2.Config

	// Exchange trades the callback code for a token and authenticates the catalog with it.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}
