// Spotify Web API implementation of [Catalog]
//
// Requests go through github.com/zmb3/spotify/v2 on top of an [oauth2] client.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// maxAddItems is the most tracks the playlist endpoint accepts per call.
	maxAddItems = 100
)

// SpotifyCatalog implements [OAuthService] for the Spotify Web API.
type SpotifyCatalog struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
	client     *spotify.Client
}

// SpotifyOption customizes a [SpotifyCatalog].
type SpotifyOption func(*SpotifyCatalog)

// WithSpotifyBaseURL points API calls at a different host. Used by tests.
func WithSpotifyBaseURL(u string) SpotifyOption {
	return func(s *SpotifyCatalog) { s.baseURL = u }
}

// WithSpotifyHTTPClient sets the client used for token exchange and as the transport under oauth2.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyCatalog) { s.httpClient = c }
}

// NewSpotifyCatalog creates a new Spotify catalog with the given OAuth2 credentials.
func NewSpotifyCatalog(credentials map[string]string, opts ...SpotifyOption) (*SpotifyCatalog, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyCatalog{
		config:     config,
		httpClient: newHTTPClient(30 * time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyCatalog) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the OAuth2 configuration for token exchange.
func (s *SpotifyCatalog) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for a token and authenticates the catalog with it.
func (s *SpotifyCatalog) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	if err := s.Authenticate(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Authenticate installs token. A token holding only a refresh token is refreshed on first use.
func (s *SpotifyCatalog) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}
	s.token = token
	s.use(s.config.Client(s.oauthContext(ctx), token))
	return nil
}

// AuthenticateRefreshToken authenticates from a stored refresh token.
func (s *SpotifyCatalog) AuthenticateRefreshToken(ctx context.Context, refreshToken string) error {
	return s.Authenticate(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

// Token returns the token installed by the last successful authentication.
func (s *SpotifyCatalog) Token() *oauth2.Token {
	return s.token
}

func (s *SpotifyCatalog) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyCatalog) use(httpClient *http.Client) {
	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, opts...)
}

func (s *SpotifyCatalog) ready() error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// Search runs a track search and maps each hit to its primary artist and title.
func (s *SpotifyCatalog) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, wrapSpotifyError(err)
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}

	candidates := make([]models.Candidate, 0, len(result.Tracks.Tracks))
	for _, track := range result.Tracks.Tracks {
		if track.ID == "" {
			continue
		}
		c := models.Candidate{ID: string(track.ID), Title: track.Name}
		if len(track.Artists) > 0 {
			c.Artist = track.Artists[0].Name
		}
		candidates = append(candidates, c)
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// PlaylistTrackIDs pages through the playlist and collects every track id.
// Removed (null) and local items have no id and are skipped.
func (s *SpotifyCatalog) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	page, err := s.client.GetPlaylistTracks(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return nil, wrapSpotifyError(err)
	}

	ids := make(map[string]struct{}, page.Total)
	for {
		for _, item := range page.Tracks {
			if item.Track.ID == "" || item.IsLocal {
				continue
			}
			ids[string(item.Track.ID)] = struct{}{}
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, wrapSpotifyError(err)
		}
	}
	return ids, nil
}

// AddItems appends tracks to the playlist, splitting requests at the endpoint limit.
func (s *SpotifyCatalog) AddItems(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := s.ready(); err != nil {
		return err
	}

	for start := 0; start < len(trackIDs); start += maxAddItems {
		end := min(start+maxAddItems, len(trackIDs))
		ids := make([]spotify.ID, 0, end-start)
		for _, id := range trackIDs[start:end] {
			ids = append(ids, spotify.ID(id))
		}
		if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
			return wrapSpotifyError(err)
		}
	}
	return nil
}

// wrapSpotifyError keeps rate limit errors intact and tags everything else as an API failure.
func wrapSpotifyError(err error) error {
	if _, ok := shared.AsRateLimit(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: spotify: %v", shared.ErrAPIRequest, err)
}

// ParsePlaylistID accepts a bare id, a spotify:playlist: URI or an open.spotify.com URL.
func ParsePlaylistID(locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}

	if id, ok := strings.CutPrefix(locator, "spotify:playlist:"); ok {
		return validPlaylistID(id)
	}

	if strings.Contains(locator, "://") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i < len(parts)-1; i++ {
			if parts[i] == "playlist" {
				return validPlaylistID(parts[i+1])
			}
		}
		return "", fmt.Errorf("%w: no playlist id in %q", shared.ErrInvalidArgument, locator)
	}

	return validPlaylistID(locator)
}

func validPlaylistID(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/:?&= ") {
		return "", fmt.Errorf("%w: malformed playlist id %q", shared.ErrInvalidArgument, id)
	}
	return id, nil
}
