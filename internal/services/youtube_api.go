package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
)

const (
	youtubeAPIBaseURL = "https://www.googleapis.com/youtube/v3"
	youtubePageSize   = 50
)

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeAPIProvider reads playlist titles from the YouTube Data API v3 using an API key.
type YouTubeAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeAPIProvider creates a provider. Empty baseURL means the public API and a nil client gets a default with a timeout.
func NewYouTubeAPIProvider(apiKey, baseURL string, httpClient *http.Client) *YouTubeAPIProvider {
	if baseURL == "" {
		baseURL = youtubeAPIBaseURL
	}
	if httpClient == nil {
		httpClient = newHTTPClient(30 * time.Second)
	}
	return &YouTubeAPIProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (y *YouTubeAPIProvider) Name() string {
	return "YouTube Data API"
}

// FetchTitles follows nextPageToken until the playlist is exhausted.
func (y *YouTubeAPIProvider) FetchTitles(ctx context.Context, locator string) ([]string, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("%w: YOUTUBE_API_KEY", shared.ErrMissingCredentials)
	}

	playlistID, _, err := ParseYouTubePlaylist(locator)
	if err != nil {
		return nil, err
	}

	var titles []string
	pageToken := ""
	for {
		page, err := y.playlistItems(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if title := item.Snippet.Title; title != "" {
				titles = append(titles, title)
			}
		}
		if page.NextPageToken == "" {
			return titles, nil
		}
		pageToken = page.NextPageToken
	}
}

func (y *YouTubeAPIProvider) playlistItems(ctx context.Context, playlistID, pageToken string) (*playlistItemsResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", fmt.Sprint(youtubePageSize))
	params.Set("playlistId", playlistID)
	params.Set("key", y.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	fullURL := y.baseURL + "/playlistItems?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		if rl, ok := shared.AsRateLimit(err); ok {
			return nil, fmt.Errorf("%w: %v", shared.ErrQuotaExceeded, rl)
		}
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, youtubeStatusError(resp.StatusCode, body)
	}

	var page playlistItemsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

func youtubeStatusError(status int, body []byte) error {
	var apiErr youtubeErrorResponse
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	switch status {
	case http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", shared.ErrQuotaExceeded, status, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: status %d: %s", shared.ErrPlaylistNotFound, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, status, msg)
	}
}

// ParseYouTubePlaylist accepts a playlist id or any URL with a list= parameter and returns the id together with a canonical playlist URL.
func ParseYouTubePlaylist(locator string) (id, playlistURL string, err error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", "", fmt.Errorf("%w: source", shared.ErrMissingArgument)
	}

	id = locator
	switch {
	case strings.Contains(locator, "://"):
		u, perr := url.Parse(locator)
		if perr != nil {
			return "", "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, perr)
		}
		id = u.Query().Get("list")
	case strings.Contains(locator, "list="):
		_, rest, _ := strings.Cut(locator, "list=")
		id, _, _ = strings.Cut(rest, "&")
	}

	if id == "" || strings.ContainsAny(id, "/?&= ") {
		return "", "", fmt.Errorf("%w: no playlist id in %q", shared.ErrInvalidArgument, locator)
	}
	return id, "https://www.youtube.com/playlist?list=" + url.QueryEscape(id), nil
}
