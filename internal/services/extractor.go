package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/kkdai/youtube/v2"
)

const defaultExtractTimeout = 3 * time.Minute

// commandRunner executes name with args and returns its standard output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %v\nstderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type flatPlaylist struct {
	Entries []struct {
		Title string `json:"title"`
	} `json:"entries"`
}

// YTDLPProvider lists playlist titles by running yt-dlp in flat-playlist mode. No API key is needed.
type YTDLPProvider struct {
	binary  string
	timeout time.Duration
	run     commandRunner
}

// NewYTDLPProvider returns a provider that runs the yt-dlp binary found on PATH.
func NewYTDLPProvider() *YTDLPProvider {
	return &YTDLPProvider{binary: "yt-dlp", timeout: defaultExtractTimeout, run: runCommand}
}

func (p *YTDLPProvider) Name() string {
	return "yt-dlp"
}

func (p *YTDLPProvider) FetchTitles(ctx context.Context, locator string) ([]string, error) {
	_, playlistURL, err := ParseYouTubePlaylist(locator)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.run(ctx, p.binary, "--flat-playlist", "-J", "--no-warnings", playlistURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	var playlist flatPlaylist
	if err := json.Unmarshal(out, &playlist); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp JSON: %w", err)
	}

	titles := make([]string, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		if e.Title != "" {
			titles = append(titles, e.Title)
		}
	}
	return titles, nil
}

// playlistFetcher is the part of [youtube.Client] the native provider uses.
type playlistFetcher interface {
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
}

// NativeProvider reads playlist titles in-process with github.com/kkdai/youtube.
type NativeProvider struct {
	client playlistFetcher
}

func NewNativeProvider() *NativeProvider {
	return &NativeProvider{client: &youtube.Client{}}
}

func (p *NativeProvider) Name() string {
	return "native extractor"
}

func (p *NativeProvider) FetchTitles(ctx context.Context, locator string) ([]string, error) {
	_, playlistURL, err := ParseYouTubePlaylist(locator)
	if err != nil {
		return nil, err
	}

	playlist, err := p.client.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlist: %v", shared.ErrServiceUnavailable, err)
	}

	titles := make([]string, 0, len(playlist.Videos))
	for _, v := range playlist.Videos {
		if v != nil && v.Title != "" {
			titles = append(titles, v.Title)
		}
	}
	return titles, nil
}
