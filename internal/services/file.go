package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ytsync/internal/shared"
	"gopkg.in/yaml.v3"
)

// FileProvider reads titles from a local file: a JSON or YAML list, or plain text with one title per line.
//
// JSON and YAML lists may hold strings or objects with a "title" key, which covers a saved all_youtube_entries.json.
type FileProvider struct{}

func NewFileProvider() *FileProvider { return &FileProvider{} }

func (p *FileProvider) Name() string {
	return "file"
}

type titledEntry struct {
	Title string `json:"title" yaml:"title"`
}

func (p *FileProvider) FetchTitles(ctx context.Context, locator string) ([]string, error) {
	path := strings.TrimPrefix(locator, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read titles file: %w", err)
	}

	var titles []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		titles, err = decodeTitles(data, json.Unmarshal)
	case ".yaml", ".yml":
		titles, err = decodeTitles(data, yaml.Unmarshal)
	default:
		titles, err = scanLines(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidInput, path, err)
	}
	return titles, nil
}

// decodeTitles tries a list of strings first and falls back to a list of objects.
func decodeTitles(data []byte, unmarshal func([]byte, any) error) ([]string, error) {
	var plain []string
	if err := unmarshal(data, &plain); err == nil {
		return nonEmpty(plain), nil
	}

	var entries []titledEntry
	if err := unmarshal(data, &entries); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	return nonEmpty(titles), nil
}

func scanLines(data []byte) ([]string, error) {
	var titles []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		titles = append(titles, line)
	}
	return titles, scanner.Err()
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsLocalFile reports whether locator names an existing file rather than a playlist.
func IsLocalFile(locator string) bool {
	if strings.HasPrefix(locator, "file://") {
		return true
	}
	info, err := os.Stat(locator)
	return err == nil && !info.IsDir()
}
