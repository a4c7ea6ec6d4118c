package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// FallbackProvider asks each provider in turn and returns the first success.
// A missing key, exhausted quota or any other failure moves on to the next provider.
type FallbackProvider struct {
	providers []TitleProvider
	logger    *log.Logger
}

func NewFallbackProvider(logger *log.Logger, providers ...TitleProvider) *FallbackProvider {
	return &FallbackProvider{providers: providers, logger: logger}
}

func (f *FallbackProvider) Name() string {
	return "fallback"
}

func (f *FallbackProvider) FetchTitles(ctx context.Context, locator string) ([]string, error) {
	var errs []error
	for _, p := range f.providers {
		titles, err := p.FetchTitles(ctx, locator)
		if err == nil {
			if f.logger != nil {
				f.logger.Debug("fetched source titles", "provider", p.Name(), "count", len(titles))
			}
			return titles, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if f.logger != nil {
			f.logger.Warn("title provider failed, trying next", "provider", p.Name(), "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return nil, errors.New("no title providers configured")
	}
	return nil, errors.Join(errs...)
}

// SourceConfig selects the providers [NewSourceProvider] chains together.
type SourceConfig struct {
	APIKey    string
	Extractor string // "ytdlp" or "native"
}

// NewSourceProvider builds the title provider for locator: local files are read directly,
// playlists go to the Data API (when a key is set) with the configured extractor behind it.
func NewSourceProvider(locator string, cfg SourceConfig, logger *log.Logger) TitleProvider {
	if IsLocalFile(locator) {
		return NewFileProvider()
	}

	var providers []TitleProvider
	if cfg.APIKey != "" {
		providers = append(providers, NewYouTubeAPIProvider(cfg.APIKey, "", nil))
	}
	switch cfg.Extractor {
	case "native":
		providers = append(providers, NewNativeProvider(), NewYTDLPProvider())
	default:
		providers = append(providers, NewYTDLPProvider(), NewNativeProvider())
	}
	return NewFallbackProvider(logger, providers...)
}
