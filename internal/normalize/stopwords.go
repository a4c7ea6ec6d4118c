package normalize

import "strings"

// defaultStopWords are scrubbed from the track side of second-pass queries.
var defaultStopWords = []string{
	"the", "a", "an", "and", "or", "of", "in", "on", "to", "for", "with", "by", "at", "from",
	"feat", "ft", "featuring", "remix", "version", "edit", "mix", "live", "remaster", "remastered",
	"explicit", "clean", "lyrics", "lyric", "audio", "video", "clip", "visualizer", "hd", "hq",
}

// StopWords is a case-insensitive word set.
type StopWords map[string]struct{}

// NewStopWords returns the default set extended with extra words.
func NewStopWords(extra ...string) StopWords {
	sw := make(StopWords, len(defaultStopWords)+len(extra))
	for _, w := range defaultStopWords {
		sw[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			sw[w] = struct{}{}
		}
	}
	return sw
}

// Strip drops every whitespace-delimited word of s that is in the set.
func (sw StopWords) Strip(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, ok := sw[strings.ToLower(w)]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
