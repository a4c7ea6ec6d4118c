// package normalize turns noisy video titles into searchable (artist, track) hypotheses
package normalize

import (
	"regexp"
	"strings"

	"github.com/desertthunder/ytsync/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold applies NFKC compatibility normalization followed by Unicode case folding.
func Fold(s string) string {
	return folder.String(norm.NFKC.String(s))
}

// CleanTitle strips decoration from a title: bracketed and parenthesized spans, platform and
// edition noise words, years and dash characters. The result is folded, single-spaced and may be empty.
func CleanTitle(raw string) string {
	title := Fold(raw)
	title = dashClass.ReplaceAllString(title, " ")
	title = bracketSpan.ReplaceAllString(title, "")
	title = parenSpan.ReplaceAllString(title, "")
	title = noiseWords.ReplaceAllString(title, "")
	title = dashUnderscore.ReplaceAllString(title, " ")
	return collapse(title)
}

// ParseHypothesis splits a title on its first artist/track separator.
//
// Without a separator the artist is empty and the track is the cleaned title.
func ParseHypothesis(raw string) models.Hypothesis {
	h := models.Hypothesis{RawTitle: raw}

	title := Fold(raw)
	title = featBracket.ReplaceAllString(title, "")
	title = featParen.ReplaceAllString(title, "")
	title = separatorClass.ReplaceAllString(title, " - ")
	title = dashRun.ReplaceAllString(title, " - ")
	title = whitespace.ReplaceAllString(title, " ")
	title = cutMeta(title)

	artist, track, ok := strings.Cut(title, " - ")
	if !ok {
		h.Track = strings.TrimSpace(danglingOpen.ReplaceAllString(CleanTitle(title), ""))
		return h
	}

	h.Artist = strings.TrimSpace(truncateAt(featToken, artist))

	track = strings.TrimSpace(truncateAt(featToken, track))
	track = strings.TrimSpace(trailingDash.ReplaceAllString(track, ""))
	track = strings.TrimSpace(trailingFeat.ReplaceAllString(track, ""))
	track = strings.TrimSpace(trailingGroups.ReplaceAllString(track, ""))
	track = strings.TrimSpace(danglingOpen.ReplaceAllString(track, ""))
	h.Track = track

	return h
}

// QueryFor builds the primary catalog query for a hypothesis.
func QueryFor(h models.Hypothesis) models.SearchQuery {
	q := models.SearchQuery{Artist: h.Artist, Track: h.Track, RawTitle: h.RawTitle}
	if h.HasArtist() {
		q.Query = strings.TrimSpace("artist:" + h.Artist + " track:" + h.Track)
	} else {
		q.Query = CleanTitle(h.RawTitle)
	}
	return q
}

// IsUnavailable reports whether a title marks a private or deleted video, or carries no text at all.
func IsUnavailable(raw string) bool {
	t := strings.ToLower(strings.TrimSpace(raw))
	return t == "" || strings.HasPrefix(t, "[private") || strings.HasPrefix(t, "[deleted")
}

// cutMeta drops the trailing metadata suffix. A bracket left open by the cut, as in
// "(official video)", goes with it.
func cutMeta(title string) string {
	loc := trailingMeta.FindStringIndex(title)
	if loc == nil {
		return strings.TrimSpace(title)
	}
	head := title[:loc[0]]
	if i := strings.LastIndexAny(head, "(["); i >= 0 && !strings.ContainsAny(head[i:], ")]") {
		head = head[:i]
	}
	return strings.TrimSpace(head)
}

func truncateAt(re *regexp.Regexp, s string) string {
	if loc := re.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
