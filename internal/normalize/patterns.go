package normalize

import "regexp"

// Dash-like characters: en/em dash, minus sign, bullet, middle dot, hyphenation point,
// the hyphen family U+2010..U+2015 and box-drawing horizontals.
const dashes = `\x{2013}\x{2014}\x{2212}\x{2022}\x{00b7}\x{2027}\x{2010}\x{2011}\x{2012}\x{2015}\x{2500}\x{2501}`

var (
	whitespace     = regexp.MustCompile(`\s+`)
	dashClass      = regexp.MustCompile(`[` + dashes + `]`)
	dashUnderscore = regexp.MustCompile(`[-_]`)
	bracketSpan    = regexp.MustCompile(`\[.*?\]`)
	parenSpan      = regexp.MustCompile(`\(.*?\)`)
	noiseWords     = regexp.MustCompile(`(?i)\b(prod\.|ft\.|feat\.|official|audio|video|unreleased|music|visualizer|by|with|remix|version|explicit|clean|lyrics|lyric|clip|hd|hq|\d{4})\b`)

	featBracket    = regexp.MustCompile(`(?i)\[(feat\.|ft\.|featuring)[^\]]*\]`)
	featParen      = regexp.MustCompile(`(?i)\((feat\.|ft\.|featuring)[^)]*\)`)
	separatorClass = regexp.MustCompile(`[` + dashes + `|/]+`)
	dashRun        = regexp.MustCompile(`\s*-+\s*`)
	trailingMeta   = regexp.MustCompile(`(?i)\b(live|remaster(ed)?( \d{2,4})?|lyrics?|audio|video|version|explicit|clean|visualizer|clip|hd|hq)\b.*$`)
	featToken      = regexp.MustCompile(`(?i)\b(feat\.|ft\.|featuring)\b`)
	trailingDash   = regexp.MustCompile(`[-\s]+$`)
	trailingFeat   = regexp.MustCompile(`(?i)(\s*(ft\.|feat\.|featuring)\s*.*)$`)
	trailingGroups = regexp.MustCompile(`(\s*[\[(][^\])]*[\])]\s*)+$`)
	danglingOpen   = regexp.MustCompile(`[\[(]+$`)
)
