package naming

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// newlineMarker stands in for a newline until edge trimming is done.
	newlineMarker = '\x00'

	comparisonCacheSize = 4096
)

var (
	// timestampPattern matches clock-like runs such as 3:45 or 1:02:03.
	//nolint:gochecknoglobals // Pre-compiled pattern used as a constant.
	timestampPattern = regexp.MustCompile(`[0-9]+(?::[0-9]+)+`)

	// fullWidthReplacements maps characters forbidden on common filesystems
	// to visually similar characters that are allowed everywhere.
	//nolint:gochecknoglobals // Immutable lookup table.
	fullWidthReplacements = map[rune]rune{
		'"':  '＂',
		'*':  '＊',
		':':  '：',
		'<':  '＜',
		'>':  '＞',
		'?':  '？',
		'|':  '｜',
		'/':  '⧸',
		'\\': '⧹',
	}

	//nolint:gochecknoglobals // Shared memo of comparison keys; safe for concurrent use.
	comparisonCache, _ = lru.New[string, string](comparisonCacheSize)
)

// SanitizeTitle turns a display title into a filename-safe base name the same way
// yt-dlp names its output files by default, so names built here match files it wrote.
// It is the only naming rule in the program: materialized files, playlist folders,
// m3u entries and archive title matching all go through it.
func SanitizeTitle(title string) string {
	if title == "" {
		return ""
	}

	// Clock-like runs keep their digits but lose the colons.
	title = timestampPattern.ReplaceAllStringFunc(title, func(m string) string {
		return strings.ReplaceAll(m, ":", "_")
	})

	var b strings.Builder

	b.Grow(len(title))

	for _, r := range title {
		switch {
		case r == '\n':
			b.WriteRune(newlineMarker)
			b.WriteByte(' ')
		case fullWidthReplacements[r] != 0:
			b.WriteRune(fullWidthReplacements[r])
		case r < 32 || r == 127:
			continue
		default:
			b.WriteRune(r)
		}
	}

	result := collapseNewlineMarkers(b.String())
	result = trimNewlineEdges(result)
	result = strings.ReplaceAll(result, string(newlineMarker), "")

	if result == "" {
		result = "_"
	}

	return result
}

// ComparisonKey is the case-folded, NFC-normalized sanitized title.
// Two titles match for archive lookup when their comparison keys are equal.
func ComparisonKey(title string) string {
	if key, ok := comparisonCache.Get(title); ok {
		return key
	}

	key := cases.Fold().String(norm.NFC.String(SanitizeTitle(title)))
	comparisonCache.Add(title, key)

	return key
}

// collapseNewlineMarkers turns runs of consecutive newline markers into one.
func collapseNewlineMarkers(s string) string {
	pair := string(newlineMarker) + " "
	for strings.Contains(s, pair+pair) {
		s = strings.ReplaceAll(s, pair+pair, pair)
	}

	return s
}

// trimNewlineEdges drops a newline marker at either end together with
// the spaces, underscores and dashes that surround it.
func trimNewlineEdges(s string) string {
	const edgeChars = "\x00 _-"

	if strings.HasPrefix(s, string(newlineMarker)) {
		s = strings.TrimLeft(s, edgeChars)
	}

	if strings.HasSuffix(s, string(newlineMarker)+" ") {
		s = strings.TrimRight(s, edgeChars)
	}

	return s
}
