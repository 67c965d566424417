package naming

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	seasonFolderRegex   = regexp.MustCompile(`^[Ss]eason\s*\d+$`)
	shortSeasonRegex    = regexp.MustCompile(`^[Ss]\d+$`)
	specialsFolderRegex = regexp.MustCompile(`^[Ss]pecials?$`)

	seasonSuffixRegex      = regexp.MustCompile(`\s*-\s*[Ss]eason.*$`)
	shortSeasonSuffixRegex = regexp.MustCompile(`\s*[Ss]\d+.*$`)
	separatorRegex         = regexp.MustCompile(`[._]`)
	spaceRegex             = regexp.MustCompile(`\s+`)

	trailingYear2xxxRegex    = regexp.MustCompile(`\s*\(2\d{3}\).*$`)
	trailingYear19xxRegex    = regexp.MustCompile(`\s*\(19\d{2}\).*$`)
	trailingBracketYearRegex = regexp.MustCompile(`\s*\[\d{4}\].*$`)

	parenYearRegex = regexp.MustCompile(`\s*\(\d{4}\)`)
	nonAlnumRegex  = regexp.MustCompile(`[^a-z0-9]`)
)

// DetectSeriesName infers the show name from the directory being processed.
//
//	/tv/Breaking Bad (2008)           -> "Breaking Bad (2008)"
//	/tv/Breaking Bad (2008)/Season 1  -> "Breaking Bad (2008)"
//	/tv/Breaking Bad (2008)/Specials  -> "Breaking Bad (2008)"
//
// The year is kept when present.
func DetectSeriesName(dir string) string {
	name := segmentName(dir)

	if seasonFolderRegex.MatchString(name) || shortSeasonRegex.MatchString(name) {
		dir = parentDir(dir)
		name = segmentName(dir)
	}

	if specialsFolderRegex.MatchString(name) {
		dir = parentDir(dir)
		name = segmentName(dir)
	}

	name = seasonSuffixRegex.ReplaceAllString(name, "")
	name = shortSeasonSuffixRegex.ReplaceAllString(name, "")

	name = separatorRegex.ReplaceAllString(name, " ")
	name = spaceRegex.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// DetectSeriesNameNoYear is DetectSeriesName with a trailing "(2008)" or
// "[2008]" year removed.
func DetectSeriesNameNoYear(dir string) string {
	name := DetectSeriesName(dir)
	name = trailingYear2xxxRegex.ReplaceAllString(name, "")
	name = trailingYear19xxRegex.ReplaceAllString(name, "")
	name = trailingBracketYearRegex.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// StripYear removes every parenthesized four digit year from a series name.
func StripYear(seriesName string) string {
	return parenYearRegex.ReplaceAllString(seriesName, "")
}

// NormalizeText lowercases and drops everything but ASCII letters and
// digits. "Doctor Who (2005)" -> "doctorwho2005"
func NormalizeText(s string) string {
	return nonAlnumRegex.ReplaceAllString(strings.ToLower(s), "")
}

// segmentName returns the last path segment, or "" for empty and root paths.
func segmentName(dir string) string {
	if dir == "" {
		return ""
	}
	base := filepath.Base(dir)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

func parentDir(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Dir(filepath.Clean(dir))
}
