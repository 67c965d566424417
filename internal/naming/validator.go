package naming

import (
	"fmt"
	"regexp"
	"strings"
)

var numericTitleRegex = regexp.MustCompile(`^(episode|ep)?0*\d+$`)

// SeenTitles tracks normalized titles already used in a run, keyed per
// season. A nil SeenTitles disables duplicate detection.
type SeenTitles map[string]struct{}

func seenKey(season int, normalized string) string {
	return fmt.Sprintf("%d_%s", season, normalized)
}

// Contains reports whether the normalized title was already recorded for
// the season.
func (s SeenTitles) Contains(season int, title string) bool {
	if s == nil {
		return false
	}
	_, ok := s[seenKey(season, NormalizeText(title))]
	return ok
}

// Add records a title for the season.
func (s SeenTitles) Add(season int, title string) {
	if s == nil {
		return
	}
	s[seenKey(season, NormalizeText(title))] = struct{}{}
}

// ValidateEpisodeTitle decides whether a cleaned title is worth putting in
// the filename. It returns "" when the title just repeats the series name,
// is only an episode number, or was already used for another episode of
// the same season. Accepted titles are recorded in seen.
//
// episode is accepted for symmetry with the callers but does not take part
// in the duplicate key: two episodes of one season sharing a title keep
// only the first.
func ValidateEpisodeTitle(title, seriesName string, season, episode int, seen SeenTitles) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	normTitle := NormalizeText(title)
	normSeries := NormalizeText(seriesName)
	normSeriesNoYear := NormalizeText(StripYear(seriesName))

	if normTitle == normSeries || normTitle == normSeriesNoYear {
		return ""
	}
	if normSeriesNoYear != "" && strings.Contains(normTitle, normSeriesNoYear) {
		return ""
	}
	if normTitle != "" && strings.Contains(normSeriesNoYear, normTitle) {
		return ""
	}

	if numericTitleRegex.MatchString(normTitle) {
		return ""
	}

	if seen != nil {
		key := seenKey(season, normTitle)
		if _, dup := seen[key]; dup {
			return ""
		}
		seen[key] = struct{}{}
	}

	return title
}
