// Package naming turns messy TV and anime filenames into media-server
// friendly names. Everything in here is a pure string transformation:
// episode detection, series name inference from folder paths, title
// cleaning, title validation and output filename rendering.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EpisodeInfo is a parsed season/episode pair.
type EpisodeInfo struct {
	Season  int
	Episode int
}

// FormatCode renders the episode as S01E01. Episodes of 100 and above get
// three digits (S01E100).
func (e EpisodeInfo) FormatCode() string {
	if e.Episode >= 100 {
		return fmt.Sprintf("S%02dE%03d", e.Season, e.Episode)
	}
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Episode)
}

func (e EpisodeInfo) String() string {
	return e.FormatCode()
}

// episodePattern is one entry of the ordered detection table.
type episodePattern struct {
	name    string
	re      *regexp.Regexp
	extract func(match []string) EpisodeInfo
}

func seasonAndEpisode(match []string) EpisodeInfo {
	season, _ := strconv.Atoi(match[1])
	episode, _ := strconv.Atoi(match[2])
	return EpisodeInfo{Season: season, Episode: episode}
}

func episodeOnly(match []string) EpisodeInfo {
	episode, _ := strconv.Atoi(match[1])
	return EpisodeInfo{Season: 1, Episode: episode}
}

var (
	// S01E01, S1E1, S01.E01, S01-E01, S01_E01
	patternSxxExx = episodePattern{
		name:    "SxxExx",
		re:      regexp.MustCompile(`(?i)[Ss](\d{1,2})[\s_.-]*[Ee](\d{1,3})`),
		extract: seasonAndEpisode,
	}

	// 1x01, 01x05, 10x100
	patternNxNN = episodePattern{
		name:    "NxNN",
		re:      regexp.MustCompile(`(?i)(\d{1,2})x(\d{2,3})`),
		extract: seasonAndEpisode,
	}

	// E01, E005 for single-season shows
	patternExx = episodePattern{
		name:    "Exx",
		re:      regexp.MustCompile(`(?i)[Ee](\d{1,3})`),
		extract: episodeOnly,
	}

	// Fansub style: "Show - 01 [1080p]", "Show - 05 (BD)", "Show - 12.mkv"
	patternAnime = episodePattern{
		name:    "anime",
		re:      regexp.MustCompile(`-\s+(\d{1,3})\s*[\[(.]`),
		extract: episodeOnly,
	}

	standardPatterns = []episodePattern{patternSxxExx, patternNxNN, patternExx}
)

// GetSeasonEpisode extracts season and episode numbers from a filename.
// The boolean result is false when no pattern matches, in which case the
// file must be left untouched.
//
// With animeMode the fansub pattern is tried first. Otherwise, and whenever
// the anime-first attempt fails, SxxExx, NxNN and Exx are tried in that
// order, and the fansub pattern is always tried last as a fallback.
func GetSeasonEpisode(filename string, animeMode bool) (EpisodeInfo, bool) {
	info, _, ok := matchEpisode(filename, animeMode)
	return info, ok
}

// DetectedPattern reports which pattern family matched the filename, or ""
// when none did. Used for verbose output.
func DetectedPattern(filename string, animeMode bool) string {
	_, name, _ := matchEpisode(filename, animeMode)
	return name
}

func matchEpisode(filename string, animeMode bool) (EpisodeInfo, string, bool) {
	order := make([]episodePattern, 0, len(standardPatterns)+2)
	if animeMode {
		order = append(order, patternAnime)
	}
	order = append(order, standardPatterns...)
	if !animeMode {
		order = append(order, patternAnime)
	}

	for _, p := range order {
		if match := p.re.FindStringSubmatch(filename); match != nil {
			return p.extract(match), p.name, true
		}
	}
	return EpisodeInfo{}, "", false
}

var (
	stripSxxExxRegex = regexp.MustCompile(`[Ss]\d{1,2}[\s_.-]*[Ee]\d{1,3}[\s_.-]*`)
	stripNxNNRegex   = regexp.MustCompile(`\d{1,2}x\d{2,3}[\s_.-]*`)
	stripExxRegex    = regexp.MustCompile(`[Ee]\d{1,3}[\s_.-]*`)
	// keeps the bracket/paren/dot that terminates the episode number
	stripAnimeRegex = regexp.MustCompile(`-\s*\d{1,3}\s*([\[(.])`)
)

// StripEpisodePattern removes every episode-number signature from a
// filename stem so the remainder can be handed to CleanTitle.
func StripEpisodePattern(stem string) string {
	stem = stripSxxExxRegex.ReplaceAllString(stem, "")
	stem = stripNxNNRegex.ReplaceAllString(stem, "")
	stem = stripExxRegex.ReplaceAllString(stem, "")
	stem = stripAnimeRegex.ReplaceAllString(stem, "$1")
	return stem
}

// IsSpecialsFolder reports whether a folder name marks season 0 content.
func IsSpecialsFolder(name string) bool {
	switch strings.ToLower(name) {
	case "specials", "special":
		return true
	}
	return false
}
