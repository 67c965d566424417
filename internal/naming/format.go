package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// OutputFormat selects the filename template.
type OutputFormat string

const (
	FormatShowYearEpisodeTitle OutputFormat = "Show (Year) - SxxExx - Title"
	FormatShowYearEpisode      OutputFormat = "Show (Year) - SxxExx"
	FormatShowEpisodeTitle     OutputFormat = "Show - SxxExx - Title"
	FormatShowEpisode          OutputFormat = "Show - SxxExx"
	FormatEpisodeTitle         OutputFormat = "SxxExx - Title"
	FormatEpisode              OutputFormat = "SxxExx"

	DefaultFormat = FormatShowEpisodeTitle
)

// ErrUnknownFormat is returned by ParseOutputFormat for unrecognized input.
var ErrUnknownFormat = errors.New("unknown output format")

// AllFormats lists the supported formats in display order.
func AllFormats() []OutputFormat {
	return []OutputFormat{
		FormatShowYearEpisodeTitle,
		FormatShowYearEpisode,
		FormatShowEpisodeTitle,
		FormatShowEpisode,
		FormatEpisodeTitle,
		FormatEpisode,
	}
}

// ParseOutputFormat matches s against the known formats, ignoring case and
// surrounding whitespace.
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.TrimSpace(s)
	for _, f := range AllFormats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// HasTitle reports whether the format includes the episode title.
func (f OutputFormat) HasTitle() bool {
	switch f {
	case FormatShowYearEpisode, FormatShowEpisode, FormatEpisode:
		return false
	}
	return true
}

func (f OutputFormat) String() string {
	return string(f)
}

// BuildFilename renders the new filename for an episode. ext has no
// leading dot. seriesName may carry a year; the year-free formats derive
// their series name from baseDir instead.
func BuildFilename(info EpisodeInfo, title, ext, seriesName string, format OutputFormat, baseDir string) string {
	code := info.FormatCode()

	seriesNoYear := ""
	if seriesName != "" {
		seriesNoYear = DetectSeriesNameNoYear(baseDir)
	}

	switch format {
	case FormatShowYearEpisodeTitle:
		return renderFull(seriesName, code, title, ext)
	case FormatShowYearEpisode:
		return renderFull(seriesName, code, "", ext)
	case FormatShowEpisodeTitle:
		return renderFull(seriesNoYear, code, title, ext)
	case FormatShowEpisode:
		return renderFull(seriesNoYear, code, "", ext)
	case FormatEpisodeTitle:
		return renderFull("", code, title, ext)
	case FormatEpisode:
		return code + "." + ext
	}

	// unknown formats never produce a title-only name
	if seriesName == "" {
		return code + "." + ext
	}
	return renderFull(seriesName, code, title, ext)
}

func renderFull(series, code, title, ext string) string {
	switch {
	case title != "" && series != "":
		return fmt.Sprintf("%s - %s - %s.%s", series, code, title, ext)
	case series != "":
		return fmt.Sprintf("%s - %s.%s", series, code, ext)
	case title != "":
		return fmt.Sprintf("%s - %s.%s", code, title, ext)
	default:
		return code + "." + ext
	}
}

// EpisodeTitle pulls the episode title out of a filename: the extension
// and episode code are removed, the rest is cleaned and validated.
// Returns "" when no usable title remains.
func EpisodeTitle(filename string, info EpisodeInfo, seriesName string, seen SeenTitles) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if stem == "" {
		stem = filename
	}

	// "S01E02 - ... And Girlfriends" must not lose its ellipsis to the
	// separator run after the episode code
	title := StripEpisodePattern(protectEllipsis(stem))
	title = CleanTitle(title, seriesName)
	return ValidateEpisodeTitle(title, seriesName, info.Season, info.Episode, seen)
}
