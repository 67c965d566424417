package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// Release metadata (resolution, codec, source, platform, audio, group) is
// appended to the title with the same separators the title uses between
// words, so no single pattern can split the two. CleanTitle runs an ordered
// cascade instead; reordering the steps changes results.

// ellipsisPlaceholder stands in for "..." while separators are rewritten.
// It has no separator characters, no digits and mixed case, so none of the
// cleanup patterns (release group, junk words, technical tokens) match it.
const ellipsisPlaceholder = "zEllipsisMarkz"

// boundarySignature marks where title text ends and release metadata
// begins. Each regexp is anchored at the start and captures the title
// portion in group 1.
type boundarySignature struct {
	name string
	re   *regexp.Regexp
}

var boundarySignatures = []boundarySignature{
	{"dotted resolution", regexp.MustCompile(`(?i)^(.+)\.(720p|1080p|2160p|4K|480p|576p)`)},
	{"parenthesized resolution", regexp.MustCompile(`(?i)^(.+)\s+\((720p|1080p|2160p|4K|480p|576p)`)},
	{"WEB with codec", regexp.MustCompile(`(?i)^(.+)\.WEB\.(x264|x265|HEVC|H\.?264|H\.?265)`)},
	{"dotted source or codec", regexp.MustCompile(`(?i)^(.+)\.(WEB-DL|BluRay|BDRip|HDTV|x264|x265|HEVC)`)},
	{"parenthesized source or codec", regexp.MustCompile(`(?i)^(.+)\s+\((WEB-DL|BluRay|BDRip|HDTV|x264|x265|HEVC)`)},
	{"dotted platform", regexp.MustCompile(`(?i)^(.+)\.(AMZN|NFLX|NF|HULU)`)},
}

// trailingMetadata strips a technical token and everything after it.
// Applied in order regardless of whether a boundary was found.
var trailingMetadata = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[.\s_-]+(720p|1080p|2160p|4K|480p|576p)([.\s_-].*)?$`),
	regexp.MustCompile(`(?i)[.\s_-]+(x264|x265|HEVC|H\.?264|H\.?265)([.\s_-].*)?$`),
	regexp.MustCompile(`(?i)[.\s_-]+(WEB-DL|WEBRip|BluRay|BDRip|DVDRip|HDTV|PDTV)([.\s_-].*)?$`),
	// bare WEB only when a codec or audio tag follows, "Charlottes.Web" survives
	regexp.MustCompile(`(?i)[.\s_-]+WEB[.\s_-]+(x264|x265|HEVC|AAC|AC3)([.\s_-].*)?$`),
	regexp.MustCompile(`(?i)[.\s_-]+(AMZN|NFLX|NF|HULU|DSNP|HBO|MAX|HMAX)([.\s_-].*)?$`),
	regexp.MustCompile(`(?i)[.\s_-]+(AAC|AC3|DTS|DDP\d?\.?\d?)([.\s_-].*)?$`),
}

var (
	dlTokenRegex      = regexp.MustCompile(`(?i)(^|[.\s_-])(DL|DDP?)([.\s_-]|$)`)
	metadataOnlyRegex = regexp.MustCompile(`(?i)^(720p|1080p|2160p|4K|WEB|BluRay|HDTV|x264|x265|HEVC)`)

	// Only ALLCAPS (3+) or digit-bearing groups, so "-Part" or "-Man" stay.
	releaseGroupRegex = regexp.MustCompile(`-([A-Z0-9]{3,}|[A-Za-z0-9]*\d[A-Za-z0-9]*)$`)

	commonTagsRegex = regexp.MustCompile(`(?i)\b(FIXED|REPACK|PROPER|INTERNAL|EXTENDED|UNCUT|DIRECTORS|CUT|DUBBED|SUBBED)\b`)
	bracketRegex    = regexp.MustCompile(`\[[^\]]*\]`)

	techParenRegex       = regexp.MustCompile(`(?i)\([^)]*(?:720p|1080p|2160p|4K|x264|x265|HEVC|BluRay|WEB|HDTV)[^)]*\)`)
	meaningfulParenRegex = regexp.MustCompile(`(?i)\((Part[\s._]+\d+|\d+|Extended[\s._]+Cut|Director'?s?[\s._]+Cut|Final[\s._]+Cut|Unrated|Theatrical)\)`)
	trailingParenRegex   = regexp.MustCompile(`\s*\([^)]*\)$`)
	unclosedParenRegex   = regexp.MustCompile(`\s*\([^)]*$`)

	videoExtRegex = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|m4v|mov|wmv|flv|webm|ts|m2ts)$`)

	leadingParenYearRegex  = regexp.MustCompile(`^\s*\(\d{4}\)\s*-?\s*`)
	leadingDoubleDashRegex = regexp.MustCompile(`^-\s*-\s*`)
)

// CleanTitle extracts a human readable episode title from a filename
// fragment that already has its extension and episode number removed.
// seriesName, when set, is stripped from the start. The result is "" when
// nothing but metadata remains.
func CleanTitle(title, seriesName string) string {
	if title == "" {
		return ""
	}

	title = protectEllipsis(title)

	if seriesName != "" {
		title = removeSeriesName(title, seriesName)
	}

	if boundary, ok := FindTitleBoundary(title); ok && boundary > 2 {
		title = title[:boundary]
	}

	title = stripTechnicalMetadata(title)
	title = releaseGroupRegex.ReplaceAllString(title, "")
	title = commonTagsRegex.ReplaceAllString(title, "")
	title = bracketRegex.ReplaceAllString(title, "")
	title = cleanParentheticals(title)
	title = videoExtRegex.ReplaceAllString(title, "")

	title = separatorRegex.ReplaceAllString(title, " ")
	title = spaceRegex.ReplaceAllString(title, " ")
	title = strings.TrimSpace(title)
	title = strings.TrimSpace(strings.Trim(title, "-"))

	return restoreEllipsis(title)
}

// FindTitleBoundary returns the byte offset where release metadata starts.
// Signatures are tried in priority order and the first one that matches
// wins, even if a later one would give a shorter title.
func FindTitleBoundary(text string) (int, bool) {
	text = protectEllipsis(text)
	for _, sig := range boundarySignatures {
		if loc := sig.re.FindStringSubmatchIndex(text); loc != nil {
			return loc[3] - loc[2], true
		}
	}
	return 0, false
}

func protectEllipsis(s string) string {
	return strings.ReplaceAll(s, "...", ellipsisPlaceholder)
}

func restoreEllipsis(s string) string {
	return strings.ReplaceAll(s, ellipsisPlaceholder, "...")
}

// removeSeriesName strips the show name (and an optional year right after
// it) from the start of the title. Filenames encode the spaces of the
// name as dots, dashes or underscores, so every variant is tried.
func removeSeriesName(title, seriesName string) string {
	noYear := StripYear(seriesName)
	variants := []string{
		noYear,
		strings.ReplaceAll(noYear, " ", "."),
		strings.ReplaceAll(noYear, " ", "-"),
		strings.ReplaceAll(noYear, " ", "_"),
	}

	for _, variant := range variants {
		escaped := regexp.QuoteMeta(variant)

		// "Pluribus (2025) - ..."
		withParenYear := regexp.MustCompile(`(?i)^` + escaped + `[.\s_-]*\(\d{4}\)[.\s_-]*`)
		title = withParenYear.ReplaceAllString(title, "")

		// "Doctor.Who.2005...." but not "The.Office.1080p"
		title = stripNameWithBareYear(title, escaped)

		bare := regexp.MustCompile(`(?i)^` + escaped + `[._-]*`)
		title = bare.ReplaceAllString(title, "")
	}

	title = leadingParenYearRegex.ReplaceAllString(title, "")
	title = leadingDoubleDashRegex.ReplaceAllString(title, "")
	return title
}

func stripNameWithBareYear(title, escapedName string) string {
	re := regexp.MustCompile(`(?i)^` + escapedName + `[.\s_-]*\d{4}`)
	loc := re.FindStringIndex(title)
	if loc == nil {
		return title
	}
	end := loc[1]
	// a resolution like 1080p is not a year
	if end < len(title) && (title[end] == 'p' || title[end] == 'P') {
		return title
	}
	return strings.TrimLeft(title[end:], "._-")
}

func stripTechnicalMetadata(title string) string {
	for _, re := range trailingMetadata {
		title = re.ReplaceAllString(title, "")
	}

	title = dlTokenRegex.ReplaceAllString(title, "${1}${3}")

	// nothing but metadata was left
	if metadataOnlyRegex.MatchString(title) {
		return ""
	}
	return title
}

// cleanParentheticals drops technical "(1080p WEB-DL)" style groups and any
// trailing parenthetical, but keeps "(Part 1)", "(2)", "(Final Cut)" etc.
func cleanParentheticals(title string) string {
	protected := make(map[string]string)
	counter := 0
	title = meaningfulParenRegex.ReplaceAllStringFunc(title, func(match string) string {
		placeholder := fmt.Sprintf("zParenMark%dz", counter)
		protected[placeholder] = match
		counter++
		return placeholder
	})

	title = techParenRegex.ReplaceAllString(title, "")
	title = trailingParenRegex.ReplaceAllString(title, "")
	title = unclosedParenRegex.ReplaceAllString(title, "")

	for placeholder, original := range protected {
		title = strings.ReplaceAll(title, placeholder, original)
	}
	return title
}
