package naming

import (
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		// Quality boundary
		{"Pilot.720p.WEB-DL.x264-GROUP", "Pilot"},
		{"Title.Here.1080p.BluRay", "Title Here"},
		{"Multi.Word.Title.2160p.HEVC", "Multi Word Title"},

		// Technical metadata
		{"Title.WEB-DL.x264-KILLERS", "Title"},
		{"Title.HDTV.XviD-LOL", "Title"},
		{"Title.AMZN.WEB-DL.DDP5.1", "Title"},
		{"Title.DDP5.1", "Title"},

		// Release groups
		{"Title-DIMENSION", "Title"},
		{"Title-LOL", "Title"},
		{"Title-YTS", "Title"},
		{"Title-x264grp2", "Title"},

		// Meaningful content
		{"What...", "What..."},
		{"Title.(Part.1).720p", "Title (Part 1)"},
		{"Sin... (1)", "Sin... (1)"},

		// Junk words and brackets
		{"Title.REPACK", "Title"},
		{"Title [Subbed]", "Title"},

		// Parentheticals
		{"Title (1080p WEB-DL)", "Title"},
		{"Title (Some Note)", "Title"},
		{"Title (Unclosed", "Title"},

		// Nothing but metadata
		{"1080p.BluRay", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := CleanTitle(tc.input, "")
			if result != tc.expected {
				t.Errorf("\nInput:    %s\nExpected: %s\nGot:      %s", tc.input, tc.expected, result)
			}
		})
	}
}

func TestCleanTitle_SeriesNameRemoval(t *testing.T) {
	testCases := []struct {
		input    string
		series   string
		expected string
	}{
		{"Breaking.Bad.Pilot.720p.WEB-DL.x264-GROUP", "Breaking Bad (2008)", "Pilot"},
		{"Doctor.Who.2005.Time.Of.The.Angels.HDTV.XviD-FoV", "Doctor Who (2005)", "Time Of The Angels"},
		{"The.Office.1080p.BluRay", "The Office (2005)", ""},
		{"Pluribus (2025) - We Is Us (1080p ATVP WEB-DL x265 Ghost)", "Pluribus (2025)", "We Is Us"},
		{"Show_Name_The_Title", "Show Name", "The Title"},
		{"show-name-The.Title", "Show Name", "The Title"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := CleanTitle(tc.input, tc.series)
			if result != tc.expected {
				t.Errorf("CleanTitle(%q, %q) = %q, expected %q", tc.input, tc.series, result, tc.expected)
			}
		})
	}
}

func TestCleanTitle_WebWordPreserved(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Charlottes.Web.720p", "Charlottes Web"},
		{"Web.Of.Deceit.WEB.x264", "Web Of Deceit"},
		{"The.Web.WEB-DL.1080p", "The Web"},
		{"Tangled Web We Weaved", "Tangled Web We Weaved"},
		{"Webmaster", "Webmaster"},
		{"Normal Episode.WEB.x264-GROUP", "Normal Episode"},
		{"Normal Episode.WEBRip", "Normal Episode"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := CleanTitle(tc.input, ""); got != tc.expected {
				t.Errorf("CleanTitle(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCleanTitle_Ellipsis(t *testing.T) {
	result := CleanTitle("What....720p", "")
	if !strings.Contains(result, "...") {
		t.Errorf("CleanTitle(%q) = %q, expected an ellipsis", "What....720p", result)
	}
}

func TestCleanTitle_LowercaseHyphenWordKept(t *testing.T) {
	result := CleanTitle("Spider-Man", "")
	if result != "Spider-Man" {
		t.Errorf("CleanTitle(%q) = %q, a hyphenated word must not be taken for a release group", "Spider-Man", result)
	}
}

func TestCleanTitle_Idempotent(t *testing.T) {
	for _, title := range []string{"Pilot", "Time Of The Angels", "We Is Us", "Title (Part 1)", "What..."} {
		if got := CleanTitle(title, ""); got != title {
			t.Errorf("CleanTitle(%q) = %q, clean titles should pass through", title, got)
		}
		if again := CleanTitle(CleanTitle(title, ""), ""); again != title {
			t.Errorf("second CleanTitle pass changed %q to %q", title, again)
		}
	}
}

func TestFindTitleBoundary(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		found    bool
	}{
		{"Pilot.720p.WEB-DL", 5, true},
		{"We Is Us (1080p WEB-DL)", 8, true},
		{"Title.WEB.x264", 5, true},
		{"Title.Here.BluRay", 10, true},
		{"Title.AMZN.stuff", 5, true},
		{"Just A Title", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := FindTitleBoundary(tc.input)
			if ok != tc.found || got != tc.expected {
				t.Errorf("FindTitleBoundary(%q) = %d, %v, expected %d, %v", tc.input, got, ok, tc.expected, tc.found)
			}
		})
	}
}

func TestFindTitleBoundary_PriorityOrder(t *testing.T) {
	// resolution wins over the earlier source token because it is checked first
	got, ok := FindTitleBoundary("Title.HDTV.Extra.720p")
	if !ok || got != len("Title.HDTV.Extra") {
		t.Errorf("FindTitleBoundary = %d, %v, expected %d", got, ok, len("Title.HDTV.Extra"))
	}
}
