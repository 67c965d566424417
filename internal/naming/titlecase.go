package naming

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ordinalRegex  = regexp.MustCompile(`(?i)\b(\d+)(st|nd|rd|th)\b`)
	acronymRegex  = regexp.MustCompile(`\b[A-Z][A-Z0-9]+\b`)
	smallWordList = map[string]bool{
		"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
		"by": true, "for": true, "in": true, "of": true, "on": true, "or": true,
		"the": true, "to": true, "vs": true,
	}
)

// TitleCase capitalizes an episode title for display. Acronyms (FBI, DNA,
// 8MM) keep their case, ordinals keep a lowercase suffix (2nd), and short
// joining words stay lowercase unless they open the title.
func TitleCase(title string) string {
	if strings.TrimSpace(title) == "" {
		return title
	}

	// § never appears in cleaned titles and the caser leaves it alone
	protected := make(map[string]string)
	protect := func(match string) string {
		placeholder := fmt.Sprintf("§§§%d§§§", len(protected))
		protected[placeholder] = match
		return placeholder
	}

	s := ordinalRegex.ReplaceAllStringFunc(title, func(match string) string {
		return protect(strings.ToLower(match))
	})
	s = acronymRegex.ReplaceAllStringFunc(s, protect)

	s = cases.Title(language.English).String(s)

	words := strings.Split(s, " ")
	for i, w := range words {
		if i > 0 && smallWordList[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
		}
	}
	s = strings.Join(words, " ")

	for placeholder, original := range protected {
		s = strings.ReplaceAll(s, placeholder, original)
	}
	return s
}
