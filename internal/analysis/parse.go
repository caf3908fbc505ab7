package analysis

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/sells-group/assortment-cli/internal/model"
)

var (
	bracketedLetter  = regexp.MustCompile(`(?i)\[\s*([ACZ])\s*\]`)
	standaloneLetter = regexp.MustCompile(`(?i)\b([ACZ])\b`)
)

// wordMask turns every non-ASCII letter into '_' so that RE2's ASCII word
// boundaries treat accented letters as part of the word ("Zéro" is not a Z).
var wordMask = runes.Map(func(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsLetter(r) {
		return '_'
	}
	return r
})

// ParseRecommendation extracts the recommended category from a free-text
// reply. A bracketed letter ("[A]") wins; otherwise the first standalone A, C
// or Z token counts. Returns false when the reply carries no recommendation,
// which callers must not confuse with Z.
func ParseRecommendation(text string) (model.Category, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	masked, _, err := transform.String(wordMask, text)
	if err != nil {
		masked = text
	}

	if m := bracketedLetter.FindStringSubmatch(masked); m != nil {
		return model.Category(strings.ToUpper(m[1])), true
	}
	if m := standaloneLetter.FindStringSubmatch(masked); m != nil {
		return model.Category(strings.ToUpper(m[1])), true
	}
	return "", false
}
