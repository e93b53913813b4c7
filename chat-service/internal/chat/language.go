package chat

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	languageCzech   = "cs"
	languageEnglish = "en"
)

// Markers are matched as whole words on diacritic-folded, lower-cased text so "plet" and
// "pleť" count the same.
var (
	czechMarkers = []string{
		"ahoj", "dekuji", "dik", "prosim", "jak", "mam", "mate", "nevim", "dnes", "vcera",
		"plet", "pokozka", "pupinky", "akne", "krem", "citim", "jsem", "je", "co", "proc",
		"pomoc", "muzu", "muzes", "poradit", "dobry", "den", "zase", "hodne",
	}
	englishMarkers = []string{
		"hello", "hi", "thanks", "please", "how", "what", "why", "my", "skin", "acne",
		"cream", "feel", "today", "help", "can", "should", "the", "is", "i",
	}
	czechLetters = "ěščřžůťďňĚŠČŘŽŮŤĎŇ"
)

func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// fold lower-cases text and strips combining marks.
func fold(text string) string {
	out, _, err := transform.String(newFolder(), strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}

// detectLanguage picks Czech or English for a reply. Letters that only occur in Czech decide
// immediately; otherwise marker words from the prompt and the last user messages are counted.
// Ties fall back to preferred, then Czech.
func detectLanguage(prompt string, history []Message, preferred string) string {
	if strings.ContainsAny(prompt, czechLetters) {
		return languageCzech
	}

	text := prompt
	for _, utt := range lastUserUtterances(history, 2) {
		text += " " + utt
	}
	words := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var cs, en int
	for _, w := range words {
		if containsWord(czechMarkers, w) {
			cs++
		}
		if containsWord(englishMarkers, w) {
			en++
		}
	}
	switch {
	case cs > en:
		return languageCzech
	case en > cs:
		return languageEnglish
	case preferred == languageEnglish:
		return languageEnglish
	default:
		return languageCzech
	}
}

func containsWord(list []string, w string) bool {
	for _, m := range list {
		if m == w {
			return true
		}
	}
	return false
}

func lastUserUtterances(history []Message, limit int) []string {
	if limit <= 0 {
		return nil
	}
	var phrases []string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Author == AuthorUser {
			phrases = append(phrases, history[i].Text)
			if len(phrases) == limit {
				break
			}
		}
	}
	return phrases
}
