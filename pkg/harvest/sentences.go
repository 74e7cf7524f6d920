package harvest

import (
	"regexp"
	"strings"
)

// minSentenceWords filters out headings and list fragments that
// readability extraction tends to leave in the text.
const minSentenceWords = 3

var sentenceEnd = regexp.MustCompile(`([.!?]["')\]]?)(\s+|$)`)

// SplitSentences breaks extracted article text into candidate example
// sentences. Whitespace runs are collapsed and fragments shorter than
// three words are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	for _, block := range strings.Split(text, "\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		rest := block
		for rest != "" {
			loc := sentenceEnd.FindStringIndex(rest)
			var raw string
			if loc == nil {
				raw, rest = rest, ""
			} else {
				raw, rest = rest[:loc[1]], rest[loc[1]:]
			}
			s := strings.Join(strings.Fields(raw), " ")
			if len(strings.Fields(s)) < minSentenceWords {
				continue
			}
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// wordPattern matches word as a whole word, case-insensitively.
func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}
