package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Built-in keywords, merged with the active wordlist on every snapshot.
var baseKeywords = map[string][]string{
	CategorySpam: {
		"spam", "buy now", "click here", "click", "limited time", "deal", "offer", "this offer",
		"amazing deal", "act now", "urgent", "free money", "limited offer", "special offer",
		"exclusive deal", "one time", "don't miss", "hurry", "today only",
	},
	CategoryToxic: {
		"fuck", "fucking", "bitch", "idiot", "stupid", "moron", "dumb", "retard", "asshole", "bastard", "crap",
	},
	CategoryHate: {
		"hate", "kill", "die", "you are an idiot", "i hate", "i fucking hate", "deserve to die", "should die",
		"wish you were dead",
	},
	CategoryOffensive: {
		"fuck", "fucking", "bitch", "damn", "shit", "asshole", "crap", "hell", "bastard",
	},
}

// slur words count for all three abuse categories
var slurTargets = []string{CategoryToxic, CategoryHate, CategoryOffensive}

// Category base scores applied when at least one keyword matched.
var categoryBase = map[string]float64{
	CategorySpam:      0.4,
	CategoryToxic:     0.5,
	CategoryHate:      0.6,
	CategoryOffensive: 0.5,
}

const (
	matchWeight    = 0.2
	compoundFactor = 1.2
	shortTextLen   = 100
)

// BaseKeywords returns a copy of the built-in keyword list of a category.
func BaseKeywords(category string) []string {
	return append([]string(nil), baseKeywords[category]...)
}

type keyword struct {
	text string
	re   *regexp.Regexp // nil for phrases
}

func (k keyword) matches(lower string) bool {
	if k.re == nil {
		return strings.Contains(lower, k.text)
	}
	return k.re.MatchString(lower)
}

// Lexicon is an immutable keyword snapshot. It is safe for concurrent use.
type Lexicon struct {
	keywords map[string][]keyword
}

// NewLexicon merges the built-in keyword lists with the given active words per category.
// Words under CategorySlur are added to toxic, hate and offensive. Unknown categories are kept
// but do not contribute to any score.
func NewLexicon(active map[string][]string) *Lexicon {
	merged := make(map[string][]string, len(baseKeywords))
	for cat, words := range baseKeywords {
		merged[cat] = append([]string(nil), words...)
	}
	for cat, words := range active {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat == CategorySlur {
			for _, target := range slurTargets {
				merged[target] = append(merged[target], words...)
			}
			continue
		}
		merged[cat] = append(merged[cat], words...)
	}

	lex := &Lexicon{keywords: make(map[string][]keyword, len(merged))}
	for cat, words := range merged {
		seen := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			lex.keywords[cat] = append(lex.keywords[cat], compileKeyword(w))
		}
	}
	return lex
}

func compileKeyword(w string) keyword {
	if strings.ContainsAny(w, " \t") {
		return keyword{text: w}
	}
	// word boundary that also works for non-ASCII letters and symbols at the edges
	pattern := `(?:^|[^\pL\pN_])` + regexp.QuoteMeta(w) + `(?:[^\pL\pN_]|$)`
	return keyword{text: w, re: regexp.MustCompile(pattern)}
}

// Size returns the number of distinct keywords of a category.
func (l *Lexicon) Size(category string) int {
	return len(l.keywords[category])
}

// Matches counts the keyword entries of a category found in text. Each entry counts once.
func (l *Lexicon) Matches(category, text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, k := range l.keywords[category] {
		if k.matches(lower) {
			n++
		}
	}
	return n
}

// Score computes category scores for text. The result only depends on text and the snapshot.
func (l *Lexicon) Score(text string) CategoryScores {
	lower := strings.ToLower(text)

	counts := make(map[string]int, len(ScoredCategories))
	for _, cat := range ScoredCategories {
		for _, k := range l.keywords[cat] {
			if k.matches(lower) {
				counts[cat]++
			}
		}
	}
	counts[CategorySpam] += spamSignals(text, lower, counts[CategorySpam])

	var scores CategoryScores
	for _, cat := range ScoredCategories {
		if counts[cat] > 0 {
			scores.Set(cat, capScore(categoryBase[cat]+float64(counts[cat])*matchWeight))
		} else {
			scores.Set(cat, FloorScore)
		}
	}

	triggered := 0
	for _, cat := range slurTargets {
		if counts[cat] > 0 {
			triggered++
		}
	}
	if triggered >= 2 {
		for _, cat := range slurTargets {
			if counts[cat] > 0 {
				scores.Set(cat, capScore(scores.Get(cat)*compoundFactor))
			}
		}
	}
	return scores
}

// spamSignals returns the structural spam matches added on top of the keyword matches.
func spamSignals(original, lower string, keywordMatches int) int {
	extra := 0

	freq := make(map[string]int)
	for _, w := range strings.Fields(lower) {
		freq[w]++
	}
	for _, n := range freq {
		if n >= 3 {
			extra += n - 2
		}
	}

	excl := strings.Count(original, "!")
	quest := strings.Count(original, "?")
	if excl >= 3 || quest >= 3 || excl+quest >= 4 {
		extra += 2
	}

	upper, letters := 0, 0
	for _, r := range original {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters > 5 && float64(upper)/math.Max(1, float64(letters)) > 0.7 {
		extra++
	}

	if len([]rune(original)) < shortTextLen && keywordMatches+extra >= 2 {
		extra++
	}
	return extra
}
