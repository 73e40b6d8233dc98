// Package moderation rates and censors chat text. The classifier is a
// collaborator of the coordinator: the runtime only sees Level values
// and never depends on the matching internals.
package moderation

import (
	"log/slog"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

type Level int

const (
	LevelClean Level = iota
	LevelModerate
	LevelSevere
)

func (l Level) String() string {
	switch l {
	case LevelSevere:
		return "severe"
	case LevelModerate:
		return "moderate"
	default:
		return "clean"
	}
}

// Result is one classification outcome. Matches holds the dictionary
// words found after normalization; Lang is the detected ISO 639-1 code.
type Result struct {
	Level   Level
	Matches []string
	Lang    string
}

// Classifier holds one Aho-Corasick automaton per severity tier, built
// over normalized dictionary words.
type Classifier struct {
	moderate     *goahocorasick.Machine
	severe       *goahocorasick.Machine
	censoredChar rune
	log          *slog.Logger
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewClassifier builds the automatons from the two word lists. Both
// lists are normalized the same way as incoming text so leet-speak and
// punctuation noise cannot defeat a match.
func NewClassifier(moderateWords, severeWords []string, censoredChar rune, log *slog.Logger) (*Classifier, error) {
	moderate, err := buildMachine(moderateWords)
	if err != nil {
		return nil, err
	}
	severe, err := buildMachine(severeWords)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		moderate:     moderate,
		severe:       severe,
		censoredChar: censoredChar,
		log:          log,
	}, nil
}

// Classify rates the text: severe patterns dominate moderate ones.
func (c *Classifier) Classify(text string) Result {
	mapping := normalize(text)
	if len(mapping.normalized) == 0 {
		return Result{Level: LevelClean}
	}

	info := whatlanggo.Detect(text)
	res := Result{Level: LevelClean, Lang: info.Lang.Iso6391()}

	if c.severe != nil {
		for _, span := range c.severe.MultiPatternSearch(mapping.normalized, false) {
			res.Level = LevelSevere
			res.Matches = append(res.Matches, string(span.Word))
		}
	}
	if res.Level == LevelSevere {
		return res
	}

	if c.moderate != nil {
		for _, span := range c.moderate.MultiPatternSearch(mapping.normalized, false) {
			res.Level = LevelModerate
			res.Matches = append(res.Matches, string(span.Word))
		}
	}
	return res
}

// Censor replaces the characters of moderate matches with the
// replacement rune while preserving spacing and untouched text.
func (c *Classifier) Censor(original string) string {
	mapping := normalize(original)
	if len(mapping.normalized) == 0 || c.moderate == nil {
		return original
	}

	origRunes := []rune(original)
	spans := c.moderate.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)

		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		lastCharOrigIdx := mapping.origIdx[normEnd-1]

		for i := origStart; i <= lastCharOrigIdx; i++ {
			origRunes[i] = c.censoredChar
		}
	}

	return string(origRunes)
}

func buildMachine(words []string) (*goahocorasick.Machine, error) {
	if len(words) == 0 {
		return nil, nil
	}
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalizeRunes([]rune(word))
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return m, nil
}

// normalize transforms the input into a searchable format and tracks
// original rune positions.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet-speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during the matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
