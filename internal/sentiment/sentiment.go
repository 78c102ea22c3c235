// Package sentiment scores the polarity of free-form review text.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Extractor maps text to a polarity in [-1, 1].
// Implementations return 0 for empty or unscorable text and never fail.
type Extractor interface {
	TextSentiment(text string) float64
}

// ExtractorFunc adapts a plain function to an Extractor. The result is
// clamped to [-1, 1] and NaN maps to 0.
type ExtractorFunc func(text string) float64

func (f ExtractorFunc) TextSentiment(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return Clamp(f(text))
}

// Clamp bounds v to [-1, 1], mapping NaN to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

const (
	negationFactor = -0.5
	exclaimBoost   = 0.1
	maxExclaims    = 3
)

// Lexicon is a pattern-style lexical analyzer. Each polar token contributes
// its lexicon score, scaled by a preceding intensifier and damped (and
// flipped) by a preceding negation. The result is the mean over polar
// tokens, nudged away from zero by trailing exclamation marks.
type Lexicon struct {
	words        map[string]float64
	intensifiers map[string]float64
	negations    map[string]bool
}

// NewLexicon returns a Lexicon loaded with the built-in English word list.
func NewLexicon() *Lexicon {
	return &Lexicon{
		words:        polarity,
		intensifiers: intensifiers,
		negations:    negations,
	}
}

func (l *Lexicon) TextSentiment(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var (
		sum      float64
		count    int
		scale    = 1.0
		negate   bool
		window   int
		exclaims = strings.Count(text, "!")
	)

	for _, tok := range tokens {
		if l.negations[tok] {
			negate = true
			window = 3
			continue
		}
		if m, ok := l.intensifiers[tok]; ok {
			scale *= m
			continue
		}

		score, ok := l.words[tok]
		if !ok {
			if window > 0 {
				window--
				if window == 0 {
					negate = false
				}
			}
			scale = 1.0
			continue
		}

		score *= scale
		if negate {
			score *= negationFactor
		}
		sum += score
		count++

		scale = 1.0
		negate = false
		window = 0
	}

	if count == 0 {
		return 0
	}

	mean := sum / float64(count)
	if mean != 0 && exclaims > 0 {
		boost := float64(min(exclaims, maxExclaims)) * exclaimBoost
		mean += math.Copysign(boost, mean)
	}
	return Clamp(mean)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		if strings.HasSuffix(f, "n't") {
			tokens = append(tokens, strings.TrimSuffix(f, "n't"), "not")
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
