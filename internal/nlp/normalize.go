package nlp

import (
	"strings"
	"unicode"
)

// maxLemmaPasses bounds the search for a lemma that maps onto itself.
const maxLemmaPasses = 4

// Normalizer turns raw text into an ordered sequence of lemma tokens.
// It keeps no state between calls.
type Normalizer struct {
	model Model
}

// NewNormalizer creates a Normalizer over the given model.
// A nil model falls back to English().
func NewNormalizer(model Model) *Normalizer {
	if model == nil {
		model = English()
	}
	return &Normalizer{model: model}
}

// Normalize lowercases the text, tokenizes it, drops non-alphabetic tokens and
// stop words, and reduces the rest to lemmas. Source order is preserved.
func (n *Normalizer) Normalize(text string) []string {
	tokens := n.model.Tokenize(strings.ToLower(text))
	lemmas := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if !isAlpha(token) || n.model.IsStopWord(token) {
			continue
		}

		lemma := n.lemma(token)
		if !isAlpha(lemma) || n.model.IsStopWord(lemma) {
			continue
		}

		lemmas = append(lemmas, lemma)
	}

	return lemmas
}

// lemma follows the model until the result no longer changes, since dictionary
// entries can chain, so a lemma normalizes to itself.
func (n *Normalizer) lemma(token string) string {
	for range maxLemmaPasses {
		next := strings.ToLower(n.model.Lemma(token))
		if next == token {
			break
		}
		token = next
	}
	return token
}

// Join detokenizes normalized tokens back into text.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

func isAlpha(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
