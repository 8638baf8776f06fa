// Package nlp normalizes free text into lemma tokens used for matching.
package nlp

import (
	"bufio"
	_ "embed"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Model is the linguistic ruleset behind a Normalizer.
// Implementations must be deterministic and safe for concurrent use.
type Model interface {
	// Tokenize splits lowercase text into word tokens.
	Tokenize(text string) []string
	// IsStopWord reports whether the token carries no matching value.
	IsStopWord(token string) bool
	// Lemma reduces the token to its dictionary base form.
	Lemma(token string) string
}

//go:embed stopwords_en.txt
var englishStopWordsFile string

// englishIrregular is resolved before the dictionary, which picks the verb
// reading for forms like "analyses".
var englishIrregular = map[string]string{
	"ran":      "run",
	"ate":      "eat",
	"led":      "lead",
	"built":    "build",
	"taught":   "teach",
	"thought":  "think",
	"wrote":    "write",
	"written":  "write",
	"spoke":    "speak",
	"spoken":   "speak",
	"drove":    "drive",
	"driven":   "drive",
	"grew":     "grow",
	"grown":    "grow",
	"began":    "begin",
	"begun":    "begin",
	"won":      "win",
	"sold":     "sell",
	"bought":   "buy",
	"brought":  "bring",
	"held":     "hold",
	"met":      "meet",
	"children": "child",
	"people":   "person",
	"men":      "man",
	"women":    "woman",
	"better":   "good",
	"best":     "good",
	"analyses": "analysis",
	"criteria": "criterion",
	"indices":  "index",
	"matrices": "matrix",
}

// englishDictionary is loaded once; the packed dictionary is large.
var englishDictionary = sync.OnceValues(func() (*golem.Lemmatizer, error) {
	return golem.New(en.New())
})

type englishModel struct {
	stopWords map[string]struct{}
	dict      *golem.Lemmatizer
}

// English returns the default English model: accent folding, an embedded
// stop-word list and dictionary lemmas, with a single Porter2 pass for words
// the dictionary does not list. Without a loadable dictionary the model only
// resolves irregular forms.
func English() Model {
	dict, err := englishDictionary()
	if err != nil {
		dict = nil
	}

	return &englishModel{stopWords: parseWordList(englishStopWordsFile), dict: dict}
}

func (m *englishModel) Tokenize(text string) []string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		folded = text
	}

	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func (m *englishModel) IsStopWord(token string) bool {
	_, ok := m.stopWords[token]
	return ok
}

// Lemma returns the dictionary base form of token. Unknown words are stemmed
// once; the stem is used only when it strips an inflectional ending and the
// dictionary knows it. Otherwise the token is its own lemma.
func (m *englishModel) Lemma(token string) string {
	if base, ok := englishIrregular[token]; ok {
		return base
	}
	if m.dict == nil {
		return token
	}
	if m.dict.InDict(token) {
		return m.dict.Lemma(token)
	}

	stem := english.Stem(token, false)
	if isInflection(token, stem) && m.dict.InDict(stem) {
		return m.dict.Lemma(stem)
	}
	return token
}

var inflectionalEndings = []string{"s", "es", "ed", "ing"}

func isInflection(token, stem string) bool {
	if stem == "" || stem == token || !strings.HasPrefix(token, stem) {
		return false
	}
	return slices.Contains(inflectionalEndings, strings.TrimPrefix(token, stem))
}

func parseWordList(data string) map[string]struct{} {
	words := make(map[string]struct{})

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[line] = struct{}{}
	}

	return words
}
