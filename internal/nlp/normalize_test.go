package nlp

import (
	"reflect"
	"strings"
	"testing"
)

// stubModel is a deterministic model with a tiny ruleset.
type stubModel struct {
	stop map[string]bool
}

func newStubModel() *stubModel {
	return &stubModel{stop: map[string]bool{"the": true, "and": true, "of": true, "be": true}}
}

func (m *stubModel) Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == '.' })
}

func (m *stubModel) IsStopWord(token string) bool { return m.stop[token] }

func (m *stubModel) Lemma(token string) string {
	switch {
	case token == "is" || token == "are":
		return "be"
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return strings.TrimSuffix(token, "ing")
	case strings.HasSuffix(token, "s") && len(token) > 3:
		return strings.TrimSuffix(token, "s")
	}
	return token
}

func TestNormalizeWithStubModel(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(newStubModel())

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty text",
			input: "",
			want:  []string{},
		},
		{
			name:  "lowercases and lemmatizes in order",
			input: "Developing APIs and Services",
			want:  []string{"develop", "api", "service"},
		},
		{
			name:  "drops stop words including lemmas that become stop words",
			input: "the tools are great",
			want:  []string{"tool", "great"},
		},
		{
			name:  "drops digits and mixed tokens",
			input: "python3 2020 go, rust.",
			want:  []string{"go", "rust"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := n.Normalize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalizeEnglish(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(English())

	got := n.Normalize("The developers were developing software!")
	want := []string{"developer", "develop", "software"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if folded := n.Normalize("Résumé"); !reflect.DeepEqual(folded, n.Normalize("resume")) {
		t.Fatalf("expected accents to be folded, got %v", folded)
	}

	if irregular := n.Normalize("children ran"); !reflect.DeepEqual(irregular, []string{"child", "run"}) {
		t.Fatalf("expected irregular forms to be reduced, got %v", irregular)
	}
}

func TestEnglishDictionaryLemmas(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(English())

	tests := []struct {
		input string
		want  []string
	}{
		{input: "universities university", want: []string{"university", "university"}},
		{input: "agreed agrees", want: []string{"agree", "agree"}},
		{input: "organizations organization", want: []string{"organization", "organization"}},
		{input: "organ organic", want: []string{"organ", "organic"}},
		{input: "managed managing managers", want: []string{"manage", "manage", "manager"}},
		{input: "analyses criteria", want: []string{"analysis", "criterion"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := n.Normalize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnglishUnknownWordsKeepTheirForm(t *testing.T) {
	t.Parallel()

	model := English()

	// Neither word is in the dictionary and neither stem strips an
	// inflectional ending onto a dictionary word.
	for _, word := range []string{"kubernetes", "terraform"} {
		if got := model.Lemma(word); got != word {
			t.Fatalf("expected %q to stay unchanged, got %q", word, got)
		}
	}

	if got := model.Lemma("happily"); got == "happili" {
		t.Fatalf("expected a dictionary form for %q, got the stem %q", "happily", got)
	}
}

func TestEnglishLemmaWithoutDictionary(t *testing.T) {
	t.Parallel()

	model := &englishModel{stopWords: parseWordList(englishStopWordsFile)}

	if got := model.Lemma("children"); got != "child" {
		t.Fatalf("expected irregular form to resolve, got %q", got)
	}
	if got := model.Lemma("universities"); got != "universities" {
		t.Fatalf("expected token unchanged without a dictionary, got %q", got)
	}
}

func TestIsInflection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token, stem string
		want        bool
	}{
		{token: "deploys", stem: "deploy", want: true},
		{token: "deployed", stem: "deploy", want: true},
		{token: "deploying", stem: "deploy", want: true},
		{token: "boxes", stem: "box", want: true},
		{token: "organic", stem: "organ", want: false},
		{token: "happily", stem: "happili", want: false},
		{token: "go", stem: "go", want: false},
		{token: "s", stem: "", want: false},
	}

	for _, tt := range tests {
		if got := isInflection(tt.token, tt.stem); got != tt.want {
			t.Fatalf("isInflection(%q, %q) = %v, want %v", tt.token, tt.stem, got, tt.want)
		}
	}
}

func TestNormalizeProperties(t *testing.T) {
	t.Parallel()

	model := English()
	n := NewNormalizer(model)

	inputs := []string{
		"",
		"   ",
		"!!! ... ---",
		"Experienced Python developer skilled in AI, data science, and web development.",
		"Owning the delivery of distributed systems; mentoring engineers & running 24/7 on-call.",
		"Statistics, machine-learning models, A/B testing, and dashboards for 2019–2023.",
		"Naïve Bayes, café analytics, coöperative résumés",
		"Universities agreed: organizations happily managed organic organ donations.",
	}

	for _, input := range inputs {
		tokens := n.Normalize(input)

		for _, token := range tokens {
			if model.IsStopWord(token) {
				t.Fatalf("stop word %q left in %v (input %q)", token, tokens, input)
			}
			if !isAlpha(token) {
				t.Fatalf("non-alphabetic token %q left in %v (input %q)", token, tokens, input)
			}
		}

		again := n.Normalize(Join(tokens))
		if !reflect.DeepEqual(again, tokens) {
			t.Fatalf("normalize is not idempotent for %q: %v then %v", input, tokens, again)
		}
	}
}

func TestNewNormalizerDefaultsToEnglish(t *testing.T) {
	n := NewNormalizer(nil)
	if got := n.Normalize("the and of"); len(got) != 0 {
		t.Fatalf("expected english stop words to be removed, got %v", got)
	}
}

func TestParseWordList(t *testing.T) {
	words := parseWordList("# comment\nThe\n\n  and \n")
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if _, ok := words["the"]; !ok {
		t.Fatalf("expected lowercased entry")
	}
}
