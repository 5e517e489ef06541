package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	sastrawi "github.com/RadhiFadlillah/go-sastrawi"
	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

var (
	digitRe  = regexp.MustCompile(`\p{N}+`)
	punctRe  = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw multimodal text into the cleaned bilingual token form
// the classifier trains and predicts on. English tokens are lemmatized, the
// rest are stemmed as Indonesian, and stopwords of either language are
// dropped.
type Normalizer struct {
	lemmatizer  *golem.Lemmatizer
	stemmer     sastrawi.Stemmer
	idStopwords sastrawi.Dictionary
	enStopwords map[string]struct{}
}

func NewNormalizer() (*Normalizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, err
	}
	enStop := make(map[string]struct{}, len(englishStopwords))
	for _, w := range englishStopwords {
		enStop[w] = struct{}{}
	}
	return &Normalizer{
		lemmatizer:  lemmatizer,
		stemmer:     sastrawi.NewStemmer(sastrawi.DefaultDictionary()),
		idStopwords: sastrawi.DefaultStopword(),
		enStopwords: enStop,
	}, nil
}

// Normalize runs the full pipeline: case folding, digit and punctuation
// removal, whitespace collapse, tokenization, bilingual stem/lemmatize and
// stopword removal. An input that reduces to nothing is a valid empty result;
// only non-text input (invalid UTF-8) yields the error-like empty return
// without any processing.
func (n *Normalizer) Normalize(raw string) (string, []string) {
	if !utf8.ValidString(raw) {
		return "", nil
	}

	text := strings.ToLower(raw)
	text = digitRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))

	if text == "" {
		return "", []string{}
	}

	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		stemmed := n.stemBilingual(tok)
		if utf8.RuneCountInString(stemmed) <= 1 {
			continue
		}
		if n.isStopword(stemmed) {
			continue
		}
		out = append(out, stemmed)
	}

	return strings.Join(out, " "), out
}

// stemBilingual prefers the English lemma when lemmatization changes the
// token (the token was a recognized dictionary word), otherwise falls back to
// the Indonesian morphological stemmer.
func (n *Normalizer) stemBilingual(token string) string {
	lemma := n.lemmatizer.Lemma(token)
	if lemma != token {
		return lemma
	}
	return n.stemmer.Stem(token)
}

func (n *Normalizer) isStopword(token string) bool {
	if _, ok := n.enStopwords[token]; ok {
		return true
	}
	return n.idStopwords.Contains(token)
}
