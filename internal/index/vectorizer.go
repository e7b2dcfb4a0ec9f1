package index

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// vector is a sparse term-weight vector keyed by vocabulary column.
type vector map[int]float64

func dot(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for i, v := range a {
		if w, ok := b[i]; ok {
			sum += v * w
		}
	}
	return sum
}

// vectorizer computes TF-IDF weights over unigrams and bigrams.
// The vocabulary is frozen at Fit time; Transform drops unseen terms.
type vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	maxFeatures int
	fitted      bool
	stopwords   map[string]struct{}
	deaccent    transform.Transformer
}

func newVectorizer(maxFeatures int) *vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	return &vectorizer{
		vocabulary:  make(map[string]int),
		maxFeatures: maxFeatures,
		stopwords:   englishStopwords(),
		deaccent:    transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

var errEmptyCorpus = errors.New("no usable terms in corpus")

// fit builds the vocabulary and IDF weights from the corpus. When the corpus
// yields more terms than maxFeatures, the most frequent terms win.
func (v *vectorizer) fit(corpus []string) error {
	if len(corpus) == 0 {
		return errEmptyCorpus
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.terms(text) {
			tf[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return errEmptyCorpus
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if tf[terms[i]] == tf[terms[j]] {
			return terms[i] < terms[j]
		}
		return tf[terms[i]] > tf[terms[j]]
	})
	if len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	// Stable column order regardless of frequency ranking.
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.fitted = true
	return nil
}

// transformVec maps text into the existing vocabulary. Terms unseen at fit
// time are silently dropped. The result is L2-normalized.
func (v *vectorizer) transformVec(text string) vector {
	vec := make(vector)
	if !v.fitted {
		return vec
	}
	for _, term := range v.terms(text) {
		if col, ok := v.vocabulary[term]; ok {
			vec[col]++
		}
	}
	if len(vec) == 0 {
		return vec
	}
	norm2 := 0.0
	for col := range vec {
		vec[col] *= v.idf[col]
		norm2 += vec[col] * vec[col]
	}
	norm2 = math.Sqrt(norm2)
	if norm2 > 0 {
		for col := range vec {
			vec[col] /= norm2
		}
	}
	return vec
}

func (v *vectorizer) reset() {
	v.vocabulary = make(map[string]int)
	v.idf = nil
	v.fitted = false
}

func (v *vectorizer) vocabularySize() int {
	return len(v.vocabulary)
}

// terms tokenizes into stopword-filtered unigrams plus adjacent bigrams.
func (v *vectorizer) terms(text string) []string {
	unigrams := v.tokenize(text)
	if len(unigrams) == 0 {
		return nil
	}
	terms := make([]string, 0, len(unigrams)*2-1)
	terms = append(terms, unigrams...)
	for i := 1; i < len(unigrams); i++ {
		terms = append(terms, unigrams[i-1]+" "+unigrams[i])
	}
	return terms
}

func (v *vectorizer) tokenize(text string) []string {
	folded := strings.ToLower(text)
	if stripped, _, err := transform.String(v.deaccent, folded); err == nil {
		folded = stripped
	}
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := v.stopwords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}
