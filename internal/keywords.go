package internal

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

const (
	// MinTextLength is the minimum input size worth building a query from.
	MinTextLength = 20

	// DefaultMaxKeywords is the keyword cap when callers pass 0.
	DefaultMaxKeywords = 8

	// dedupThreshold collapses near-identical phrases into one candidate.
	dedupThreshold = 0.7
)

var wordPattern = regexp.MustCompile(`[a-z][a-z0-9_-]*`)

// Stopwords excluded from queries: pronouns, auxiliaries, prepositions,
// plus generic assistant-chatter words that carry no search signal.
var Stopwords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "we": {}, "our": {}, "you": {}, "your": {},
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {}, "to": {},
	"of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {},
	"from": {}, "as": {}, "into": {}, "and": {}, "but": {}, "or": {},
	"so": {}, "yet": {}, "both": {}, "either": {}, "neither": {}, "not": {},
	"only": {}, "this": {}, "that": {}, "these": {}, "those": {}, "what": {},
	"which": {}, "who": {}, "how": {}, "why": {}, "if": {}, "then": {},
	"else": {}, "because": {}, "about": {}, "think": {}, "want": {},
	"need": {}, "like": {}, "know": {}, "see": {}, "look": {}, "make": {},
	"take": {}, "get": {}, "use": {}, "try": {}, "work": {}, "let": {},
	"going": {}, "looking": {}, "using": {}, "file": {}, "code": {},
	"user": {}, "just": {}, "now": {}, "here": {}, "there": {}, "some": {},
	"all": {}, "any": {}, "each": {}, "more": {}, "most": {}, "other": {},
	"also": {}, "very": {}, "too": {}, "less": {}, "such": {}, "than": {},
	"when": {}, "where": {}, "while": {}, "after": {}, "before": {},
	"during": {}, "through": {}, "between": {}, "under": {}, "over": {},
	"above": {}, "below": {},
}

// KeywordExtractor turns free-form text into an ordered keyword list,
// most relevant first.
type KeywordExtractor interface {
	Extract(text string, max int) ([]string, error)
}

var (
	defaultExtractorOnce sync.Once
	defaultExtractor     KeywordExtractor
)

// DefaultExtractor returns the process-wide extractor: the statistical
// extractor with the frequency extractor as fallback. Selected once and
// cached for the process lifetime.
func DefaultExtractor() KeywordExtractor {
	defaultExtractorOnce.Do(func() {
		defaultExtractor = &chainExtractor{
			primary:  &StatisticalExtractor{},
			fallback: &FrequencyExtractor{},
		}
	})
	return defaultExtractor
}

// ExtractKeywords runs the default extractor. It never fails: any primary
// path error falls through to the frequency fallback.
func ExtractKeywords(text string, max int) []string {
	kws, _ := DefaultExtractor().Extract(text, max)
	return kws
}

// KeywordsToQuery collapses a keyword list into a single query string.
func KeywordsToQuery(keywords []string) string {
	return strings.Join(keywords, " ")
}

// chainExtractor tries the primary extractor and silently falls back.
type chainExtractor struct {
	primary  KeywordExtractor
	fallback KeywordExtractor
}

func (c *chainExtractor) Extract(text string, max int) (keywords []string, err error) {
	if len(strings.TrimSpace(text)) < MinTextLength {
		return nil, nil
	}
	if max <= 0 {
		max = DefaultMaxKeywords
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				keywords = nil
				err = nil
			}
		}()
		keywords, err = c.primary.Extract(text, max)
	}()
	if err == nil && len(keywords) > 0 {
		return keywords, nil
	}

	return c.fallback.Extract(text, max)
}

// StatisticalExtractor scores unigram and bigram candidates by term
// frequency, first occurrence, and sentence spread, then suppresses
// near-duplicate phrases so "token validation" and "validate tokens"
// collapse to one entry.
type StatisticalExtractor struct{}

type termStats struct {
	freq      int
	firstIdx  int
	sentences map[int]struct{}
}

type candidate struct {
	phrase   string
	score    float64
	firstIdx int
}

func (e *StatisticalExtractor) Extract(text string, max int) ([]string, error) {
	if len(strings.TrimSpace(text)) < MinTextLength {
		return nil, nil
	}
	if max <= 0 {
		max = DefaultMaxKeywords
	}

	tokens, sentenceOf := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	stats := make(map[string]*termStats)
	for i, tok := range tokens {
		st, ok := stats[tok]
		if !ok {
			st = &termStats{firstIdx: i, sentences: make(map[int]struct{})}
			stats[tok] = st
		}
		st.freq++
		st.sentences[sentenceOf[i]] = struct{}{}
	}

	score := func(tok string) float64 {
		st := stats[tok]
		spread := float64(len(st.sentences))
		return float64(st.freq) * (1 + spread) / (1 + math.Log1p(float64(st.firstIdx)))
	}

	informative := func(tok string) bool {
		if len(tok) < 3 {
			return false
		}
		_, stop := Stopwords[tok]
		return !stop
	}

	var cands []candidate
	seen := make(map[string]struct{})

	// Unigrams.
	for i, tok := range tokens {
		if !informative(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		cands = append(cands, candidate{phrase: tok, score: score(tok), firstIdx: i})
	}

	// Bigrams: adjacent informative tokens inside one sentence.
	bigramFreq := make(map[string]int)
	bigramFirst := make(map[string]int)
	for i := 0; i+1 < len(tokens); i++ {
		if sentenceOf[i] != sentenceOf[i+1] {
			continue
		}
		if !informative(tokens[i]) || !informative(tokens[i+1]) {
			continue
		}
		phrase := tokens[i] + " " + tokens[i+1]
		if _, ok := bigramFirst[phrase]; !ok {
			bigramFirst[phrase] = i
		}
		bigramFreq[phrase]++
	}
	for phrase, freq := range bigramFreq {
		parts := strings.SplitN(phrase, " ", 2)
		s := float64(freq) * (score(parts[0]) + score(parts[1])) / 2
		cands = append(cands, candidate{phrase: phrase, score: s, firstIdx: bigramFirst[phrase]})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].firstIdx < cands[j].firstIdx
	})

	var out []string
	var accepted []string
	for _, c := range cands {
		if len(out) >= max {
			break
		}
		key := stemPhrase(c.phrase)
		dup := false
		for _, prev := range accepted {
			if similar(key, prev) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		accepted = append(accepted, key)
		out = append(out, c.phrase)
	}

	return out, nil
}

// stemPhrase normalizes a phrase to its stemmed form for comparison.
func stemPhrase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = porter2.Stem(w)
	}
	return strings.Join(words, " ")
}

func similar(a, b string) bool {
	if a == b {
		return true
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return false
	}
	return float64(sim) >= dedupThreshold
}

// tokenize lowercases text and returns word tokens plus the sentence
// index of each token. Sentence boundaries are ., !, ? and newlines.
func tokenize(text string) ([]string, []int) {
	var tokens []string
	var sentenceOf []int

	sentence := 0
	word := strings.Builder{}
	flush := func() {
		if word.Len() == 0 {
			return
		}
		raw := word.String()
		word.Reset()
		// Same scan as the fallback: a digit-led run like "2fa" still
		// yields its letter-led tail.
		for _, tok := range wordPattern.FindAllString(raw, -1) {
			tokens = append(tokens, tok)
			sentenceOf = append(sentenceOf, sentence)
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			word.WriteRune(r)
		case r == '.' || r == '!' || r == '?' || r == '\n':
			flush()
			sentence++
		default:
			flush()
		}
	}
	flush()

	return tokens, sentenceOf
}

// FrequencyExtractor is the cheap escape hatch: plain word extraction
// ranked by descending frequency, ties broken by first-seen order.
type FrequencyExtractor struct{}

func (e *FrequencyExtractor) Extract(text string, max int) ([]string, error) {
	if len(strings.TrimSpace(text)) < MinTextLength {
		return nil, nil
	}
	if max <= 0 {
		max = DefaultMaxKeywords
	}

	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for i, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, stop := Stopwords[w]; stop {
			continue
		}
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > max {
		order = order[:max]
	}
	return order, nil
}
