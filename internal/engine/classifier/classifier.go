package classifier

import (
	"cmp"
	"math"
	"slices"

	"github.com/crimson-sun/iconclass/internal/model"
)

// DefaultMaxResults is the number of labels returned per query.
const DefaultMaxResults = 10

// smallest positive normal float32
const minNormal = 0x1p-126

// Result is a surviving label with its log2 score.
type Result struct {
	Label string
	Score float32
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaxResults caps the number of returned labels. Values outside
// [1, DefaultMaxResults] fall back to DefaultMaxResults.
func WithMaxResults(n int) Option {
	return func(c *Classifier) {
		if n > 0 && n <= DefaultMaxResults {
			c.maxResults = n
		}
	}
}

// Classifier scores labels by naive Bayes over n-gram presence features.
// It only reads the artifacts it was built from and is safe for concurrent use.
type Classifier struct {
	labels     []string
	vocab      map[string]int
	total      int
	labelCount []int
	// ngramCount[l][g] is the number of examples labelled l whose features
	// contain vocabulary entry g.
	ngramCount []map[int]int
	maxResults int
}

// New precomputes per-label and per-(label, n-gram) counts from arts.
func New(arts *model.Artifacts, opts ...Option) *Classifier {
	c := &Classifier{
		labels:     arts.Labels,
		vocab:      make(map[string]int, len(arts.Vocabulary)),
		total:      len(arts.Examples),
		labelCount: make([]int, len(arts.Labels)),
		ngramCount: make([]map[int]int, len(arts.Labels)),
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(c)
	}

	for id, g := range arts.Vocabulary {
		c.vocab[g] = id
	}
	labelID := make(map[string]int, len(arts.Labels))
	for id, l := range arts.Labels {
		labelID[l] = id
		c.ngramCount[id] = make(map[int]int)
	}
	for _, ex := range arts.Examples {
		l, ok := labelID[ex.Label]
		if !ok {
			continue
		}
		c.labelCount[l]++
		for g, present := range ex.Features {
			if present {
				c.ngramCount[l][g]++
			}
		}
	}
	return c
}

// Classify returns up to MaxResults labels ranked by descending score for a
// query's n-gram set. Scores that are not normal float32 values (zero,
// subnormal, infinite or NaN) are discarded. Equal scores keep label order.
func (c *Classifier) Classify(ngrams []string) []Result {
	var results []Result
	for l, label := range c.labels {
		score, ok := c.score(l, ngrams)
		if !ok || !isNormal(score) {
			continue
		}
		results = append(results, Result{Label: label, Score: score})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results
}

// score sums log2 likelihoods in query order and then adds the log2 prior,
// all in single precision. ok is false once the sum reaches -Inf, which no
// further term can undo.
func (c *Classifier) score(l int, ngrams []string) (float32, bool) {
	n := c.labelCount[l]
	var sum float32
	for _, g := range ngrams {
		count := 0
		if id, found := c.vocab[g]; found {
			count = c.ngramCount[l][id]
		}
		sum = float32(sum + log2Ratio(count, n))
		if math.IsInf(float64(sum), -1) {
			return sum, false
		}
	}
	sum = float32(sum + log2Ratio(n, c.total))
	return sum, true
}

// MaxResults reports the result cap.
func (c *Classifier) MaxResults() int {
	return c.maxResults
}

// Labels projects the labels out of results.
func Labels(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Label
	}
	return out
}

func log2Ratio(num, den int) float32 {
	ratio := float32(num) / float32(den)
	return float32(math.Log2(float64(ratio)))
}

func isNormal(f float32) bool {
	a := math.Abs(float64(f))
	return a >= minNormal && a <= math.MaxFloat32
}
