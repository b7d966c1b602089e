package prompt

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"go.uber.org/zap"
)

// Estimator measures text in budget units.
type Estimator interface {
	Estimate(text string) (int, error)
}

// WordEstimator counts whitespace-separated words.
type WordEstimator struct{}

// Estimate returns the number of words in text. It never fails.
func (WordEstimator) Estimate(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// TokenEstimator approximates model tokens with bleve's Unicode word segmenter:
// one unit per word token plus one per further 8 runes of that token, and one
// unit per punctuation or symbol rune.
type TokenEstimator struct {
	tokenizer *bleveunicode.UnicodeTokenizer
}

// NewTokenEstimator returns a tokenizer-backed estimator.
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{tokenizer: bleveunicode.NewUnicodeTokenizer()}
}

// Estimate returns the token estimate for text. A tokenizer panic is returned as an error.
func (e *TokenEstimator) Estimate(text string) (n int, err error) {
	if e == nil || e.tokenizer == nil {
		return 0, fmt.Errorf("token estimator not initialised")
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("tokenizer panic: %v", r)
		}
	}()
	for _, tok := range e.tokenizer.Tokenize([]byte(text)) {
		n += 1 + (utf8.RuneCount(tok.Term)-1)/8
	}
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			n++
		}
	}
	return n, nil
}

// Counter turns an Estimator into an infallible cost function, falling back to
// word counting when the estimator is missing or fails.
type Counter struct {
	primary Estimator
	logger  *zap.Logger
}

// NewCounter returns a Counter. advanced selects the token estimator; otherwise
// words are counted directly.
func NewCounter(advanced bool, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Counter{logger: logger}
	if advanced {
		c.primary = NewTokenEstimator()
	}
	return c
}

// NewCounterWith wraps an arbitrary estimator.
func NewCounterWith(primary Estimator, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{primary: primary, logger: logger}
}

// Cost returns the cost of text in budget units.
func (c *Counter) Cost(text string) int {
	if c.primary != nil {
		n, err := safeEstimate(c.primary, text)
		if err == nil && n >= 0 {
			return n
		}
		c.logger.Debug("cost estimator failed, counting words", zap.Error(err))
	}
	n, _ := WordEstimator{}.Estimate(text)
	return n
}

func safeEstimate(e Estimator, text string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("estimator panic: %v", r)
		}
	}()
	return e.Estimate(text)
}
