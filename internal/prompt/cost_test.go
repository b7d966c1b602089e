package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEstimator struct{}

func (failingEstimator) Estimate(string) (int, error) { return 0, errors.New("boom") }

type panickingEstimator struct{}

func (panickingEstimator) Estimate(string) (int, error) { panic("unreachable tokenizer state") }

func TestWordEstimator(t *testing.T) {
	n, err := WordEstimator{}.Estimate("  one two\tthree\nfour ")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = WordEstimator{}.Estimate("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTokenEstimator(t *testing.T) {
	e := NewTokenEstimator()

	n, err := e.Estimate("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	words, err := e.Estimate("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, words)

	punct, err := e.Estimate("hello, world!")
	require.NoError(t, err)
	assert.Equal(t, 4, punct)

	long, err := e.Estimate("internationalization")
	require.NoError(t, err)
	assert.Greater(t, long, 1)
}

func TestTokenEstimator_Uninitialised(t *testing.T) {
	var e *TokenEstimator
	_, err := e.Estimate("text")
	assert.Error(t, err)
}

func TestCounter(t *testing.T) {
	assert.Equal(t, 3, NewCounter(false, nil).Cost("a b c"))
	assert.Equal(t, 4, NewCounter(true, nil).Cost("a, b c"))
}

func TestCounter_FallsBackToWords(t *testing.T) {
	assert.Equal(t, 2, NewCounterWith(failingEstimator{}, nil).Cost("two words"))
	assert.Equal(t, 2, NewCounterWith(nil, nil).Cost("two words"))
}

func TestCounter_RecoversFromEstimatorPanic(t *testing.T) {
	c := NewCounterWith(panickingEstimator{}, nil)
	assert.NotPanics(t, func() { c.Cost("x") })
	assert.Equal(t, 3, c.Cost("one two three"))
}
