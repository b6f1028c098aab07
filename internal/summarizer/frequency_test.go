package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportText = `Revenue grew twenty percent in the first quarter. ` +
	`The growth came mostly from subscription renewals. ` +
	`Office plants were watered on Tuesdays. ` +
	`Subscription revenue is expected to keep growing next quarter. ` +
	`Marketing spend stayed flat compared to last year.`

func TestSummarizeLimitsSentenceCount(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize(reportText, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, strings.Count(out, "."), 2)
}

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize(reportText, 3)
	require.NoError(t, err)

	var positions []int
	for _, sent := range strings.SplitAfter(out, ". ") {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		idx := strings.Index(reportText, sent)
		require.GreaterOrEqual(t, idx, 0, "summary sentence %q not found in source", sent)
		positions = append(positions, idx)
	}
	require.NotEmpty(t, positions)
	for i := 1; i < len(positions); i++ {
		assert.Greater(t, positions[i], positions[i-1])
	}
}

func TestSummarizePrefersFrequentTopics(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize(reportText, 2)
	require.NoError(t, err)
	assert.NotContains(t, out, "plants")
}

func TestSummarizeShortTextPassthrough(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize("no terminal punctuation here", 3)
	require.NoError(t, err)
	assert.Equal(t, "no terminal punctuation here", out)
}

func TestSummarizeEmptyText(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize("   ", 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSummarizeDefaultLimit(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize(reportText, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, strings.Count(out, "."), 5)
}
