package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func rec(content string) domain.Record {
	return domain.Record{Content: content, Origin: "doc.pdf", Kind: domain.KindText, Page: 1}
}

func TestInitRejectsInvalidDimension(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Init(context.Background(), 0))
	assert.Error(t, s.Init(context.Background(), -3))
	assert.NoError(t, s.Init(context.Background(), 4))
}

func TestInitResetsContents(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a")}, [][]float32{{1, 0}}))
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.Init(ctx, 2))
	assert.Equal(t, 0, s.Len())
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 3))

	err := s.Upsert(ctx, []domain.Record{rec("a"), rec("b")}, [][]float32{{1, 0, 0}})
	assert.Error(t, err)

	err = s.Upsert(ctx, []domain.Record{rec("a")}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 2))

	records := []domain.Record{rec("east"), rec("north"), rec("northeast")}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	}
	require.NoError(t, s.Upsert(ctx, records, vectors))

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "east", results[0].Record.Content)
	assert.Equal(t, "northeast", results[1].Record.Content)
	assert.Equal(t, "north", results[2].Record.Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a"), rec("b")}, [][]float32{{1, 0}, {0, 1}}))

	results, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 2))

	results, err := s.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchStableOnTies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx,
		[]domain.Record{rec("first"), rec("second")},
		[][]float32{{0, 1}, {0, 1}}))

	results, err := s.Search(ctx, []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Record.Content)
	assert.Equal(t, "second", results[1].Record.Content)
}

func TestSearchRejectsMismatchedQueryDimension(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Init(ctx, 3))
	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a")}, [][]float32{{1, 0, 0}}))

	_, err := s.Search(ctx, []float32{1, 0}, 4)
	assert.Error(t, err)

	_, err = s.Search(ctx, []float32{1, 0, 0, 0}, 4)
	assert.Error(t, err)
}
