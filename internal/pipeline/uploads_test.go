package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

// recordingExtractor verifies the spooled files exist at extraction time and
// remembers their paths so the test can check cleanup afterwards.
type recordingExtractor struct {
	t     *testing.T
	paths []string
	fail  bool
}

func (r *recordingExtractor) Extract(path string) (domain.Extraction, error) {
	r.paths = append(r.paths, path)
	_, err := os.Stat(path)
	require.NoError(r.t, err, "spooled file must exist during extraction")
	if r.fail {
		return domain.Extraction{}, &domain.IngestionError{Path: path, Err: os.ErrPermission}
	}
	return domain.Extraction{
		Texts: []domain.PageText{{Page: 1, Text: "Revenue grew 20% in Q1."}},
	}, nil
}

func TestIngestUploadsRemovesTempFiles(t *testing.T) {
	ex := &recordingExtractor{t: t}
	capt := &stubCaptioner{caption: "a chart"}
	gen := &stubGenerator{answer: "ok"}
	p := newTestPipeline(ex, capt, gen)

	uploads := []Upload{
		{Name: "report.pdf", Data: []byte("%PDF-1.4 stub")},
		{Name: "chart.png", Data: jpegStub()},
	}
	require.NoError(t, p.IngestUploads(context.Background(), uploads))

	require.Len(t, ex.paths, 2)
	for _, path := range ex.paths {
		_, err := os.Stat(path)
		assert.ErrorIs(t, err, os.ErrNotExist, "temp file %s should be removed", path)
	}
	assert.Greater(t, p.RecordCount(), 0)
}

func TestIngestUploadsRemovesTempFilesOnFailure(t *testing.T) {
	ex := &recordingExtractor{t: t, fail: true}
	p := newTestPipeline(ex, &stubCaptioner{}, &stubGenerator{})

	err := p.IngestUploads(context.Background(), []Upload{{Name: "report.pdf", Data: []byte("x")}})
	require.Error(t, err)

	require.NotEmpty(t, ex.paths)
	for _, path := range ex.paths {
		_, statErr := os.Stat(path)
		assert.ErrorIs(t, statErr, os.ErrNotExist)
	}
}

func TestIngestUploadsKeepsExtension(t *testing.T) {
	ex := &recordingExtractor{t: t}
	p := newTestPipeline(ex, &stubCaptioner{caption: "a chart"}, &stubGenerator{})

	require.NoError(t, p.IngestUploads(context.Background(), []Upload{{Name: "report.pdf", Data: []byte("x")}}))
	require.Len(t, ex.paths, 1)
	assert.Contains(t, ex.paths[0], "docqa-")
	assert.Equal(t, ".pdf", ex.paths[0][len(ex.paths[0])-4:])
}
