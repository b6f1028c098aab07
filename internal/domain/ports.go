package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore holds vectors with their records and supports similarity search.
// Records and vectors are always inserted together, one vector per record.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Chunker splits a text record into smaller records suitable for indexing.
type Chunker interface {
	Split(record Record) []Record
}

// Captioner produces a text description of a JPEG-encoded image.
type Captioner interface {
	Caption(ctx context.Context, jpegData []byte) (string, error)
}

// Chat roles understood by the Generator.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the chat transcript sent to the generator.
type Message struct {
	Role    string
	Content string
}

// Generator produces an answer from an ordered chat transcript.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// PageText is the plain text extracted from one page of a source file.
type PageText struct {
	Page int
	Text string
}

// PageImage is the JPEG-encoded render of one page, or a standalone image.
type PageImage struct {
	Page int
	JPEG []byte
}

// Extraction is the raw material produced from one source file, before
// captioning and chunking. A PDF page can appear in both slices: once as its
// text and once as a render of its visual layout.
type Extraction struct {
	Texts  []PageText
	Images []PageImage
}

// Extractor turns one source file into per-page text and images.
type Extractor interface {
	Extract(path string) (Extraction, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
