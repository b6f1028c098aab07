package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docqa/internal/domain"
)

const (
	// captionFallback replaces the caption of an image whose analysis
	// failed; a single bad image must not fail the whole ingestion.
	captionFallback = "Error analyzing image."

	// noDocumentsAnswer is the user-facing reply when no documents have
	// been ingested yet. This is a normal condition, not an error.
	noDocumentsAnswer = "Please upload and process documents first."

	summarySentences = 3
)

// Deps are the collaborators a Pipeline orchestrates. NewStore and
// NewEmbedder construct fresh instances per ingestion so a new knowledge
// base can replace the old one atomically: a failed ingestion must not have
// touched the published store or the published embedder's state.
type Deps struct {
	Extractor   domain.Extractor
	Captioner   domain.Captioner
	NewEmbedder func() domain.Embedder
	Generator   domain.Generator
	Chunker     domain.Chunker
	Summarizer  domain.Summarizer
	NewStore    func() domain.VectorStore
	TopK        int
	Logger      *zap.Logger
}

// Pipeline owns the knowledge base and conversation state for one session.
// It is built for a single caller: operations are synchronous and must not
// run concurrently against the same instance.
type Pipeline struct {
	deps    Deps
	embName string
	kb      *knowledgeBase
	history []domain.Turn
	summary string
}

// knowledgeBase binds a populated vector store to the embedder instance that
// produced its vectors. Queries must embed with this exact instance: for
// prepared embedders the vocabulary is part of the vector space identity.
type knowledgeBase struct {
	store   domain.VectorStore
	emb     domain.Embedder
	name    string
	records int
}

func New(deps Deps) *Pipeline {
	if deps.TopK <= 0 {
		deps.TopK = 4
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, embName: deps.NewEmbedder().Name()}
}

// Ingest converts the given files into a fresh knowledge base. Any file that
// cannot be read or parsed aborts the whole call with *domain.IngestionError
// and leaves the previous knowledge base untouched.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) error {
	var records []domain.Record
	for _, path := range paths {
		extracted, err := p.deps.Extractor.Extract(path)
		if err != nil {
			return err
		}
		for _, pt := range extracted.Texts {
			records = append(records, domain.Record{
				Content: pt.Text,
				Origin:  path,
				Kind:    domain.KindText,
				Page:    pt.Page,
			})
		}
		for _, pi := range extracted.Images {
			records = append(records, domain.Record{
				Content:   p.caption(ctx, path, pi),
				Origin:    path,
				Kind:      domain.KindImage,
				Page:      pi.Page,
				ImageData: pi.JPEG,
			})
		}
	}
	if len(records) == 0 {
		return &domain.IngestionError{Err: errors.New("no content produced from input files")}
	}

	// Chunk text records; captions are short already and stay whole.
	final := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Kind == domain.KindText {
			final = append(final, p.deps.Chunker.Split(r)...)
		} else {
			final = append(final, r)
		}
	}

	// Prepare and embed with a fresh embedder instance. The published
	// knowledge base keeps its own embedder, so a failure from here on
	// cannot corrupt the vector space the old knowledge base was built in.
	emb := p.deps.NewEmbedder()
	corpus := make([]string, len(final))
	for i, r := range final {
		corpus[i] = r.Content
	}
	if err := emb.Prepare(corpus); err != nil {
		return &domain.IngestionError{Err: fmt.Errorf("prepare embedder: %w", err)}
	}
	vectors := make([][]float32, len(final))
	for i, r := range final {
		vec, err := emb.Embed(ctx, r.Content)
		if err != nil {
			return &domain.IngestionError{Path: r.Origin, Err: fmt.Errorf("embed page %d: %w", r.Page, err)}
		}
		vectors[i] = vec
	}

	// Build and publish. Nothing before this point touched the old
	// knowledge base, so a failure anywhere leaves it queryable.
	store := p.deps.NewStore()
	if err := store.Init(ctx, emb.Dimension()); err != nil {
		return &domain.IngestionError{Err: fmt.Errorf("init vector store: %w", err)}
	}
	if err := store.Upsert(ctx, final, vectors); err != nil {
		return &domain.IngestionError{Err: fmt.Errorf("index records: %w", err)}
	}
	p.kb = &knowledgeBase{store: store, emb: emb, name: emb.Name(), records: len(final)}
	p.summary = p.summarize(records)
	p.deps.Logger.Info("knowledge base built",
		zap.Int("files", len(paths)),
		zap.Int("records", len(final)),
		zap.String("embedder", p.kb.name))
	return nil
}

// Upload is an in-memory file handed over by a front-end.
type Upload struct {
	Name string
	Data []byte
}

// IngestUploads spools uploads to temporary files, ingests them, and removes
// the temporary copies on every exit path.
func (p *Pipeline) IngestUploads(ctx context.Context, uploads []Upload) error {
	paths, err := spoolUploads(uploads)
	defer removeAll(paths)
	if err != nil {
		return err
	}
	return p.Ingest(ctx, paths)
}

// Ask answers one question against the current knowledge base, conditioning
// the generator on retrieved records and prior turns. The turn is recorded
// only when generation succeeds.
func (p *Pipeline) Ask(ctx context.Context, question string) (domain.Answer, error) {
	if p.kb == nil {
		return domain.Answer{Text: noDocumentsAnswer}, nil
	}
	if p.embName != p.kb.name {
		return domain.Answer{}, domain.ErrEmbedderMismatch
	}
	vec, err := p.kb.emb.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embed question: %w", err)
	}
	sources, err := p.kb.store.Search(ctx, vec, p.deps.TopK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("search: %w", err)
	}
	answer, err := p.deps.Generator.Generate(ctx, p.buildMessages(question, sources))
	if err != nil {
		return domain.Answer{}, err
	}
	p.history = append(p.history, domain.Turn{Question: question, Answer: answer})
	return domain.Answer{Text: answer, Sources: sources}, nil
}

// History returns a copy of the recorded conversation turns.
func (p *Pipeline) History() []domain.Turn {
	out := make([]domain.Turn, len(p.history))
	copy(out, p.history)
	return out
}

// Reset clears the conversation without touching the knowledge base.
func (p *Pipeline) Reset() { p.history = nil }

// Summary returns the corpus overview produced by the last ingestion.
func (p *Pipeline) Summary() string { return p.summary }

// RecordCount reports the size of the current knowledge base.
func (p *Pipeline) RecordCount() int {
	if p.kb == nil {
		return 0
	}
	return p.kb.records
}

func (p *Pipeline) caption(ctx context.Context, origin string, img domain.PageImage) string {
	text, err := p.deps.Captioner.Caption(ctx, img.JPEG)
	if err != nil {
		p.deps.Logger.Warn("image captioning failed",
			zap.String("origin", origin), zap.Int("page", img.Page), zap.Error(err))
		return captionFallback
	}
	if strings.TrimSpace(text) == "" {
		return captionFallback
	}
	return text
}

func (p *Pipeline) summarize(records []domain.Record) string {
	if p.deps.Summarizer == nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range records {
		if r.Kind != domain.KindText {
			continue
		}
		sb.WriteString(r.Content)
		sb.WriteString("\n")
	}
	summary, err := p.deps.Summarizer.Summarize(sb.String(), summarySentences)
	if err != nil {
		p.deps.Logger.Warn("corpus summary failed", zap.Error(err))
		return ""
	}
	return summary
}

func (p *Pipeline) buildMessages(question string, sources []domain.SearchResult) []domain.Message {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant answering questions about the user's documents. " +
		"Use the excerpts below; if they do not contain the answer, say so.\n\nExcerpts:\n")
	for i, s := range sources {
		fmt.Fprintf(&sb, "[%d] %s, page %d:\n%s\n\n", i+1, s.Record.Origin, s.Record.Page, s.Record.Content)
	}
	messages := []domain.Message{{Role: domain.RoleSystem, Content: sb.String()}}
	for _, t := range p.history {
		messages = append(messages,
			domain.Message{Role: domain.RoleUser, Content: t.Question},
			domain.Message{Role: domain.RoleAssistant, Content: t.Answer})
	}
	return append(messages, domain.Message{Role: domain.RoleUser, Content: question})
}
