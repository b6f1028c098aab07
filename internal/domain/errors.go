package domain

import (
	"errors"
	"fmt"
)

// IngestionError reports a source file that could not be read or parsed, or
// an ingestion run that produced no content. It aborts the whole ingestion;
// no partial knowledge base is ever published.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ingestion failed: %v", e.Err)
	}
	return fmt.Sprintf("ingest %s: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// GenerationErrorKind classifies LLM failures during answer generation.
type GenerationErrorKind int

const (
	// GenerationOther covers transient and unclassified failures.
	GenerationOther GenerationErrorKind = iota
	// GenerationQuota means the provider rejected the call for quota or
	// billing reasons; retrying will not help until the account is fixed.
	GenerationQuota
)

// GenerationError reports a failed answer generation call.
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Kind == GenerationQuota {
		return fmt.Sprintf("generation failed, quota exhausted: %v", e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmbedderMismatch means the pipeline's embedder is not the one that built
// the current knowledge base. Mixing embedding models silently produces
// meaningless similarity scores, so this fails fast instead.
var ErrEmbedderMismatch = errors.New("embedder does not match the one used to build the knowledge base")
