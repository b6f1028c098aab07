package domain

// RecordKind distinguishes raw text chunks from generated image captions.
type RecordKind string

const (
	KindText  RecordKind = "text"
	KindImage RecordKind = "image"
)

// Record is the atomic unit of indexed knowledge: either a chunk of extracted
// text or the caption of an image. Image records keep the JPEG bytes so the
// caller can display the source image later; the bytes are never used for
// similarity matching.
type Record struct {
	Content   string
	Origin    string
	Kind      RecordKind
	Page      int
	ImageData []byte
}

// SearchResult is a record matched by a similarity search, with its score.
type SearchResult struct {
	Record Record
	Score  float64
}

// Turn is one completed (question, answer) exchange of the conversation.
type Turn struct {
	Question string
	Answer   string
}

// Answer is the result of answering one question. Sources preserve the
// retrieval ranking, most relevant first.
type Answer struct {
	Text    string
	Sources []SearchResult
}
