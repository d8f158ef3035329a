package schema

import "time"

// Status tracks a document through its processing lifecycle.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Document holds governance document metadata and processing state.
// The orchestrator owns the record while status is PROCESSING; the
// terminal status is written exactly once.
type Document struct {
	ID           string
	FileID       string
	FileName     string
	URL          string
	MimeType     string
	FileSize     int64
	TotalPages   int
	Status       Status
	ErrorMessage string
	UploadedAt   time.Time
	Duration     time.Duration
}

// Page is an ephemeral (text, 1-based page number) pair produced by page
// extraction and consumed immediately by chunking.
type Page struct {
	Text   string
	Number int
}

// Chunk is an immutable overlapping window of a page's text.
// Within a document chunks are totally ordered by (PageNumber, Position).
type Chunk struct {
	ID             string
	DocumentID     string
	Text           string
	PageNumber     int
	Position       int
	Size           int
	WordCount      int
	ProcessingTime time.Duration
}

// Finding is a best practice or concern extracted from a chunk.
// Themes, Keywords and AnalysisTime are set by theme classification,
// Embedding by vector storage; everything else is immutable after creation.
type Finding struct {
	ID             string
	DocumentID     string
	Text           string
	Context        string
	Impact         string
	Themes         []string
	Keywords       []string
	IsBestPractice bool
	Confidence     float64
	PageNumber     int
	ExtractionTime time.Duration
	AnalysisTime   time.Duration
	Embedding      []float32
	CreatedAt      time.Time
}

// Summary is the document-level framing generated from the first chunk
// and injected into every extraction prompt.
type Summary struct {
	PartnerName string
	Synopsis    string
}

// ProcessingLog is an append-only record of one pipeline stage outcome.
type ProcessingLog struct {
	DocumentID string
	Stage      string
	Status     string
	Message    string
	Duration   time.Duration
	Timestamp  time.Time
}
