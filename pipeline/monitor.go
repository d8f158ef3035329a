package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/AnselmPowell/gov-project/schema"
	"github.com/AnselmPowell/gov-project/store"
)

// Pipeline stage names recorded against processing logs.
const (
	StageParse     = "parse"
	StageChunk     = "chunk"
	StageExtract   = "extract"
	StageAnalyze   = "analyze"
	StageVectorize = "vectorize"
)

// Monitor records per-stage outcomes as append-only processing logs.
// Log persistence failures are reported through logf, never to callers.
type Monitor struct {
	docs store.DocStore
	logf func(format string, args ...any)
}

// NewMonitor creates a Monitor writing to docs.
func NewMonitor(docs store.DocStore, logf func(format string, args ...any)) *Monitor {
	if logf == nil {
		logf = log.Printf
	}
	return &Monitor{docs: docs, logf: logf}
}

// Record captures one stage outcome. A nil stageErr records a completed
// stage; otherwise the failure message is preserved.
func (m *Monitor) Record(ctx context.Context, documentID, stage string, started time.Time, stageErr error) {
	entry := &schema.ProcessingLog{
		DocumentID: documentID,
		Stage:      stage,
		Status:     "completed",
		Duration:   time.Since(started),
		Timestamp:  time.Now(),
	}
	if stageErr != nil {
		entry.Status = "failed"
		entry.Message = stageErr.Error()
	}
	if err := m.docs.AppendLog(ctx, entry); err != nil {
		m.logf("pipeline: append %s log for %s: %v", stage, documentID, err)
	}
	m.logf("pipeline: %s %s stage=%s in %v", documentID, entry.Status, stage, entry.Duration)
}
