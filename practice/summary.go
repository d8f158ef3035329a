package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/AnselmPowell/gov-project/ai"
	"github.com/AnselmPowell/gov-project/schema"
)

// summaryLeadChars bounds how much of the first chunk feeds the summary prompt.
const summaryLeadChars = 400

var summarySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"summary": {"type": "string", "description": "2-3 sentence summary about the partner"},
		"sport_name": {"type": "string", "description": "Concise, descriptive title of the partner name"}
	},
	"required": ["summary", "sport_name"]
}`)

type summaryResponse struct {
	Summary   string `json:"summary"`
	SportName string `json:"sport_name"`
}

// Summarizer produces the partner name and synopsis that frame every
// extraction prompt.
type Summarizer struct {
	completer ai.Completer
	logf      func(format string, args ...any)
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(completer ai.Completer) *Summarizer {
	return &Summarizer{completer: completer, logf: log.Printf}
}

// Summarize generates a document summary from the opening text. A failed
// call degrades to a generic summary rather than aborting the pipeline.
func (s *Summarizer) Summarize(ctx context.Context, text string) schema.Summary {
	raw, err := s.completer.Complete(ctx, s.buildPrompt(text), ai.Function{
		Name:       "generate_document_summary",
		Parameters: summarySchema,
	})
	if err != nil {
		s.logf("summary: generation failed, using fallback: %v", err)
		return fallbackSummary()
	}
	var resp summaryResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.SportName == "" {
		s.logf("summary: malformed response, using fallback")
		return fallbackSummary()
	}
	return schema.Summary{PartnerName: resp.SportName, Synopsis: resp.Summary}
}

func fallbackSummary() schema.Summary {
	return schema.Summary{
		PartnerName: "Document Analysis",
		Synopsis:    "Summary unavailable for this partner report.",
	}
}

func (s *Summarizer) buildPrompt(text string) string {
	lead := text
	if runes := []rune(lead); len(runes) > summaryLeadChars {
		lead = string(runes[:summaryLeadChars])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\n\n", governanceContext)
	b.WriteString(`Analyze the following report text (the beginning of a document) and provide:
1. A concise title: the sport name of the partner, e.g. Hockey Wales or Bowls Wales
2. A brief summary of what this document and the partner organization are about
3. Main topics likely covered
4. The type of document (e.g. policy, report, guidelines)

Keep the response concise and focused on governance aspects.

`)
	fmt.Fprintf(&b, "Report Text: %s...", lead)
	return b.String()
}
