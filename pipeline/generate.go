package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legislative-ai-assist/config"
	"legislative-ai-assist/llm"
	"legislative-ai-assist/models"
)

const emptyContextNotice = "No relevant documents found in the database."

// GenerateResult is the outcome of generation plus verification.
type GenerateResult struct {
	Response           string
	Sources            []models.SourceInfo
	Confidence         float64
	Verified           bool
	VerificationIssues []string
	Model              string
	Provider           string
	InputTokens        int
	OutputTokens       int
	LatencyMS          int64
}

// Generator produces the final answer from the retrieved evidence and
// verifies it against the sources.
type Generator struct {
	llm   ModelCaller
	audit Auditor
	cfg   *config.Config
}

// NewGenerator creates a generator.
func NewGenerator(caller ModelCaller, audit Auditor, cfg *config.Config) *Generator {
	return &Generator{llm: caller, audit: audit, cfg: cfg}
}

// BuildContext renders the evidence pack for the prompt: numbered
// chunk blocks first, then live court cases, each carrying its
// jurisdiction label. An empty pack yields a fixed notice so the model
// knows nothing was found.
func BuildContext(chunks []models.ScoredChunk, cases []models.ExternalCase) string {
	if len(chunks) == 0 && len(cases) == 0 {
		return emptyContextNotice
	}

	var parts []string
	n := 0
	for _, chunk := range chunks {
		n++
		parts = append(parts, fmt.Sprintf("Source %d %s:\n%s", n, JurisdictionLabel(chunk.Jurisdiction), chunk.Content))
	}
	for _, c := range cases {
		n++
		block := fmt.Sprintf("Source %d %s (court case):\n%s", n, JurisdictionLabel(c.Jurisdiction), c.Title)
		if c.CaseNumber != "" {
			block += fmt.Sprintf("\nCase number: %s", c.CaseNumber)
		}
		if c.Date != "" {
			block += fmt.Sprintf("\nDate: %s", c.Date)
		}
		if c.URL != "" {
			block += fmt.Sprintf("\nURL: %s", c.URL)
		}
		if c.Summary != "" {
			block += fmt.Sprintf("\nSummary: %s", truncateRunes(c.Summary, 400))
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// GenerateAndVerify answers the query from the evidence pack, then
// checks the draft against the sources. Complex queries use the deep
// model; verification always uses the light model and fails open.
func (g *Generator) GenerateAndVerify(ctx context.Context, query string, chunks []models.ScoredChunk, cases []models.ExternalCase, language string, history []models.Message, complexity string) (*GenerateResult, error) {
	contextText := BuildContext(chunks, cases)
	system, messages := g.buildMessages(query, contextText, language, history)

	role := "light"
	if complexity == models.ComplexityComplex {
		role = "deep"
	}

	genResult, err := g.llm.Call(ctx, role, system, messages)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	responseText := genResult.Content

	sources := buildSourceList(chunks, cases)

	// Verification runs only when document chunks back the answer; an
	// answer built purely on live cases or nothing has no stored text
	// to check against.
	verified := true
	var issues []string
	if len(chunks) > 0 {
		var corrected string
		verified, issues, corrected = g.verify(ctx, responseText, chunks)
		if !verified && corrected != "" {
			responseText = corrected
			log.Printf("Response corrected by verification step")
		}
	}

	return &GenerateResult{
		Response:           responseText,
		Sources:            sources,
		Confidence:         Confidence(chunks, cases),
		Verified:           verified,
		VerificationIssues: issues,
		Model:              genResult.Model,
		Provider:           genResult.Provider,
		InputTokens:        genResult.InputTokens,
		OutputTokens:       genResult.OutputTokens,
		LatencyMS:          genResult.LatencyMS,
	}, nil
}

func (g *Generator) buildMessages(query, contextText, language string, history []models.Message) (string, []llm.Message) {
	system := g.cfg.Prompts.SystemPrompts.Base + g.cfg.Prompts.SystemPrompts.LanguageSuffix[language]

	var messages []llm.Message
	maxHistory := g.cfg.Prompts.Conversation.MaxHistory
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: annotateHistoryMessage(msg)})
	}

	// The explicit legal-research framing keeps content filters from
	// rejecting questions about cartels, fines, and abuse conduct.
	userMessage := fmt.Sprintf(
		"[LEGAL ANALYSIS REQUEST - Educational and Professional Purpose]\n\n"+
			"Context from legal documents:\n%s\n\n"+
			"User question: %s\n\n"+
			"Note: This is for legal research, regulatory compliance analysis, and educational purposes "+
			"to understand competition law frameworks, prohibitions, and enforcement mechanisms.\n\n"+
			"Remember: Label every source reference with [EU] or [SK].",
		contextText, query,
	)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	return system, messages
}

// annotateHistoryMessage appends a footnote of previously cited sources
// to replayed assistant turns so follow-up questions can refer back to
// them by name.
func annotateHistoryMessage(msg models.Message) string {
	if msg.Role != "assistant" || len(msg.Sources) == 0 {
		return msg.Content
	}

	var refs []string
	for _, src := range msg.Sources {
		if len(refs) >= 3 {
			break
		}
		ref := src.Reference
		if ref == "" {
			ref = src.Title
		}
		if ref == "" {
			continue
		}
		refs = append(refs, JurisdictionLabel(src.Jurisdiction)+" "+ref)
	}
	if len(refs) == 0 {
		return msg.Content
	}
	return msg.Content + "\n\n[Previously cited: " + strings.Join(refs, "; ") + "]"
}

func buildSourceList(chunks []models.ScoredChunk, cases []models.ExternalCase) []models.SourceInfo {
	sources := make([]models.SourceInfo, 0, len(chunks)+len(cases))
	for _, chunk := range chunks {
		sources = append(sources, models.SourceInfo{
			Type:         models.SourceTypeDocument,
			Title:        chunk.Title,
			Jurisdiction: chunk.Jurisdiction,
			Reference:    chunk.SourceRef,
			Score:        chunk.RRFScore,
			Excerpt:      truncateRunes(chunk.Content, 200),
		})
	}
	for _, c := range cases {
		sources = append(sources, models.SourceInfo{
			Type:         models.SourceTypeCourtCase,
			Title:        c.Title,
			Jurisdiction: c.Jurisdiction,
			Reference:    c.CaseNumber,
			URL:          c.URL,
			Score:        c.RelevanceScore,
			Excerpt:      truncateRunes(c.Summary, 200),
		})
	}
	return sources
}

// Confidence scores the evidence pack in [0, 1]. Chunk fusion scores
// are pooled with case relevance scores scaled down to a comparable
// range, averaged, and clamped. No sources means zero confidence.
func Confidence(chunks []models.ScoredChunk, cases []models.ExternalCase) float64 {
	var scores []float64
	for _, chunk := range chunks {
		scores = append(scores, chunk.RRFScore)
	}
	for _, c := range cases {
		scores = append(scores, c.RelevanceScore/10)
	}
	if len(scores) == 0 {
		return 0.0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	confidence := sum / float64(len(scores)) * 100
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// verify checks the draft against the source chunks with the light
// model. Parse failures accept the draft as-is. The returned verified
// flag reflects the verifier's judgment of the original draft, even
// when a corrected text replaces it.
func (g *Generator) verify(ctx context.Context, responseText string, chunks []models.ScoredChunk) (bool, []string, string) {
	prompt := config.Fill(g.cfg.Prompts.VerifyPrompt, map[string]string{
		"sources":  BuildContext(chunks, nil),
		"response": responseText,
	})

	result, err := g.llm.Call(ctx, "light",
		"You are a legal response verifier for educational legal analysis. Return valid JSON only.",
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithJSONOutput(), llm.WithMaxTokens(500),
	)
	if err != nil {
		log.Printf("Warning: verification call failed, accepting as-is: %v", err)
		return true, nil, ""
	}

	g.audit.Log(ctx, models.AuditRecord{
		Operation:    "verification",
		Provider:     result.Provider,
		Model:        result.Model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		LatencyMS:    result.LatencyMS,
	})

	var verification struct {
		Verified          *bool    `json:"verified"`
		Issues            []string `json:"issues"`
		CorrectedResponse string   `json:"corrected_response"`
	}
	if err := llm.ExtractJSON(result.Content, &verification); err != nil {
		log.Printf("Warning: verification JSON parse failed, accepting as-is")
		return true, nil, ""
	}

	verified := true
	if verification.Verified != nil {
		verified = *verification.Verified
	}
	return verified, verification.Issues, verification.CorrectedResponse
}
