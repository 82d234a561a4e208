package models

import "time"

// AuditRecord captures one model interaction for cost tracking.
// Metadata carries operation-specific context, e.g. the routed intent
// and chunk count for a chat turn.
type AuditRecord struct {
	ID           string                 `json:"id"`
	Operation    string                 `json:"operation"`
	Provider     string                 `json:"provider"`
	Model        string                 `json:"model"`
	InputTokens  int                    `json:"input_tokens"`
	OutputTokens int                    `json:"output_tokens"`
	CostEstimate float64                `json:"cost_estimate"`
	LatencyMS    int64                  `json:"latency_ms"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
