package repository

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"legislative-ai-assist/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cost per million tokens (USD), input and output, by model prefix.
// Unknown models are logged with a zero estimate.
var modelCosts = map[string][2]float64{
	"gpt-4o-mini":            {0.15, 0.60},
	"gpt-4o":                 {2.50, 10.00},
	"claude-sonnet":          {3.00, 15.00},
	"claude-haiku":           {0.80, 4.00},
	"gemini-2.0-flash-lite":  {0.075, 0.30},
	"gemini-2.0-flash":       {0.10, 0.40},
	"text-embedding-3-large": {0.13, 0},
}

// AuditRepository records model interactions for cost tracking.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// EstimateCost returns an approximate USD cost for a model interaction.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	for prefix, rates := range modelCosts {
		if strings.HasPrefix(model, prefix) {
			return float64(inputTokens)/1e6*rates[0] + float64(outputTokens)/1e6*rates[1]
		}
	}
	return 0
}

// Log records one model interaction. Audit failures are logged and
// swallowed so they never fail the user-facing request.
func (r *AuditRepository) Log(ctx context.Context, record models.AuditRecord) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CostEstimate == 0 {
		record.CostEstimate = EstimateCost(record.Model, record.InputTokens, record.OutputTokens)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (id, operation, provider, model, input_tokens, output_tokens, cost_estimate, latency_ms, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.Operation, record.Provider, record.Model,
		record.InputTokens, record.OutputTokens, record.CostEstimate, record.LatencyMS,
		metadataJSON(record.Metadata),
	)
	if err != nil {
		log.Printf("Warning: failed to write audit record for %s: %v", record.Operation, err)
	}
}

// metadataJSON encodes operation metadata for the JSONB column. A nil
// map and unencodable values both degrade to an empty object so a bad
// metadata entry never loses the rest of the record.
func metadataJSON(metadata map[string]interface{}) []byte {
	if len(metadata) == 0 {
		return []byte("{}")
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return []byte("{}")
	}
	return encoded
}
