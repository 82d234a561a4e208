package repository

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMetadataJSON(t *testing.T) {
	if got := string(metadataJSON(nil)); got != "{}" {
		t.Errorf("nil metadata = %s, want {}", got)
	}

	encoded := metadataJSON(map[string]interface{}{
		"intent":      "question",
		"complexity":  "complex",
		"chunks_used": 8,
		"verified":    true,
	})
	var decoded map[string]interface{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if decoded["intent"] != "question" || decoded["verified"] != true {
		t.Errorf("decoded metadata = %v", decoded)
	}
	if decoded["chunks_used"].(float64) != 8 {
		t.Errorf("chunks_used = %v", decoded["chunks_used"])
	}

	// Unencodable values degrade to an empty object instead of losing
	// the audit record.
	if got := string(metadataJSON(map[string]interface{}{"bad": math.NaN()})); got != "{}" {
		t.Errorf("unencodable metadata = %s, want {}", got)
	}
}

func TestEstimateCost(t *testing.T) {
	// claude-haiku: $0.80 in, $4.00 out per million tokens.
	got := EstimateCost("claude-haiku-latest", 1_000_000, 1_000_000)
	if math.Abs(got-4.80) > 1e-9 {
		t.Errorf("cost = %v, want 4.80", got)
	}

	if got := EstimateCost("unknown-model", 1000, 1000); got != 0 {
		t.Errorf("unknown model cost = %v, want 0", got)
	}
}
