package llm

import "testing"

func TestExtractJSONPlain(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	err := ExtractJSON(`{"intent": "question"}`, &out)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if out.Intent != "question" {
		t.Errorf("intent = %q, want %q", out.Intent, "question")
	}
}

func TestExtractJSONWithProse(t *testing.T) {
	var out struct {
		Verified bool `json:"verified"`
	}
	text := "Here is my assessment:\n{\"verified\": true, \"issues\": []}\nLet me know if you need more."
	if err := ExtractJSON(text, &out); err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if !out.Verified {
		t.Error("verified = false, want true")
	}
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	var out struct {
		Keywords []string `json:"keywords"`
	}
	text := "```json\n{\"keywords\": [\"kartel\", \"pokuta\"]}\n```"
	if err := ExtractJSON(text, &out); err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if len(out.Keywords) != 2 {
		t.Errorf("keywords = %v, want 2 entries", out.Keywords)
	}
}

func TestExtractJSONNestedBracesInStrings(t *testing.T) {
	var out struct {
		Summary string `json:"summary"`
	}
	text := `{"summary": "uses {braces} and \"quotes\" inside"}`
	if err := ExtractJSON(text, &out); err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if out.Summary != `uses {braces} and "quotes" inside` {
		t.Errorf("summary = %q", out.Summary)
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	var out map[string]interface{}
	if err := ExtractJSON("no structured data here", &out); err == nil {
		t.Error("expected error for text without JSON")
	}
}
