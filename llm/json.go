package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONFound = errors.New("no JSON object found in model output")

// ExtractJSON finds the first complete JSON object or array in model
// output and unmarshals it into target. Models sometimes wrap JSON in
// markdown fences or prose; this strips both.
func ExtractJSON(text string, target interface{}) error {
	raw, err := extractJSONBlock(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), target)
}

func extractJSONBlock(text string) (string, error) {
	// Strip markdown code fences first.
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	}

	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return "", ErrNoJSONFound
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONFound
}
