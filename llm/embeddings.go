package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoEmbeddableInput = errors.New("no non-empty inputs to embed")

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds a batch of texts. Blank inputs are filtered out
// before the provider call; the result is aligned to the filtered set.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	filtered := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoEmbeddableInput
	}

	switch c.cfg.Models.Embedding.Provider {
	case "openai":
		return c.embedOpenAI(ctx, filtered)
	case "google":
		return c.embedGoogle(ctx, filtered)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, c.cfg.Models.Embedding.Provider)
	}
}
