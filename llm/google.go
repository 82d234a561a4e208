package llm

import (
	"context"
	"fmt"

	"legislative-ai-assist/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// googleClient returns the shared genai client, creating it on first
// use. Concurrent first calls share a single initialization.
func (c *Client) googleClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	client := c.genai
	c.mu.Unlock()
	if client != nil {
		return client, nil
	}

	v, err, _ := c.single.Do("genai", func() (interface{}, error) {
		provider := c.cfg.Models.Providers["google"]
		apiKey, err := c.cfg.APIKey(provider.EnvKey)
		if err != nil {
			return nil, err
		}
		created, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		c.mu.Lock()
		c.genai = created
		c.mu.Unlock()
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*genai.Client), nil
}

func (c *Client) callGoogle(ctx context.Context, role config.RoleConfig, system string, messages []Message, temperature float64, maxTokens int, jsonOutput bool) (*Result, error) {
	client, err := c.googleClient(ctx)
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(role.Model)
	model.SetTemperature(float32(temperature))
	model.SetMaxOutputTokens(int32(maxTokens))
	if jsonOutput {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	// The genai SDK takes history plus a final prompt rather than a
	// flat message list.
	parts := make([]genai.Part, 0, len(messages))
	for _, m := range messages {
		prefix := ""
		if m.Role == "assistant" {
			prefix = "Assistant: "
		} else if len(messages) > 1 {
			prefix = "User: "
		}
		parts = append(parts, genai.Text(prefix+m.Content))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("genai generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	result := &Result{Content: text, Model: role.Model}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func (c *Client) embedGoogle(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := c.googleClient(ctx)
	if err != nil {
		return nil, err
	}

	em := client.EmbeddingModel(c.cfg.Models.Embedding.Model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("genai embedding failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		embeddings[i] = e.Values
	}
	return embeddings, nil
}
