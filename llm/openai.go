package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"legislative-ai-assist/config"
)

func (c *Client) callOpenAI(ctx context.Context, role config.RoleConfig, system string, messages []Message, temperature float64, maxTokens int, jsonOutput bool) (*Result, error) {
	provider := c.cfg.Models.Providers["openai"]
	apiKey, err := c.cfg.APIKey(provider.EnvKey)
	if err != nil {
		return nil, err
	}

	apiMessages := make([]map[string]string, 0, len(messages)+1)
	if system != "" {
		apiMessages = append(apiMessages, map[string]string{"role": "system", "content": system})
	}
	for _, m := range messages {
		apiMessages = append(apiMessages, map[string]string{"role": m.Role, "content": m.Content})
	}

	reqBody := map[string]interface{}{
		"model":       role.Model,
		"messages":    apiMessages,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
	if jsonOutput {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", provider.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error: status %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	return &Result{
		Content:      apiResp.Choices[0].Message.Content,
		InputTokens:  apiResp.Usage.PromptTokens,
		OutputTokens: apiResp.Usage.CompletionTokens,
		Model:        role.Model,
	}, nil
}

func (c *Client) embedOpenAI(ctx context.Context, texts []string) ([][]float32, error) {
	provider := c.cfg.Models.Providers["openai"]
	apiKey, err := c.cfg.APIKey(provider.EnvKey)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model": c.cfg.Models.Embedding.Model,
		"input": texts,
	}
	if c.cfg.Models.Embedding.Dimensions > 0 {
		reqBody["dimensions"] = c.cfg.Models.Embedding.Dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", provider.BaseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embeddings error: status %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings count mismatch: got %d, want %d", len(apiResp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range apiResp.Data {
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
