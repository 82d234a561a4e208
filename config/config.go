package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration. Model, search, source, and
// prompt settings come from JSON files in the config directory; API keys
// come from environment variables (loaded from .env by the caller).
type Config struct {
	Models  ModelsConfig
	Search  SearchConfig
	Sources SourcesConfig
	Prompts PromptsConfig
}

// RoleConfig maps a logical model role to a concrete provider and model.
type RoleConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ProviderConfig holds per-provider connection settings.
type ProviderConfig struct {
	EnvKey  string `json:"env_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// EmbeddingConfig selects the embedding provider and model.
type EmbeddingConfig struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// ModelsConfig is the contents of models.json.
type ModelsConfig struct {
	Roles     map[string]RoleConfig     `json:"roles"`
	Providers map[string]ProviderConfig `json:"providers"`
	Embedding EmbeddingConfig           `json:"embedding"`
}

// SearchConfig is the contents of search.json.
type SearchConfig struct {
	FinalTopK    int     `json:"final_top_k"`
	VectorWeight float64 `json:"vector_weight"`
	FTSWeight    float64 `json:"fts_weight"`
	RRFK         int     `json:"rrf_k"`
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	CaseLimit    int     `json:"case_limit"`
}

// SourcesConfig is the contents of sources.json - external database endpoints.
type SourcesConfig struct {
	SlovLexBaseURL string `json:"slov_lex_base_url"`
	PMUBaseURL     string `json:"pmu_base_url"`
	NSSUDBaseURL   string `json:"nssud_base_url"`
	EurLexBaseURL  string `json:"eurlex_base_url"`
	ECCasesBaseURL string `json:"ec_cases_base_url"`
	SparqlEndpoint string `json:"sparql_endpoint"`
}

// SystemPrompts holds the base system prompt and per-language suffixes.
type SystemPrompts struct {
	Base           string            `json:"base"`
	LanguageSuffix map[string]string `json:"language_suffix"`
}

// JudgePrompts holds the prompt templates for the 4-step judge pipeline.
type JudgePrompts struct {
	DefineTopic    string            `json:"define_topic"`
	AnalyzeCaseLaw string            `json:"analyze_case_law"`
	ApplyToCase    string            `json:"apply_to_case"`
	LanguageSuffix map[string]string `json:"language_suffix"`
}

// ConversationConfig bounds how much history is replayed to the model.
type ConversationConfig struct {
	MaxHistory int `json:"max_history"`
}

// PromptsConfig is the contents of prompts.json.
type PromptsConfig struct {
	RouterPrompt     string             `json:"router_prompt"`
	VerifyPrompt     string             `json:"verify_prompt"`
	SystemPrompts    SystemPrompts      `json:"system_prompts"`
	GreetingResponse map[string]string  `json:"greeting_response"`
	OfftopicResponse map[string]string  `json:"offtopic_response"`
	Conversation     ConversationConfig `json:"conversation"`
	JudgePrompts     JudgePrompts       `json:"judge_prompts"`
}

// Load reads all JSON config files from dir, falling back to built-in
// defaults for any file that is missing. Passing "" uses defaults only.
func Load(dir string) (*Config, error) {
	cfg := Defaults()

	if dir == "" {
		return cfg, nil
	}

	files := map[string]interface{}{
		"models.json":  &cfg.Models,
		"search.json":  &cfg.Search,
		"sources.json": &cfg.Sources,
		"prompts.json": &cfg.Prompts,
	}

	for name, target := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	return cfg, nil
}

// APIKey returns the value of an environment variable holding an API key.
func (c *Config) APIKey(envVar string) (string, error) {
	val := os.Getenv(envVar)
	if val == "" {
		return "", fmt.Errorf("missing environment variable: %s", envVar)
	}
	return val, nil
}

// Role resolves a logical role name to its model configuration.
func (c *Config) Role(name string) (RoleConfig, error) {
	role, ok := c.Models.Roles[name]
	if !ok {
		return RoleConfig{}, fmt.Errorf("unknown model role: %s", name)
	}
	return role, nil
}

// Fill substitutes {placeholder} markers in a prompt template.
func Fill(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
