package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"legislative-ai-assist/config"

	"github.com/google/generative-ai-go/genai"
)

var (
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrEmptyResponse   = errors.New("model returned empty response")
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// Message is one turn of a chat exchange sent to a model.
type Message struct {
	Role    string
	Content string
}

// Result is the outcome of a model call, with token usage for auditing.
type Result struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	Provider     string
	LatencyMS    int64
}

// Client routes model calls to the provider configured for each role.
// Provider clients are created lazily on first use.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client

	mu     sync.Mutex
	genai  *genai.Client
	single singleflight.Group
}

// NewClient creates a model client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type callOptions struct {
	temperature *float64
	maxTokens   *int
	jsonOutput  bool
}

// CallOption overrides per-call model parameters.
type CallOption func(*callOptions)

// WithTemperature overrides the role's default temperature.
func WithTemperature(t float64) CallOption {
	return func(o *callOptions) { o.temperature = &t }
}

// WithMaxTokens overrides the role's default output token limit.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = &n }
}

// WithJSONOutput asks the provider to constrain output to a JSON object.
func WithJSONOutput() CallOption {
	return func(o *callOptions) { o.jsonOutput = true }
}

// Call sends a chat exchange to the model configured for the given role
// and returns the response. Transient provider errors are retried with
// exponential backoff; client errors (400, 401) are not.
func (c *Client) Call(ctx context.Context, role string, system string, messages []Message, opts ...CallOption) (*Result, error) {
	roleCfg, err := c.cfg.Role(role)
	if err != nil {
		return nil, err
	}

	options := callOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	temperature := roleCfg.Temperature
	if options.temperature != nil {
		temperature = *options.temperature
	}
	maxTokens := roleCfg.MaxTokens
	if options.maxTokens != nil {
		maxTokens = *options.maxTokens
	}

	start := time.Now()

	var result *Result
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("Retrying %s call (attempt %d/%d) after error: %v", roleCfg.Provider, attempt+1, maxRetries, err)
			time.Sleep(backoff)
			backoff *= 2
		}

		switch roleCfg.Provider {
		case "openai":
			result, err = c.callOpenAI(ctx, roleCfg, system, messages, temperature, maxTokens, options.jsonOutput)
		case "anthropic":
			result, err = c.callAnthropic(ctx, roleCfg, system, messages, temperature, maxTokens)
		case "google":
			result, err = c.callGoogle(ctx, roleCfg, system, messages, temperature, maxTokens, options.jsonOutput)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, roleCfg.Provider)
		}

		if err == nil {
			break
		}
		// Don't retry on 400 or 401 errors
		if strings.Contains(err.Error(), "status 400") || strings.Contains(err.Error(), "status 401") {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("model call failed after %d attempts: %w", maxRetries, err)
	}

	result.Provider = roleCfg.Provider
	result.LatencyMS = time.Since(start).Milliseconds()
	return result, nil
}
