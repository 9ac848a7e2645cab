// Package gemini provides an arbiter client backed by the Gemini API.
package gemini

import (
	"context"
	stderrors "errors"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// APIKeyEnvVars are checked in order by APIKeyFromEnv.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Client generates JSON completions with a Gemini model.
type Client struct {
	config Config

	// GenAI client - created on first use and reused afterwards
	genaiClient *genai.Client

	mu sync.Mutex
}

// APIKeyFromEnv returns the first non-empty API key from the environment.
func APIKeyFromEnv() string {
	for _, name := range APIKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// NewClient creates a Client. The API key is required; model and
// temperature fall back to their defaults.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, &errors.AuthenticationError{
			Provider: "gemini",
			Method:   "api_key",
			Message:  "API key required - set GEMINI_API_KEY or GOOGLE_API_KEY",
		}
	}
	if config.Model == "" {
		config.Model = constants.DefaultArbiterModel
	}
	if config.Temperature == 0 {
		config.Temperature = constants.DefaultArbiterTemperature
	}
	return &Client{config: config}, nil
}

// Model returns the model name used for completions.
func (c *Client) Model() string {
	return c.config.Model
}

// Generate sends prompt and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := c.getOrCreateGenAIClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.config.Temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		var apiErr genai.APIError
		if stderrors.As(err, &apiErr) {
			return "", errors.WrapAPI("gemini", apiErr.Code, err)
		}
		return "", errors.WrapAPI("gemini", 0, err)
	}

	text := resp.Text()
	if text == "" {
		return "", &errors.APIError{
			Provider: "gemini",
			Message:  "empty response",
		}
	}
	return text, nil
}

// getOrCreateGenAIClient gets or creates the GenAI client.
func (c *Client) getOrCreateGenAIClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genaiClient != nil {
		return c.genaiClient, nil
	}

	config := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  c.config.APIKey,
	}
	if c.config.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: c.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, &errors.ConfigError{
			Component: "gemini",
			Message:   "failed to create client",
			Err:       err,
		}
	}

	c.genaiClient = client
	return client, nil
}
