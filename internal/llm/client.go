package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// requestTemperature keeps generation near-greedy so repeated runs over
// the same posting stay comparable.
const requestTemperature = 0.1

// Client runs prompts against the configured model tiers.
type Client interface {
	// GenerateContent runs a prompt and returns the raw text reply.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON runs a prompt in JSON mode and returns the reply with
	// any markdown fencing stripped.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel reports which underlying model serves a tier.
	GetModel(tier ModelTier) string
	// Close releases the underlying API connection.
	Close() error
}

// NewClient builds the Gemini-backed Client. A nil config gets the
// default tier mapping.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return NewGeminiClient(ctx, config, apiKey)
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient connects to the Gemini API with the given key.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &APIError{Kind: KindAuth, Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, wrapAPIError("failed to create Gemini client", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

// generativeModel builds the handle for one call on a tier's model.
func (c *GeminiClient) generativeModel(tier ModelTier, jsonMode bool) (*genai.GenerativeModel, error) {
	name := c.config.GetModel(tier)
	if name == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(name)
	model.SetTemperature(requestTemperature)
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}
	return model, nil
}

// GenerateContent runs a prompt and returns the reply text.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.generativeModel(tier, false)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapAPIError("failed to generate content", err)
	}
	return extractTextFromResponse(resp)
}

// GenerateJSON runs a prompt in JSON mode. Models wrap JSON in markdown
// fences even in JSON mode, so the reply goes through CleanJSONBlock.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.generativeModel(tier, true)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapAPIError("failed to generate content", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel reports which model serves a tier.
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse pulls the text parts out of a Gemini response.
// A blocked prompt or an empty candidate list is a content rejection,
// not a transient fault.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &APIError{
			Kind:    KindContentRejected,
			Message: fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}
	if len(resp.Candidates) == 0 {
		return "", &APIError{Kind: KindContentRejected, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &APIError{Kind: KindContentRejected, Message: "candidate blocked for safety"}
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &APIError{Kind: KindContentRejected, Message: "no content in response"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", &APIError{Kind: KindContentRejected, Message: "no text parts in response"}
	}
	return sb.String(), nil
}
