package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
)

// geminiClient is the alternative provider. It rotates through multiple
// API keys when a key is rate limited or out of quota.
type geminiClient struct {
	apiKeys    []string
	currentKey int
	model      string
}

var _ Client = (*geminiClient)(nil)

// NewGemini builds a Gemini client that rotates through the supplied API
// keys.
func NewGemini(cfg config.LLMConfig) (Client, error) {
	if len(cfg.GeminiAPIKeys) == 0 {
		return nil, fmt.Errorf("gemini provider requires at least one API key")
	}
	return &geminiClient{
		apiKeys: cfg.GeminiAPIKeys,
		model:   cfg.GeminiModel,
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := len(c.apiKeys)
	var lastErr error

	for range attempts {
		key := c.apiKeys[c.currentKey]

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			c.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				c.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			return text.String(), nil
		}

		return "", fmt.Errorf("empty response from gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (c *geminiClient) rotateKey() {
	c.currentKey = (c.currentKey + 1) % len(c.apiKeys)
}
