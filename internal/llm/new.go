package llm

import (
	"fmt"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
)

// New returns the client for the configured provider.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "deepseek":
		return NewDeepSeek(cfg), nil
	case "gemini":
		return NewGemini(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
