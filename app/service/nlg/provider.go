package nlg

import (
	"context"

	"viki/app/config"

	"github.com/samber/oops"
)

// NewGenerator builds the generator named by the model config.
func NewGenerator(ctx context.Context, cfg config.ModelConfig, assistantName string) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIGenerator(cfg, assistantName), nil
	case "gemini":
		return NewGeminiGenerator(ctx, cfg, assistantName)
	default:
		return nil, oops.Errorf("unsupported NLG provider: %s", cfg.Provider)
	}
}
