package nlu

import (
	"context"

	"viki/app/config"

	"github.com/samber/oops"
)

// NewClassifier builds the classifier named by the model config.
func NewClassifier(ctx context.Context, cfg config.ModelConfig) (Classifier, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClassifier(cfg), nil
	case "gemini":
		return NewGeminiClassifier(ctx, cfg)
	default:
		return nil, oops.Errorf("unsupported NLU provider: %s", cfg.Provider)
	}
}
