package nlg

import (
	"context"

	"viki/app/config"

	"github.com/samber/oops"
	"google.golang.org/genai"
)

var _ Generator = (*GeminiGenerator)(nil)

type GeminiGenerator struct {
	client        *genai.Client
	model         string
	assistantName string
}

func NewGeminiGenerator(ctx context.Context, cfg config.ModelConfig, assistantName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Token,
	})
	if err != nil {
		return nil, oops.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client:        client,
		model:         cfg.Model,
		assistantName: assistantName,
	}, nil
}

func (g *GeminiGenerator) Generate(
	ctx context.Context,
	dialogueAct string,
	content map[string]any,
	convContext map[string]any,
) (string, error) {
	prompt := buildPrompt(g.assistantName, dialogueAct, content, convContext)

	ctx, cancel := context.WithTimeout(ctx, maxGenerateDuration)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", oops.Code("GENERATION_ERROR").Errorf("gemini call failed: %w", err)
	}

	return cleanOutput(response.Text())
}
