package nlu

import (
	"context"
	"strings"

	"viki/app/config"

	"github.com/samber/oops"
	"google.golang.org/genai"
)

var _ Classifier = (*GeminiClassifier)(nil)

type GeminiClassifier struct {
	client *genai.Client
	model  string
}

func NewGeminiClassifier(ctx context.Context, cfg config.ModelConfig) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Token,
	})
	if err != nil {
		return nil, oops.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClassifier{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (c *GeminiClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	prompt := strings.ReplaceAll(classifyPromptTemplate, "{text}", text)

	ctx, cancel := context.WithTimeout(ctx, maxClassifyDuration)
	defer cancel()

	response, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return nil, oops.Code("PROCESSING_ERROR").Errorf("gemini call failed: %w", err)
	}

	raw := response.Text()
	if raw == "" {
		return nil, oops.Code("PROCESSING_ERROR").Errorf("gemini returned an empty response")
	}

	return parseModelOutput(raw, text)
}
