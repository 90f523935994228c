package nlg

import (
	"context"
	"net/http"

	"viki/app/config"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ Generator = (*OpenAIGenerator)(nil)

type OpenAIGenerator struct {
	client        chatCompleter
	model         string
	assistantName string
}

func NewOpenAIGenerator(cfg config.ModelConfig, assistantName string) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.Token)

	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxGenerateDuration,
	}

	return &OpenAIGenerator{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         cfg.Model,
		assistantName: assistantName,
	}
}

func (g *OpenAIGenerator) Generate(
	ctx context.Context,
	dialogueAct string,
	content map[string]any,
	convContext map[string]any,
) (string, error) {
	prompt := buildPrompt(g.assistantName, dialogueAct, content, convContext)

	ctx, cancel := context.WithTimeout(ctx, maxGenerateDuration)
	defer cancel()

	aiResponse, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: 500,
			Temperature:         1,
		},
	)
	if err != nil {
		return "", oops.Code("GENERATION_ERROR").Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", oops.Code("GENERATION_ERROR").Errorf("no chat completion found")
	}

	return cleanOutput(aiResponse.Choices[0].Message.Content)
}
