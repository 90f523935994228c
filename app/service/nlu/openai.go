package nlu

import (
	"context"
	"net/http"
	"strings"

	"viki/app/config"

	_ "embed"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

//go:embed classify_prompt_template.txt
var classifyPromptTemplate string

// chatCompleter is the slice of the OpenAI client the classifier needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ Classifier = (*OpenAIClassifier)(nil)

type OpenAIClassifier struct {
	client chatCompleter
	model  string
}

func NewOpenAIClassifier(cfg config.ModelConfig) *OpenAIClassifier {
	clientConfig := openai.DefaultConfig(cfg.Token)

	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: maxClassifyDuration,
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	prompt := strings.ReplaceAll(classifyPromptTemplate, "{text}", text)

	ctx, cancel := context.WithTimeout(ctx, maxClassifyDuration)
	defer cancel()

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: 1000,
			Temperature:         0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, oops.Code("PROCESSING_ERROR").Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return nil, oops.Code("PROCESSING_ERROR").Errorf("no chat completion found")
	}

	return parseModelOutput(aiResponse.Choices[0].Message.Content, text)
}
