package nlg

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_SubstitutesAllPlaceholders(t *testing.T) {
	prompt := buildPrompt("Viki", "inform_time",
		map[string]any{"time": "11:00:00", "location": "London"},
		map[string]any{"chat_history": "No recent messages"},
	)

	require.Contains(t, prompt, "Viki")
	require.Contains(t, prompt, "inform_time")
	require.Contains(t, prompt, `"location":"London"`)
	require.Contains(t, prompt, "No recent messages")
	require.NotContains(t, prompt, "{assistant_name}")
	require.NotContains(t, prompt, "{dialogue_act}")
	require.NotContains(t, prompt, "{response_content}")
	require.NotContains(t, prompt, "{conversation_context}")
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "Hello there!", want: "Hello there!"},
		{name: "whitespace", raw: "  Hello there!\n", want: "Hello there!"},
		{name: "response prefix", raw: "Response: Hello there!", want: "Hello there!"},
		{name: "prefix then whitespace", raw: "Response:   Hello there!", want: "Hello there!"},
		{name: "prefix without space", raw: "Response:Hello there!", want: "Hello there!"},
		{name: "empty", raw: "", wantErr: true},
		{name: "only prefix", raw: "Response: ", wantErr: true},
		{name: "only prefix no trailing space", raw: "Response:", wantErr: true},
		{name: "only whitespace", raw: "   \n\t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanOutput(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

type fakeChatCompleter struct {
	content string
	err     error

	lastRequest openai.ChatCompletionRequest
}

func (f *fakeChatCompleter) CreateChatCompletion(
	_ context.Context,
	req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	f.lastRequest = req

	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestOpenAIGenerate_Success(t *testing.T) {
	fake := &fakeChatCompleter{content: "Response: The current time in London is 11:00:00."}
	generator := &OpenAIGenerator{client: fake, model: "gpt-4o-mini", assistantName: "Viki"}

	text, err := generator.Generate(context.Background(), "inform_time",
		map[string]any{"time": "11:00:00", "location": "London"},
		map[string]any{},
	)
	require.NoError(t, err)
	require.Equal(t, "The current time in London is 11:00:00.", text)

	require.Equal(t, "gpt-4o-mini", fake.lastRequest.Model)
	require.Contains(t, fake.lastRequest.Messages[0].Content, "inform_time")
}

func TestOpenAIGenerate_ClientError(t *testing.T) {
	generator := &OpenAIGenerator{
		client:        &fakeChatCompleter{err: errors.New("rate limited")},
		model:         "gpt-4o-mini",
		assistantName: "Viki",
	}

	_, err := generator.Generate(context.Background(), "greet", map[string]any{}, map[string]any{})
	require.Error(t, err)
}

func TestOpenAIGenerate_EmptyOutput(t *testing.T) {
	generator := &OpenAIGenerator{
		client:        &fakeChatCompleter{content: "   "},
		model:         "gpt-4o-mini",
		assistantName: "Viki",
	}

	_, err := generator.Generate(context.Background(), "greet", map[string]any{}, map[string]any{})
	require.Error(t, err)
}
