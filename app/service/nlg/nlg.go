// Package nlg is the response generation boundary: a dialogue act plus
// structured content in, natural-language text out.
package nlg

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	_ "embed"

	"github.com/samber/oops"
)

const maxGenerateDuration = 30 * time.Second

//go:embed generate_prompt_template.txt
var generatePromptTemplate string

// Generator is the NLG boundary. A single attempt per call; failures surface
// immediately.
type Generator interface {
	Generate(ctx context.Context, dialogueAct string, content map[string]any, convContext map[string]any) (string, error)
}

func buildPrompt(assistantName, dialogueAct string, content, convContext map[string]any) string {
	contentJSON, _ := json.Marshal(content)
	contextJSON, _ := json.Marshal(convContext)

	templateValues := map[string]string{
		"assistant_name":       assistantName,
		"dialogue_act":         dialogueAct,
		"response_content":     string(contentJSON),
		"conversation_context": string(contextJSON),
	}

	prompt := generatePromptTemplate
	for key, value := range templateValues {
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", value)
	}

	return prompt
}

// cleanOutput strips whitespace and the "Response:" prefix some models
// prepend. Empty output after cleanup is a generation error.
func cleanOutput(raw string) (string, error) {
	result := strings.TrimSpace(raw)
	result = strings.TrimPrefix(result, "Response:")
	result = strings.TrimSpace(result)

	if result == "" {
		return "", oops.Code("GENERATION_ERROR").
			Errorf("generated response text was empty after processing")
	}

	return result, nil
}
