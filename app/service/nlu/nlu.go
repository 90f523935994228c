// Package nlu is the intent classification boundary: free text in, a named
// intent with a confidence score and flat entities out.
package nlu

import (
	"context"
	"fmt"
	"time"

	"viki/app/util/llmjson"

	"github.com/samber/oops"
)

const (
	// IntentUnknown is returned when the model cannot name an intent.
	IntentUnknown = "unknown"

	maxClassifyDuration = 30 * time.Second

	confidenceRecognized = 0.95
	confidenceUnknown    = 0.2
)

type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type Result struct {
	Intent       Intent            `json:"intent"`
	Entities     map[string]string `json:"entities"`
	OriginalText string            `json:"original_text"`
}

// Classifier is the NLU boundary. Implementations are fallible,
// latency-bearing and non-deterministic; callers get a single attempt.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// UnknownResult is the fallback produced when classification cannot yield a
// usable intent: unknown with zero confidence and no entities.
func UnknownResult(text string) *Result {
	return &Result{
		Intent:       Intent{Name: IntentUnknown, Confidence: 0},
		Entities:     map[string]string{},
		OriginalText: text,
	}
}

// parseModelOutput converts raw model text into a Result. Output that is not
// parseable JSON degrades to the unknown result rather than failing; output
// that parses but lacks the contract keys is a processing error.
func parseModelOutput(raw, originalText string) (*Result, error) {
	parsed, ok := llmjson.Extract(raw)
	if !ok {
		return UnknownResult(originalText), nil
	}

	intentValue, hasIntent := parsed["intent"]
	entitiesValue, hasEntities := parsed["entities"]
	if !hasIntent || !hasEntities {
		return nil, oops.Code("PROCESSING_ERROR").
			Errorf("model response missing 'intent' or 'entities' keys")
	}

	intentName, _ := intentValue.(string)
	if intentName == "" {
		intentName = IntentUnknown
	}

	entities := map[string]string{}
	if entityMap, ok := entitiesValue.(map[string]any); ok {
		for key, value := range entityMap {
			entities[key] = fmt.Sprint(value)
		}
	}

	confidence := confidenceRecognized
	if intentName == IntentUnknown {
		confidence = confidenceUnknown
	}

	return &Result{
		Intent:       Intent{Name: intentName, Confidence: confidence},
		Entities:     entities,
		OriginalText: originalText,
	}, nil
}
