// Package input runs raw user text through the intent classification
// boundary and packages the result with turn metadata. Classification
// failures degrade to an unknown-intent turn instead of failing the loop.
package input

import (
	"context"
	"log/slog"
	"time"

	"viki/app/service/nlu"

	"github.com/google/uuid"
	"github.com/samber/do"
)

// Turn is the structured result of processing one piece of user input.
// Success means the classifier produced a meaningful intent; an unknown
// intent or a boundary failure leaves Success false with Message explaining
// why.
type Turn struct {
	Success       bool
	ProcessedText string
	NLU           *nlu.Result
	UserID        uuid.UUID
	DeviceID      string
	Timestamp     time.Time
	Message       string
	Err           string
}

type Service struct {
	classifier nlu.Classifier
	clock      func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		classifier: do.MustInvoke[nlu.Classifier](di),
		clock:      time.Now,
	}, nil
}

// NewWithClassifier wires an explicit classifier, used by tests.
func NewWithClassifier(classifier nlu.Classifier) *Service {
	return &Service{classifier: classifier, clock: time.Now}
}

// ProcessText classifies text from a device. It never panics out of a turn;
// the worst case is an unknown-intent result carrying the failure message.
func (s *Service) ProcessText(ctx context.Context, text string, deviceID uuid.UUID) *Turn {
	userID := s.userIDForDevice(deviceID)
	timestamp := s.clock().UTC()

	slog.Info("Processing text input", "device_id", deviceID, "timestamp", timestamp)

	result, err := s.classifier.Classify(ctx, text)
	if err != nil {
		slog.Error("Classification failed", "error", err)

		return &Turn{
			Success:       false,
			ProcessedText: text,
			NLU:           nlu.UnknownResult(text),
			UserID:        userID,
			DeviceID:      deviceID.String(),
			Timestamp:     timestamp,
			Message:       "Input processing failed due to NLU: " + err.Error(),
			Err:           err.Error(),
		}
	}

	if result.Intent.Name == nlu.IntentUnknown {
		if _, ok := result.Entities["raw_query"]; !ok {
			result.Entities["raw_query"] = text
		}
	}

	return &Turn{
		Success:       result.Intent.Name != nlu.IntentUnknown,
		ProcessedText: text,
		NLU:           result,
		UserID:        userID,
		DeviceID:      deviceID.String(),
		Timestamp:     timestamp,
	}
}

// userIDForDevice maps a device to its user. A 1:1 mapping stands in for a
// real user management service.
func (s *Service) userIDForDevice(deviceID uuid.UUID) uuid.UUID {
	return deviceID
}
