// Package action maps a recognized intent to a deterministic outcome: a
// dialogue act with a structured payload, or a structured error.
package action

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"viki/app/config"
	"viki/app/service/nlu"

	"github.com/samber/do"
)

// timeFormat renders "11:00:00 on Wednesday, June 11, 2025".
const timeFormat = "15:04:05 on Monday, January 2, 2006"

// timezoneTable maps known locations to IANA zones. Order matters: an
// ambiguous substring lookup resolves to the first matching entry.
var timezoneTable = []struct {
	name string
	zone string
}{
	{"paris", "Europe/Paris"},
	{"new york", "America/New_York"},
	{"london", "Europe/London"},
	{"tokyo", "Asia/Tokyo"},
	{"berlin", "Europe/Berlin"},
	{"united states", "America/New_York"},
	{"usa", "America/New_York"},
}

type Service struct {
	assistantName string
	clock         Clock
	loadLocation  func(name string) (*time.Location, error)
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithClock(cfg.Assistant.Name, time.Now), nil
}

// NewWithClock builds a dispatcher with an explicit clock, used by tests.
func NewWithClock(assistantName string, clock Clock) *Service {
	return &Service{
		assistantName: assistantName,
		clock:         clock,
		loadLocation:  time.LoadLocation,
	}
}

// Dispatch executes the action for an intent. The intent may be a plain name
// or a structured value carrying a name; any other shape is a hard failure.
// Dispatch never returns a Go error: failures are structured results.
func (s *Service) Dispatch(intent any, entities map[string]string) Result {
	name, ok := intentName(intent)
	if !ok {
		return failure(CodeInvalidIntentFormat,
			"ActionExecutor received an unparseable intent format.",
			fmt.Sprintf("Intent: %v", intent))
	}

	slog.Debug("Dispatching intent", "intent", name, "entities", entities)

	switch name {
	case "greet":
		return s.greet(entities)
	case "get_name":
		return s.informName()
	case "tell_joke":
		return s.tellJoke()
	case "get_time":
		return s.informTime(entities)
	case "unknown":
		return failure(CodeUnknownIntent,
			"I'm sorry, I don't understand that request.",
			fmt.Sprintf("Received unknown intent. Raw query: '%s'", entities["raw_query"]))
	case "farewell":
		return success(map[string]any{
			"dialogue_act": ActFarewell,
			"message":      "Goodbye! It was nice talking to you.",
		})
	default:
		return failure(CodeUnimplementedAction,
			fmt.Sprintf("I know the intent '%s', but I don't have a specific action implemented for it yet.", name),
			fmt.Sprintf("Intent: %s, Entities: %v", name, entities))
	}
}

func (s *Service) greet(entities map[string]string) Result {
	data := map[string]any{
		"dialogue_act": ActGreet,
		"message":      "Hello!",
		"user_name":    nil,
	}

	if userName := entities["user_name"]; userName != "" {
		data["user_name"] = userName
		data["message"] = fmt.Sprintf("Hello %s!", userName)
	}

	return success(data)
}

func (s *Service) informName() Result {
	return success(map[string]any{
		"dialogue_act": ActInformName,
		"viki_name":    s.assistantName,
		"message":      fmt.Sprintf("My name is %s.", s.assistantName),
	})
}

func (s *Service) tellJoke() Result {
	const punchline = "Why don't scientists trust atoms? Because they make up everything!"

	return success(map[string]any{
		"dialogue_act":   ActTellJoke,
		"joke_punchline": punchline,
		"message":        punchline,
	})
}

func (s *Service) informTime(entities map[string]string) Result {
	location, ok := entities["location"]
	if !ok || location == "" {
		return failure(CodeMissingParameter,
			"Please specify a location to get the time.",
			fmt.Sprintf("Missing 'location' entity for 'get_time' intent. Current UTC: %s",
				s.clock().UTC().Format("15:04:05")+" UTC"))
	}

	localTime, err := s.timeForLocation(location)
	if err != nil {
		return failure(CodeTimeError,
			fmt.Sprintf("I'm not sure about the timezone for '%s'. Can you be more specific?", location),
			fmt.Sprintf("Failed to get time for %s: %v", location, err))
	}

	return success(map[string]any{
		"dialogue_act": ActInformTime,
		"time":         localTime,
		"location":     location,
		"message":      fmt.Sprintf("The current time in %s is %s.", location, localTime),
	})
}

// timeForLocation resolves a city name against the fixed timezone table,
// substring-matching unrecognized keys, and formats the current local time.
func (s *Service) timeForLocation(location string) (string, error) {
	normalized := strings.ToLower(location)

	var timezoneName string
	for _, entry := range timezoneTable {
		if entry.name == normalized {
			timezoneName = entry.zone
			break
		}
	}
	if timezoneName == "" {
		for _, entry := range timezoneTable {
			if strings.Contains(entry.name, normalized) {
				timezoneName = entry.zone
				break
			}
		}
	}

	if timezoneName == "" {
		return "", fmt.Errorf("no timezone mapping for %q", location)
	}

	zone, err := s.loadLocation(timezoneName)
	if err != nil {
		return "", fmt.Errorf("failed to load timezone %q: %w", timezoneName, err)
	}

	return s.clock().UTC().In(zone).Format(timeFormat), nil
}

// intentName normalizes the intent shapes the classifier may hand over:
// a plain string, a typed Intent-like struct, or a decoded JSON object
// carrying a "name" field.
func intentName(intent any) (string, bool) {
	switch value := intent.(type) {
	case string:
		return value, true
	case nlu.Intent:
		return value.Name, true
	case *nlu.Intent:
		return value.Name, true
	case map[string]any:
		name, ok := value["name"].(string)
		return name, ok
	case map[string]string:
		name, ok := value["name"]
		return name, ok
	default:
		return "", false
	}
}

func success(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

func failure(code, message, details string) Result {
	return Result{
		Success: false,
		Err: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
