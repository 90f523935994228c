package action

import "time"

// Dialogue acts produced by the dispatcher.
const (
	ActGreet         = "greet"
	ActInformName    = "inform_name"
	ActTellJoke      = "tell_joke"
	ActInformTime    = "inform_time"
	ActUnknownIntent = "unknown_intent_response"
	ActFarewell      = "farewell"
)

// Error codes carried in structured dispatch failures.
const (
	CodeMissingParameter    = "MISSING_PARAMETER"
	CodeUnknownIntent       = "UNKNOWN_INTENT"
	CodeUnimplementedAction = "UNIMPLEMENTED_ACTION"
	CodeInvalidIntentFormat = "INVALID_INTENT_FORMAT"
	CodeTimeError           = "TIME_ERROR"
)

// Error is a structured dispatch failure. Dispatch never raises; every
// failure comes back as one of these.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Result is the outcome of dispatching one intent. On success Data carries
// the dialogue act plus the payload the response generator needs, including a
// ready-made "message"; on failure Err is set and Data is nil.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"result_data"`
	Err     *Error         `json:"error"`
}

// DialogueAct returns the dialogue act tag on success, empty otherwise.
func (r Result) DialogueAct() string {
	if r.Data == nil {
		return ""
	}

	act, _ := r.Data["dialogue_act"].(string)
	return act
}

// Message returns the human-readable message of a successful dispatch.
func (r Result) Message() string {
	if r.Data == nil {
		return ""
	}

	message, _ := r.Data["message"].(string)
	return message
}

// Clock supplies wall-clock time; injectable for tests.
type Clock func() time.Time
