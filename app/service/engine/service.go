// Package engine runs the interactive turn loop: console input is queued,
// classified, passed through the dialogue policy, dispatched to an action
// when the intent is confident enough, rendered through the response
// generator and delivered back to the console device.
package engine

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"viki/app/config"
	"viki/app/service/action"
	"viki/app/service/convlog"
	"viki/app/service/input"
	"viki/app/service/memory"
	"viki/app/service/nlg"
	"viki/app/service/output"
	"viki/app/service/policy"
	"viki/app/service/queue"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

var exitCommands = []string{"exit", "quit"}

const responseApology = "I'm sorry, I ran into a problem processing that. Please try again."

type Service struct {
	cfg       *config.Config
	inputSvc  *input.Service
	policySvc *policy.Service
	actionSvc *action.Service
	generator nlg.Generator
	outputSvc *output.Service
	memorySvc *memory.Service
	queueSvc  *queue.Service
	log       convlog.Log

	reader  io.Reader
	history *chatHistory

	conversationID uuid.UUID
	sessionDevice  uuid.UUID
}

func New(di *do.Injector) (*Service, error) {
	svc := &Service{
		cfg:            do.MustInvoke[*config.Config](di),
		inputSvc:       do.MustInvoke[*input.Service](di),
		policySvc:      do.MustInvoke[*policy.Service](di),
		actionSvc:      do.MustInvoke[*action.Service](di),
		generator:      do.MustInvoke[nlg.Generator](di),
		outputSvc:      do.MustInvoke[*output.Service](di),
		memorySvc:      do.MustInvoke[*memory.Service](di),
		queueSvc:       do.MustInvoke[*queue.Service](di),
		reader:         os.Stdin,
		history:        &chatHistory{},
		conversationID: uuid.New(),
		sessionDevice:  uuid.New(),
	}

	// The conversation log is best effort: a missing database degrades to an
	// assistant without persistent history, not a startup failure.
	logSvc, err := do.Invoke[*convlog.MongoLog](di)
	if err != nil {
		slog.Warn("Conversation log unavailable, turns will not be persisted", "error", err)
	} else {
		svc.log = logSvc
	}

	return svc, nil
}

// Deps wires the engine with explicit collaborators, used by tests.
type Deps struct {
	Config    *config.Config
	Input     *input.Service
	Policy    *policy.Service
	Action    *action.Service
	Generator nlg.Generator
	Output    *output.Service
	Memory    *memory.Service
	Queue     *queue.Service
	Log       convlog.Log
	Reader    io.Reader
}

func NewWithDeps(deps Deps) *Service {
	return &Service{
		cfg:            deps.Config,
		inputSvc:       deps.Input,
		policySvc:      deps.Policy,
		actionSvc:      deps.Action,
		generator:      deps.Generator,
		outputSvc:      deps.Output,
		memorySvc:      deps.Memory,
		queueSvc:       deps.Queue,
		log:            deps.Log,
		reader:         deps.Reader,
		history:        &chatHistory{},
		conversationID: uuid.New(),
		sessionDevice:  uuid.New(),
	}
}

// Run consumes queued inputs until the context is cancelled, the reader hits
// EOF or the user types an exit command. One turn is processed at a time, so
// the conversation context never sees concurrent writers.
func (s *Service) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.readInput(cancel)

	slog.Info("Assistant ready",
		"conversation_id", s.conversationID,
		"device_id", s.cfg.Assistant.DeviceID,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			start := time.Now()
			s.ProcessTurn(ctx, in.Text)

			slog.Info("Processed turn",
				"text", in.Text,
				"duration", time.Since(start))
		}
	}
}

func (s *Service) readInput(cancel context.CancelFunc) {
	scanner := bufio.NewScanner(s.reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if pie.Contains(exitCommands, strings.ToLower(line)) {
			cancel()
			return
		}

		s.queueSvc.Add(line)
	}

	cancel()
}

// ProcessTurn takes one piece of user text through the full pipeline and
// delivers the reply. Boundary failures degrade to an apology; nothing in
// here takes the loop down.
func (s *Service) ProcessTurn(ctx context.Context, text string) {
	turn := s.inputSvc.ProcessText(ctx, text, s.sessionDevice)

	s.history.add(convlog.SpeakerUser, text)
	s.logTurn(ctx, turn.UserID, convlog.SpeakerUser, text)

	responseText := s.respondTo(ctx, turn)

	result := s.outputSvc.Deliver(s.cfg.Assistant.DeviceID, responseText)
	if !result.Success {
		slog.Error("Failed to deliver response",
			"code", result.Err.Code,
			"message", result.Err.Message)
	}

	s.history.add(convlog.SpeakerAssistant, responseText)
	s.logTurn(ctx, turn.UserID, convlog.SpeakerAssistant, responseText)
}

func (s *Service) respondTo(ctx context.Context, turn *input.Turn) string {
	if turn.Err != "" {
		slog.Warn("Input boundary failed, answering with apology", "error", turn.Err)
		return responseApology
	}

	outcome, err := s.policySvc.ProcessTurn(ctx, policy.Turn{
		TurnID:         uuid.New(),
		ConversationID: s.conversationID,
		UserID:         turn.UserID,
		ProcessedText:  turn.ProcessedText,
		NLU:            turn.NLU,
	})
	if err != nil {
		slog.Error("Dialogue policy failed", "error", err)
		return responseApology
	}

	if !s.shouldDispatch(turn) {
		return outcome.ResponseText
	}

	return s.dispatch(ctx, turn, outcome)
}

// shouldDispatch gates the action dispatcher: greetings and low-confidence
// turns are answered by the policy alone.
func (s *Service) shouldDispatch(turn *input.Turn) bool {
	if turn.NLU == nil {
		return false
	}

	intent := turn.NLU.Intent

	return intent.Confidence >= policy.LowConfidenceThreshold && intent.Name != "greet"
}

func (s *Service) dispatch(ctx context.Context, turn *input.Turn, outcome *policy.Outcome) string {
	result := s.actionSvc.Dispatch(turn.NLU.Intent, turn.NLU.Entities)

	if !result.Success {
		// Recognized intents without a handler fall back to the policy's
		// generic answer.
		if result.Err.Code == action.CodeUnimplementedAction {
			slog.Debug("No action handler, falling back to policy response",
				"intent", turn.NLU.Intent.Name)
			return outcome.ResponseText
		}

		return result.Err.Message
	}

	generated, err := s.generator.Generate(ctx, result.DialogueAct(), result.Data, s.nlgContext(turn.UserID))
	if err != nil {
		slog.Warn("Response generation failed, using dispatcher message", "error", err)

		if message := result.Message(); message != "" {
			return message
		}

		return responseApology
	}

	return generated
}

// nlgContext assembles the conversational context handed to the response
// generator: recent chat history plus whatever facts we remember about the
// user.
func (s *Service) nlgContext(userID uuid.UUID) map[string]any {
	convContext := map[string]any{
		"chat_history": s.history.format(),
	}

	facts, err := s.memorySvc.RetrieveFacts(&userID, nil, 5)
	if err != nil {
		slog.Warn("Failed to retrieve user facts", "error", err)
	} else if len(facts) > 0 {
		convContext["known_facts"] = facts
	}

	return convContext
}

func (s *Service) logTurn(ctx context.Context, userID uuid.UUID, speaker, text string) {
	if s.log == nil {
		return
	}

	err := s.log.LogTurn(ctx, convlog.Turn{
		TurnID:         uuid.New(),
		ConversationID: s.conversationID,
		UserID:         userID,
		Timestamp:      time.Now().UTC(),
		Speaker:        speaker,
		Text:           text,
	})
	if err != nil {
		slog.Warn("Failed to persist conversation turn", "error", err)
	}
}
