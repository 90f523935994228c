package engine

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"viki/app/config"
	"viki/app/service/action"
	"viki/app/service/convlog"
	"viki/app/service/ctxstore"
	"viki/app/service/input"
	"viki/app/service/memory"
	"viki/app/service/nlu"
	"viki/app/service/output"
	"viki/app/service/policy"
	"viki/app/service/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	results map[string]*nlu.Result
	err     error
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (*nlu.Result, error) {
	if f.err != nil {
		return nil, f.err
	}

	if result, ok := f.results[text]; ok {
		return result, nil
	}

	return nlu.UnknownResult(text), nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls int

	lastDialogueAct string
	lastContent     map[string]any
	lastConvContext map[string]any
}

func (f *fakeGenerator) Generate(
	_ context.Context,
	dialogueAct string,
	content map[string]any,
	convContext map[string]any,
) (string, error) {
	f.calls++
	f.lastDialogueAct = dialogueAct
	f.lastContent = content
	f.lastConvContext = convContext

	return f.text, f.err
}

type recordingLog struct {
	turns []convlog.Turn
	err   error
}

func (r *recordingLog) LogTurn(_ context.Context, turn convlog.Turn) error {
	if r.err != nil {
		return r.err
	}

	r.turns = append(r.turns, turn)
	return nil
}

func (r *recordingLog) ConversationTurns(context.Context, uuid.UUID, convlog.Query) ([]convlog.Turn, error) {
	return nil, nil
}

func (r *recordingLog) RecentUserTurns(context.Context, uuid.UUID, int64) ([]convlog.Turn, error) {
	return nil, nil
}

type testHarness struct {
	engine    *Service
	buf       *bytes.Buffer
	generator *fakeGenerator
	log       *recordingLog
	memory    *memory.Service
}

func newTestHarness(t *testing.T, classifier nlu.Classifier, generator *fakeGenerator) *testHarness {
	t.Helper()

	cfg := &config.Config{
		Assistant: config.Assistant{Name: "Viki", DeviceID: "console_default_device"},
	}

	memorySvc, err := memory.NewWithPath(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)

	queueSvc, err := queue.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, queueSvc.Shutdown())
	})

	buf := &bytes.Buffer{}
	logSvc := &recordingLog{}

	engineSvc := NewWithDeps(Deps{
		Config:    cfg,
		Input:     input.NewWithClassifier(classifier),
		Policy:    policy.NewWithStore(ctxstore.NewMemoryStore(), nil),
		Action:    action.NewWithClock("Viki", time.Now),
		Generator: generator,
		Output:    output.NewWithWriter("Viki", "console_default_device", buf),
		Memory:    memorySvc,
		Queue:     queueSvc,
		Log:       logSvc,
		Reader:    strings.NewReader(""),
	})

	return &testHarness{
		engine:    engineSvc,
		buf:       buf,
		generator: generator,
		log:       logSvc,
		memory:    memorySvc,
	}
}

func greetResult(text string) *nlu.Result {
	return &nlu.Result{
		Intent:       nlu.Intent{Name: "greet", Confidence: 0.95},
		Entities:     map[string]string{},
		OriginalText: text,
	}
}

func TestProcessTurn_GreetingAnsweredByPolicy(t *testing.T) {
	h := newTestHarness(t,
		&fakeClassifier{results: map[string]*nlu.Result{"hello": greetResult("hello")}},
		&fakeGenerator{text: "should not be used"},
	)

	h.engine.ProcessTurn(context.Background(), "hello")

	require.Equal(t, "Viki: Hello! How can I help you today?\n", h.buf.String())
	require.Zero(t, h.generator.calls)
}

func TestProcessTurn_ConfidentIntentGoesThroughGenerator(t *testing.T) {
	classifier := &fakeClassifier{results: map[string]*nlu.Result{
		"tell me a joke": {
			Intent:       nlu.Intent{Name: "tell_joke", Confidence: 0.95},
			Entities:     map[string]string{},
			OriginalText: "tell me a joke",
		},
	}}
	generator := &fakeGenerator{text: "Here's one: why don't scientists trust atoms? They make up everything!"}
	h := newTestHarness(t, classifier, generator)

	h.engine.ProcessTurn(context.Background(), "tell me a joke")

	require.Equal(t, 1, generator.calls)
	require.Equal(t, "tell_joke", generator.lastDialogueAct)
	require.Contains(t, generator.lastContent, "joke_punchline")
	require.Contains(t, generator.lastConvContext, "chat_history")
	require.Contains(t, h.buf.String(), "Viki: Here's one:")
}

func TestProcessTurn_GeneratorFailureFallsBackToDispatcherMessage(t *testing.T) {
	classifier := &fakeClassifier{results: map[string]*nlu.Result{
		"what's your name": {
			Intent:       nlu.Intent{Name: "get_name", Confidence: 0.95},
			Entities:     map[string]string{},
			OriginalText: "what's your name",
		},
	}}
	h := newTestHarness(t, classifier, &fakeGenerator{err: errors.New("model timeout")})

	h.engine.ProcessTurn(context.Background(), "what's your name")

	require.Equal(t, "Viki: My name is Viki.\n", h.buf.String())
}

func TestProcessTurn_DispatchErrorBecomesReply(t *testing.T) {
	classifier := &fakeClassifier{results: map[string]*nlu.Result{
		"what time is it": {
			Intent:       nlu.Intent{Name: "get_time", Confidence: 0.95},
			Entities:     map[string]string{},
			OriginalText: "what time is it",
		},
	}}
	generator := &fakeGenerator{text: "should not be used"}
	h := newTestHarness(t, classifier, generator)

	h.engine.ProcessTurn(context.Background(), "what time is it")

	require.Equal(t, "Viki: Please specify a location to get the time.\n", h.buf.String())
	require.Zero(t, generator.calls)
}

func TestProcessTurn_UnimplementedIntentFallsBackToPolicy(t *testing.T) {
	classifier := &fakeClassifier{results: map[string]*nlu.Result{
		"remind me tomorrow": {
			Intent:       nlu.Intent{Name: "set_reminder", Confidence: 0.95},
			Entities:     map[string]string{},
			OriginalText: "remind me tomorrow",
		},
	}}
	h := newTestHarness(t, classifier, &fakeGenerator{text: "should not be used"})

	h.engine.ProcessTurn(context.Background(), "remind me tomorrow")

	require.Equal(t, "Viki: I'm still learning, but I can help with a variety of tasks. What would you like to do?\n", h.buf.String())
}

func TestProcessTurn_UnknownInputAsksClarification(t *testing.T) {
	h := newTestHarness(t, &fakeClassifier{}, &fakeGenerator{text: "should not be used"})

	h.engine.ProcessTurn(context.Background(), "flarp the wizzle")

	require.Equal(t, "Viki: I'm sorry, I didn't quite understand. Could you please rephrase that?\n", h.buf.String())
}

func TestProcessTurn_ClassifierFailureApologizes(t *testing.T) {
	h := newTestHarness(t, &fakeClassifier{err: errors.New("model down")}, &fakeGenerator{})

	h.engine.ProcessTurn(context.Background(), "hello")

	require.Equal(t, "Viki: "+responseApology+"\n", h.buf.String())
}

func TestProcessTurn_LogsBothSpeakers(t *testing.T) {
	h := newTestHarness(t,
		&fakeClassifier{results: map[string]*nlu.Result{"hello": greetResult("hello")}},
		&fakeGenerator{},
	)

	h.engine.ProcessTurn(context.Background(), "hello")

	require.Len(t, h.log.turns, 2)
	require.Equal(t, convlog.SpeakerUser, h.log.turns[0].Speaker)
	require.Equal(t, "hello", h.log.turns[0].Text)
	require.Equal(t, convlog.SpeakerAssistant, h.log.turns[1].Speaker)
	require.Equal(t, "Hello! How can I help you today?", h.log.turns[1].Text)
	require.Equal(t, h.log.turns[0].ConversationID, h.log.turns[1].ConversationID)
}

func TestProcessTurn_LogFailureIsNotFatal(t *testing.T) {
	h := newTestHarness(t,
		&fakeClassifier{results: map[string]*nlu.Result{"hello": greetResult("hello")}},
		&fakeGenerator{},
	)
	h.log.err = errors.New("database down")

	h.engine.ProcessTurn(context.Background(), "hello")

	require.Equal(t, "Viki: Hello! How can I help you today?\n", h.buf.String())
}

func TestProcessTurn_FactsReachGeneratorContext(t *testing.T) {
	classifier := &fakeClassifier{results: map[string]*nlu.Result{
		"tell me a joke": {
			Intent:       nlu.Intent{Name: "tell_joke", Confidence: 0.95},
			Entities:     map[string]string{},
			OriginalText: "tell me a joke",
		},
	}}
	generator := &fakeGenerator{text: "ok"}
	h := newTestHarness(t, classifier, generator)

	_, err := h.memory.StoreFact(h.engine.sessionDevice, memory.Fact{"favorite_color": "blue"}, "")
	require.NoError(t, err)

	h.engine.ProcessTurn(context.Background(), "tell me a joke")

	facts, ok := generator.lastConvContext["known_facts"].([]memory.Fact)
	require.True(t, ok)
	require.Len(t, facts, 1)
	require.Equal(t, "blue", facts[0]["favorite_color"])
}

func TestRun_ExitCommandStopsLoop(t *testing.T) {
	h := newTestHarness(t,
		&fakeClassifier{results: map[string]*nlu.Result{"hello": greetResult("hello")}},
		&fakeGenerator{},
	)
	h.engine.reader = strings.NewReader("hello\nexit\n")

	done := make(chan struct{})
	go func() {
		h.engine.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after exit command")
	}
}
