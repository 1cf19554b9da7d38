package jarvis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jarvis/internal/intent"
	"jarvis/internal/metrics"
)

const (
	startup = "JARVIS está activo y listo para ayudarte"
	goodbye = "JARVIS se está cerrando. Hasta luego!"
)

func newTestOrchestrator(tr Transcriber, opts ...Option) (*Orchestrator, *recordingSynth, *recordingActuator) {
	synth := &recordingSynth{}
	act := &recordingActuator{result: true}

	settings := DefaultSettings()
	settings.ListenBackoff = time.Millisecond

	base := []Option{WithTranscriber(tr), WithSynthesizer(synth), WithActuator(act)}
	return New(settings, append(base, opts...)...), synth, act
}

func TestHandleUtterance_OpenApplication(t *testing.T) {
	o, synth, act := newTestOrchestrator(nil)

	resp := o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis abrir chrome", Confidence: 0.8})

	assert.Equal(t, "Abriendo chrome", resp.Text)
	assert.Equal(t, 1, resp.Priority)
	require.Len(t, act.Actions(), 1)
	got := act.Actions()[0]
	assert.Equal(t, "open_application", got.Type())
	assert.Equal(t, "chrome", got.Target)
	// HandleUtterance does not speak by itself
	assert.Empty(t, synth.Spoken())
}

func TestHandleUtterance_NoActionKinds(t *testing.T) {
	o, _, act := newTestOrchestrator(nil)
	ctx := context.Background()

	assert.Equal(t, "Aquí tienes la información", o.HandleUtterance(ctx, intent.Utterance{Text: "jarvis qué hora es"}).Text)
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", o.HandleUtterance(ctx, intent.Utterance{Text: "jarvis"}).Text)
	assert.Equal(t, "Hasta luego, que tengas un buen día", o.HandleUtterance(ctx, intent.Utterance{Text: "jarvis salir"}).Text)
	assert.Empty(t, act.Actions())
}

func TestHandleUtterance_Idempotent(t *testing.T) {
	o, _, _ := newTestOrchestrator(nil)
	u := intent.Utterance{Text: "jarvis buscar el clima en madrid", Confidence: 0.9}

	first := o.HandleUtterance(context.Background(), u)
	second := o.HandleUtterance(context.Background(), u)

	assert.Equal(t, "Buscando el clima en madrid", first.Text)
	assert.Equal(t, first.Text, second.Text)
}

func TestHandleUtterance_ActuatorFailureIsNotFatal(t *testing.T) {
	o, _, act := newTestOrchestrator(nil)
	act.result = false
	failed := metrics.ActionsTotal.WithLabelValues("media_control", "failed")
	before := testutil.ToFloat64(failed)

	resp := o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis pausar"})

	assert.Equal(t, "Control de medios ejecutado", resp.Text)
	assert.Len(t, act.Actions(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestHandleUtterance_WithoutActuator(t *testing.T) {
	o := New(DefaultSettings())
	resp := o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis abrir spotify"})
	assert.Equal(t, "Abriendo spotify", resp.Text)
}

func TestHandleUtterance_RendererFillsAudio(t *testing.T) {
	synth := &renderingSynth{}
	o := New(DefaultSettings(), WithSynthesizer(synth))

	resp := o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis abrir chrome"})
	assert.Equal(t, []byte("audio:Abriendo chrome"), resp.Audio)
}

func TestHandleUtterance_CountsDisagreement(t *testing.T) {
	o, _, _ := newTestOrchestrator(nil)
	before := testutil.ToFloat64(metrics.ClassifierDisagreementsTotal)

	// pattern strategy says SystemControl, keyword strategy says Greeting
	o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis apagar computadora"})

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClassifierDisagreementsTotal))
}

func TestHandleUtterance_CustomClassifier(t *testing.T) {
	o, _, act := newTestOrchestrator(nil,
		WithClassifier(intent.DefaultPatternClassifier()),
		WithObserver(nil),
	)

	resp := o.HandleUtterance(context.Background(), intent.Utterance{Text: "jarvis lanzar steam"})

	assert.Equal(t, "Abriendo steam", resp.Text)
	require.Len(t, act.Actions(), 1)
	assert.Equal(t, "steam", act.Actions()[0].Target)
}

func TestRun_OpenApplicationScenario(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	o, synth, act := newTestOrchestrator(say("jarvis abrir chrome"))

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{startup, "Abriendo chrome", goodbye}, synth.Spoken())
	require.Len(t, act.Actions(), 1)
	assert.Equal(t, intent.Action{
		Kind:       intent.OpenApplication,
		Target:     "chrome",
		Parameters: map[string]any{intent.ParamMatch: "abrir chrome"},
	}, act.Actions()[0])
	assert.Equal(t, Terminated, o.State())
}

func TestRun_ExitScenario(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := say("jarvis adiós", "jarvis abrir chrome")
	o, synth, act := newTestOrchestrator(tr)

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{startup, "Hasta luego, que tengas un buen día", goodbye}, synth.Spoken())
	assert.Empty(t, act.Actions())
	assert.Equal(t, 1, tr.calls, "loop must stop listening after exit")
	assert.Equal(t, Terminated, o.State())
}

func TestRun_NoWakeWordIsIgnored(t *testing.T) {
	o, synth, act := newTestOrchestrator(say("abrir chrome", "qué tal el clima"))
	ignored := metrics.TurnsTotal.WithLabelValues("ignored")
	before := testutil.ToFloat64(ignored)

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{startup, goodbye}, synth.Spoken())
	assert.Empty(t, act.Actions())
	assert.Equal(t, before+2, testutil.ToFloat64(ignored))
}

func TestRun_DirectGreeting(t *testing.T) {
	settings := DefaultSettings()
	settings.WakeWord = "viernes"
	synth := &recordingSynth{}
	act := &recordingActuator{result: true}

	o := New(settings,
		WithTranscriber(say("hey jarvis", "Hola Jarvis abrir chrome")),
		WithSynthesizer(synth),
		WithActuator(act),
	)

	require.NoError(t, o.Run(context.Background()))

	greeting := "Hola, ¿en qué puedo ayudarte?"
	assert.Equal(t, []string{startup, greeting, greeting, goodbye}, synth.Spoken())
	assert.Empty(t, act.Actions(), "greetings never run the pipeline")
}

func TestRun_SkipsSilenceAndErrors(t *testing.T) {
	tr := &scriptedTranscriber{script: []heard{
		{err: ErrNoSpeech},
		{err: errors.New("microphone busy")},
		{text: "jarvis subir volumen"},
	}}
	o, synth, act := newTestOrchestrator(tr)

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, []string{startup, "Ejecutando comando de sistema", goodbye}, synth.Spoken())
	require.Len(t, act.Actions(), 1)
	assert.Equal(t, "subir", act.Actions()[0].Target)
	assert.Equal(t, 4, tr.calls)
}

func TestRun_SynthesizerFailureIsNotFatal(t *testing.T) {
	o, synth, _ := newTestOrchestrator(say("jarvis abrir chrome"))
	synth.fail = true
	before := testutil.ToFloat64(metrics.SpeakFailuresTotal)

	require.NoError(t, o.Run(context.Background()))

	assert.Len(t, synth.Spoken(), 3)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.SpeakFailuresTotal))
}

func TestRun_CancelStillSaysGoodbye(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := newBlockingTranscriber()
	o, synth, _ := newTestOrchestrator(tr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	<-tr.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, []string{startup, goodbye}, synth.Spoken())
	// the farewell runs on a context detached from the cancelled one
	assert.NoError(t, synth.ctxErr[1])
}

func TestRun_Stop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := newBlockingTranscriber()
	o, synth, _ := newTestOrchestrator(tr)

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	<-tr.started
	o.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	assert.Equal(t, []string{startup, goodbye}, synth.Spoken())
	assert.Equal(t, Terminated, o.State())
}

func TestRun_RequiresTranscriber(t *testing.T) {
	o := New(DefaultSettings())
	assert.Error(t, o.Run(context.Background()))
}

func TestRun_OnlyOnce(t *testing.T) {
	o, synth, _ := newTestOrchestrator(say())

	require.NoError(t, o.Run(context.Background()))
	assert.ErrorIs(t, o.Run(context.Background()), ErrAlreadyStarted)
	assert.Equal(t, []string{startup, goodbye}, synth.Spoken())
}

func TestTurn_AfterTerminationIsIgnored(t *testing.T) {
	o, synth, _ := newTestOrchestrator(nil)

	_, outcome := o.Turn(context.Background(), intent.Utterance{Text: "jarvis salir"})
	assert.Equal(t, Exited, outcome)

	resp, outcome := o.Turn(context.Background(), intent.Utterance{Text: "jarvis abrir chrome"})
	assert.Equal(t, Ignored, outcome)
	assert.Empty(t, resp.Text)
	assert.Equal(t, []string{"Hasta luego, que tengas un buen día"}, synth.Spoken())
}

func TestTurn_WakeCue(t *testing.T) {
	cues := 0
	o, _, _ := newTestOrchestrator(nil, WithWakeCue(func() { cues++ }))

	o.Turn(context.Background(), intent.Utterance{Text: "jarvis pausar"})
	o.Turn(context.Background(), intent.Utterance{Text: "pausar"})

	assert.Equal(t, 1, cues)
}

func TestTurn_WakeWordIsCaseInsensitive(t *testing.T) {
	settings := DefaultSettings()
	settings.WakeWord = "  JARVIS "
	o := New(settings, WithSynthesizer(&recordingSynth{}))

	_, outcome := o.Turn(context.Background(), intent.Utterance{Text: "Jarvis, pausar"})
	assert.Equal(t, Handled, outcome)
}

func TestRun_ExitTurnFromOutsideEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := newBlockingTranscriber()
	o, synth, _ := newTestOrchestrator(tr)

	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	<-tr.started
	_, outcome := o.Turn(context.Background(), intent.Utterance{Text: "jarvis adiós"})
	assert.Equal(t, Exited, outcome)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run still listening after an exit turn")
	}

	assert.Equal(t, []string{startup, "Hasta luego, que tengas un buen día", goodbye}, synth.Spoken())
	assert.Equal(t, Terminated, o.State())
}

func TestRun_StoppedBeforeStart(t *testing.T) {
	o, synth, _ := newTestOrchestrator(say("jarvis abrir chrome"))
	o.Stop()

	assert.ErrorIs(t, o.Run(context.Background()), ErrStopped)
	assert.ErrorIs(t, o.Run(context.Background()), ErrAlreadyStarted)
	assert.Empty(t, synth.Spoken())
}
