package jarvis

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	log "log/slog"

	"github.com/google/uuid"

	"jarvis/internal/intent"
	"jarvis/internal/metrics"
)

// State of the conversation session.
type State int

const (
	Idle State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome of a single heard utterance.
type Outcome int

const (
	Ignored Outcome = iota
	Greeted
	Handled
	Exited
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Greeted:
		return "greeting"
	case Handled:
		return "pipeline"
	case Exited:
		return "exit"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted = errors.New("orchestrator already started")
	// ErrStopped is returned by Run when Stop was called before it.
	ErrStopped = errors.New("orchestrator stopped before start")
)

type Settings struct {
	WakeWord        string
	ExitKeywords    []string
	GreetingPhrases []string

	StartupMessage  string
	GreetingMessage string
	GoodbyeMessage  string

	// GoodbyeTimeout bounds the farewell, which runs even after the run
	// context was cancelled.
	GoodbyeTimeout time.Duration
	// ListenBackoff is slept after a failed listen so a broken transcriber
	// does not spin the loop.
	ListenBackoff time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		WakeWord:        "jarvis",
		ExitKeywords:    []string{"adiós", "salir"},
		GreetingPhrases: []string{"hola jarvis", "hey jarvis"},
		StartupMessage:  "JARVIS está activo y listo para ayudarte",
		GreetingMessage: "Hola, ¿en qué puedo ayudarte?",
		GoodbyeMessage:  "JARVIS se está cerrando. Hasta luego!",
		GoodbyeTimeout:  10 * time.Second,
		ListenBackoff:   250 * time.Millisecond,
	}
}

type Option func(*Orchestrator)

// WithClassifier replaces the canonical classifier.
func WithClassifier(c intent.Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

// WithObserver sets a secondary classifier that is only logged and counted,
// never acted on. Pass nil to disable it.
func WithObserver(c intent.Classifier) Option {
	return func(o *Orchestrator) { o.observer = c }
}

func WithTranscriber(t Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) { o.synth = s }
}

func WithActuator(a Actuator) Option {
	return func(o *Orchestrator) { o.actuator = a }
}

func WithResponder(r *Responder) Option {
	return func(o *Orchestrator) { o.responder = r }
}

// WithWakeCue runs f whenever the wake word is heard, before the pipeline.
func WithWakeCue(f func()) Option {
	return func(o *Orchestrator) { o.onWake = f }
}

type Orchestrator struct {
	settings Settings

	classifier  intent.Classifier
	observer    intent.Classifier
	responder   *Responder
	transcriber Transcriber
	synth       Synthesizer
	actuator    Actuator
	onWake      func()

	// turnMu serializes turns coming from the loop, IPC and the bus.
	turnMu sync.Mutex

	mu          sync.Mutex
	state       State
	started     bool
	cancel      context.CancelFunc
	goodbyeOnce sync.Once
}

func New(settings Settings, opts ...Option) *Orchestrator {
	settings.WakeWord = intent.Normalize(strings.TrimSpace(settings.WakeWord))
	settings.ExitKeywords = normalizeAll(settings.ExitKeywords)
	settings.GreetingPhrases = normalizeAll(settings.GreetingPhrases)

	o := &Orchestrator{
		settings:   settings,
		classifier: intent.DefaultClassifier(),
		observer:   intent.DefaultPatternClassifier(),
		responder:  NewResponder(nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == Terminated {
		return
	}
	o.state = s
}

// Stop ends the session. A running Run returns after its farewell.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.state = Terminated
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Run greets, then listens until an exit keyword, Stop, ctx cancellation or
// an exhausted transcriber. The goodbye is always attempted once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.transcriber == nil {
		return errors.New("no transcriber configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	switch {
	case o.started:
		o.mu.Unlock()
		return ErrAlreadyStarted
	case o.state == Terminated:
		o.started = true
		o.mu.Unlock()
		return ErrStopped
	}
	o.started = true
	o.cancel = cancel
	o.mu.Unlock()

	defer o.farewell(ctx)

	o.speak(ctx, NewResponse(o.settings.StartupMessage))
	o.setState(Active)

	log.Info("Listening", "wake_word", o.settings.WakeWord)

	for o.State() == Active {
		u, err := o.transcriber.Listen(ctx)
		if ctx.Err() != nil {
			break
		}

		switch {
		case err == nil:
			o.Turn(ctx, u)
		case errors.Is(err, ErrNoSpeech):
			log.Debug("No speech")
		case errors.Is(err, io.EOF):
			log.Info("Transcriber exhausted")
			return nil
		default:
			metrics.ListenErrorsTotal.Inc()
			log.Warn("Failed to listen", "err", err)
			o.backoff(ctx)
		}
	}

	return nil
}

// Turn applies wake-word and greeting gating to one heard utterance.
func (o *Orchestrator) Turn(ctx context.Context, u intent.Utterance) (Response, Outcome) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if o.State() == Terminated {
		return Response{}, Ignored
	}

	text := intent.Normalize(u.Text)
	outcome := Ignored
	var resp Response

	switch {
	case o.settings.WakeWord != "" && strings.Contains(text, o.settings.WakeWord):
		if o.onWake != nil {
			o.onWake()
		}
		resp = o.handle(ctx, u)
		o.speak(ctx, resp)

		outcome = Handled
		if containsAny(text, o.settings.ExitKeywords) {
			outcome = Exited
			// the loop may be blocked in Listen when the exit came from elsewhere
			o.Stop()
		}

	case containsAny(text, o.settings.GreetingPhrases):
		resp = NewResponse(o.settings.GreetingMessage)
		o.speak(ctx, resp)
		outcome = Greeted

	default:
		log.Debug("Ignored utterance", "text", u.Text)
	}

	metrics.TurnsTotal.WithLabelValues(outcome.String()).Inc()
	return resp, outcome
}

// HandleUtterance runs classify -> respond -> act without any gating and
// returns the response without speaking it.
func (o *Orchestrator) HandleUtterance(ctx context.Context, u intent.Utterance) Response {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()
	return o.handle(ctx, u)
}

func (o *Orchestrator) handle(ctx context.Context, u intent.Utterance) Response {
	logger := log.With("turn", uuid.NewString())

	in := o.classifier.Classify(u)
	metrics.IntentsTotal.WithLabelValues(in.Kind.String()).Inc()

	if o.observer != nil {
		observed := o.observer.Classify(u)
		if observed.Kind != in.Kind {
			metrics.ClassifierDisagreementsTotal.Inc()
			logger.Debug("Classifiers disagree", "canonical", in.Kind, "observed", observed.Kind)
		}
	}

	sentiment := u.Sentiment
	if sentiment == "" {
		sentiment = intent.AnalyzeSentiment(u.Text)
	}

	logger.Info("Classified",
		"text", u.Text,
		"kind", in.Kind,
		"target", in.Target,
		"confidence", in.Confidence,
		"sentiment", sentiment,
	)

	resp := o.responder.Respond(in)

	if r, ok := o.synth.(Renderer); ok {
		audio, err := r.Render(ctx, resp.Text)
		if err != nil {
			logger.Warn("Failed to render response audio", "err", err)
		} else {
			resp.Audio = audio
		}
	}

	if act, ok := intent.ToAction(in); ok {
		o.dispatch(ctx, logger, act)
	}

	return resp
}

func (o *Orchestrator) dispatch(ctx context.Context, logger *log.Logger, act intent.Action) {
	result := "ok"
	switch {
	case o.actuator == nil:
		logger.Warn("No actuator, action dropped", "action", act.Type(), "target", act.Target)
		result = "failed"
	case !o.actuator.Execute(ctx, act):
		logger.Warn("Action failed", "action", act.Type(), "target", act.Target)
		result = "failed"
	default:
		logger.Info("Action executed", "action", act.Type(), "target", act.Target)
	}
	metrics.ActionsTotal.WithLabelValues(act.Type(), result).Inc()
}

// speak never fails: without a working synthesizer the text is logged.
func (o *Orchestrator) speak(ctx context.Context, r Response) {
	if r.Text == "" {
		return
	}
	if o.synth == nil {
		log.Info("JARVIS", "text", r.Text)
		return
	}
	if err := o.synth.Speak(ctx, r); err != nil {
		metrics.SpeakFailuresTotal.Inc()
		log.Warn("Failed to voice out", "err", err)
		log.Info("JARVIS", "text", r.Text)
	}
}

func (o *Orchestrator) farewell(ctx context.Context) {
	o.mu.Lock()
	o.state = Terminated
	o.mu.Unlock()

	o.goodbyeOnce.Do(func() {
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.settings.GoodbyeTimeout)
		defer cancel()
		o.speak(gctx, NewResponse(o.settings.GoodbyeMessage))
		log.Info("JARVIS closed")
	})
}

func (o *Orchestrator) backoff(ctx context.Context) {
	if o.settings.ListenBackoff <= 0 {
		return
	}
	t := time.NewTimer(o.settings.ListenBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, intent.Normalize(s))
		}
	}
	return out
}
