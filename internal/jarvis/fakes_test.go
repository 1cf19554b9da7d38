package jarvis

import (
	"context"
	"errors"
	"io"
	"sync"

	"jarvis/internal/intent"
)

type heard struct {
	text string
	err  error
}

// scriptedTranscriber replays a fixed script, then reports io.EOF.
type scriptedTranscriber struct {
	mu     sync.Mutex
	script []heard
	calls  int
}

func say(texts ...string) *scriptedTranscriber {
	s := &scriptedTranscriber{}
	for _, t := range texts {
		s.script = append(s.script, heard{text: t})
	}
	return s
}

func (s *scriptedTranscriber) Listen(ctx context.Context) (intent.Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.script) == 0 {
		return intent.Utterance{}, io.EOF
	}
	next := s.script[0]
	s.script = s.script[1:]
	if next.err != nil {
		return intent.Utterance{}, next.err
	}
	return intent.Utterance{Text: next.text, Confidence: 0.8}, nil
}

// blockingTranscriber never hears anything until ctx is done.
type blockingTranscriber struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingTranscriber() *blockingTranscriber {
	return &blockingTranscriber{started: make(chan struct{})}
}

func (b *blockingTranscriber) Listen(ctx context.Context) (intent.Utterance, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return intent.Utterance{}, ctx.Err()
}

type recordingSynth struct {
	mu     sync.Mutex
	spoken []string
	ctxErr []error
	fail   bool
}

func (r *recordingSynth) Speak(ctx context.Context, resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, resp.Text)
	r.ctxErr = append(r.ctxErr, ctx.Err())
	if r.fail {
		return errors.New("audio device unavailable")
	}
	return nil
}

func (r *recordingSynth) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

type renderingSynth struct {
	recordingSynth
}

func (r *renderingSynth) Render(_ context.Context, text string) ([]byte, error) {
	return []byte("audio:" + text), nil
}

type recordingActuator struct {
	mu      sync.Mutex
	actions []intent.Action
	result  bool
}

func (r *recordingActuator) Execute(_ context.Context, a intent.Action) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.result
}

func (r *recordingActuator) Actions() []intent.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]intent.Action(nil), r.actions...)
}
