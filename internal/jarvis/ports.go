// Package jarvis is the conversation core: it gates utterances on the wake
// word, runs classify -> respond -> act, and owns the session lifecycle.
package jarvis

import (
	"context"
	"errors"

	"jarvis/internal/intent"
)

// ErrNoSpeech is returned by a Transcriber when nothing was said before its
// timeout. The listen loop simply tries again.
var ErrNoSpeech = errors.New("no speech detected")

// Transcriber yields the next recognized utterance. It returns ErrNoSpeech on
// silence and io.EOF once its source is exhausted.
type Transcriber interface {
	Listen(ctx context.Context) (intent.Utterance, error)
}

// Synthesizer voices a response. Implementations without audio output print
// or log the text instead.
type Synthesizer interface {
	Speak(ctx context.Context, r Response) error
}

// Renderer is implemented by synthesizers that can produce audio ahead of
// playback; HandleUtterance uses it to fill Response.Audio.
type Renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// Actuator executes a system action and reports whether it succeeded.
type Actuator interface {
	Execute(ctx context.Context, a intent.Action) bool
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, r Response) error

func (f SynthesizerFunc) Speak(ctx context.Context, r Response) error { return f(ctx, r) }

// ActuatorFunc adapts a function to Actuator.
type ActuatorFunc func(ctx context.Context, a intent.Action) bool

func (f ActuatorFunc) Execute(ctx context.Context, a intent.Action) bool { return f(ctx, a) }
