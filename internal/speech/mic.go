package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "log/slog"

	"jarvis/internal/audio"
	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

// PhraseRecorder captures one spoken phrase as 16 kHz mono PCM.
type PhraseRecorder interface {
	RecordPhrase(ctx context.Context, limits audio.Limits) ([]float32, error)
}

// MicTranscriber listens on a recorder and transcribes each phrase.
type MicTranscriber struct {
	rec    PhraseRecorder
	engine Engine
	limits audio.Limits
	now    func() time.Time
}

func NewMicTranscriber(rec PhraseRecorder, engine Engine, limits audio.Limits) *MicTranscriber {
	return &MicTranscriber{rec: rec, engine: engine, limits: limits, now: time.Now}
}

func (m *MicTranscriber) Listen(ctx context.Context) (intent.Utterance, error) {
	pcm, err := m.rec.RecordPhrase(ctx, m.limits)
	if errors.Is(err, audio.ErrSilence) {
		return intent.Utterance{}, jarvis.ErrNoSpeech
	}
	if err != nil {
		return intent.Utterance{}, fmt.Errorf("record: %w", err)
	}

	start := m.now()
	text, err := m.engine.Transcribe(ctx, pcm)
	if err != nil {
		return intent.Utterance{}, fmt.Errorf("%s: %w", m.engine.Name(), err)
	}
	if text == "" {
		return intent.Utterance{}, jarvis.ErrNoSpeech
	}

	log.Debug("Transcribed", "engine", m.engine.Name(), "text", text, "took", m.now().Sub(start))
	return newUtterance(text, DefaultConfidence, m.now()), nil
}
