// Package speech turns microphone audio, audio files or typed lines into
// utterances for the listen loop.
package speech

import (
	"context"
	"regexp"
	"strings"
	"time"

	"jarvis/internal/intent"
)

// DefaultConfidence is reported when an engine gives no score of its own.
const DefaultConfidence = 0.8

// Engine converts mono 16 kHz PCM into text.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, pcm []float32) (string, error)
	Close() error
}

// whisper marks non-speech as "[BLANK_AUDIO]", "(música)" and the like
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

func cleanTranscript(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func newUtterance(text string, confidence float64, at time.Time) intent.Utterance {
	return intent.Utterance{
		Text:       text,
		Confidence: confidence,
		Timestamp:  float64(at.UnixNano()) / float64(time.Second),
	}
}
