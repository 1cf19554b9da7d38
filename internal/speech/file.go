package speech

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"jarvis/internal/audio"
	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

// FileTranscriber replays audio files in order, one utterance per file, and
// reports io.EOF after the last one.
type FileTranscriber struct {
	engine Engine
	opt    audio.DecodeOptions

	mu    sync.Mutex
	paths []string
}

func NewFileTranscriber(engine Engine, opt audio.DecodeOptions, paths ...string) *FileTranscriber {
	return &FileTranscriber{engine: engine, opt: opt, paths: append([]string(nil), paths...)}
}

func (f *FileTranscriber) next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) == 0 {
		return "", false
	}
	p := f.paths[0]
	f.paths = f.paths[1:]
	return p, true
}

func (f *FileTranscriber) Listen(ctx context.Context) (intent.Utterance, error) {
	path, ok := f.next()
	if !ok {
		return intent.Utterance{}, io.EOF
	}

	pcm, err := audio.DecodeFile(path, f.opt)
	if err != nil {
		return intent.Utterance{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(pcm) == 0 {
		return intent.Utterance{}, jarvis.ErrNoSpeech
	}

	text, err := f.engine.Transcribe(ctx, pcm)
	if err != nil {
		return intent.Utterance{}, fmt.Errorf("%s: %w", f.engine.Name(), err)
	}
	if text == "" {
		return intent.Utterance{}, jarvis.ErrNoSpeech
	}
	return newUtterance(text, DefaultConfidence, time.Now()), nil
}
