package audio

import (
	"context"
	"time"

	"github.com/gordonklaus/portaudio"
)

const frameSize = 320 // 20ms at 16 kHz

// Recorder captures phrases from the default input device.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

// RecordPhrase blocks until a phrase was spoken and followed by silence, the
// phrase limit is hit, or nothing was said within the timeout (ErrSilence).
func (r *Recorder) RecordPhrase(ctx context.Context, limits Limits) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	det := newPhraseDetector(time.Second*frameSize/SampleRate, limits)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}
		if det.push(buf) {
			break
		}
	}

	return det.result()
}
