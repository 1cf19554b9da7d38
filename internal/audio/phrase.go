package audio

import (
	"errors"
	"time"
)

// ErrSilence means nobody spoke before the listen timeout.
var ErrSilence = errors.New("no speech before timeout")

// Limits bound one phrase capture.
type Limits struct {
	Timeout     time.Duration // wait for speech to start
	PhraseLimit time.Duration // cut the phrase after this much speech
}

const (
	silenceThreshRMS = 0.015
	silenceHold      = 600 * time.Millisecond
)

// phraseDetector consumes fixed-size frames and decides when a spoken
// phrase is complete. Frames before speech starts are dropped.
type phraseDetector struct {
	frame     time.Duration
	threshold float64
	hold      time.Duration
	limits    Limits

	speaking bool
	waited   time.Duration
	spoken   time.Duration
	silence  time.Duration
	pcm      []float32
}

func newPhraseDetector(frame time.Duration, limits Limits) *phraseDetector {
	return &phraseDetector{
		frame:     frame,
		threshold: silenceThreshRMS,
		hold:      silenceHold,
		limits:    limits,
	}
}

// push feeds one frame and reports whether capture should stop.
func (d *phraseDetector) push(frame []float32) bool {
	loud := rms(frame) > d.threshold

	if !d.speaking {
		d.waited += d.frame
		if !loud {
			return d.limits.Timeout > 0 && d.waited >= d.limits.Timeout
		}
		d.speaking = true
	}

	d.pcm = append(d.pcm, frame...)
	d.spoken += d.frame

	if loud {
		d.silence = 0
	} else {
		d.silence += d.frame
		if d.silence >= d.hold {
			return true
		}
	}

	return d.limits.PhraseLimit > 0 && d.spoken >= d.limits.PhraseLimit
}

func (d *phraseDetector) result() ([]float32, error) {
	if !d.speaking {
		return nil, ErrSilence
	}
	return d.pcm, nil
}
