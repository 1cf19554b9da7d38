package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"

	"jarvis/internal/audio"
	"jarvis/internal/jarvis"
)

// Ducker lowers other applications while the assistant talks.
type Ducker interface {
	Duck(ctx context.Context, factor float64, fade time.Duration) error
	Restore(ctx context.Context, fade time.Duration) error
}

type OpenAIOptions struct {
	Model      string
	Voice      string
	Ducker     Ducker
	DuckFactor float64
	// Play defaults to audio.PlayMP3.
	Play func(ctx context.Context, rc io.ReadCloser) error
}

// OpenAI renders speech with the OpenAI audio API and plays it locally.
type OpenAI struct {
	client openai.Client
	opt    OpenAIOptions
}

const duckFade = 150 * time.Millisecond

func NewOpenAI(client openai.Client, opt OpenAIOptions) *OpenAI {
	if opt.Model == "" {
		opt.Model = string(openai.SpeechModelGPT4oMiniTTS)
	}
	if opt.Voice == "" {
		opt.Voice = "onyx"
	}
	if opt.Play == nil {
		opt.Play = audio.PlayMP3
	}
	return &OpenAI{client: client, opt: opt}
}

// Render returns mp3 audio for text.
func (o *OpenAI) Render(ctx context.Context, text string) ([]byte, error) {
	res, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.opt.Model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.opt.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return data, nil
}

// Speak plays r.Audio when already rendered, otherwise renders r.Text first.
func (o *OpenAI) Speak(ctx context.Context, r jarvis.Response) error {
	if r.Text == "" && len(r.Audio) == 0 {
		return nil
	}

	data := r.Audio
	if len(data) == 0 {
		var err error
		if data, err = o.Render(ctx, r.Text); err != nil {
			return err
		}
	}

	if o.opt.Ducker != nil {
		if err := o.opt.Ducker.Duck(ctx, o.opt.DuckFactor, duckFade); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := o.opt.Ducker.Restore(context.WithoutCancel(ctx), duckFade); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	return o.opt.Play(ctx, io.NopCloser(bytes.NewReader(data)))
}
