package speech

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v3"

	"jarvis/internal/audio"
)

// OpenAIEngine uploads captured audio to the OpenAI transcription API.
type OpenAIEngine struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func NewOpenAIEngine(client openai.Client, language string) *OpenAIEngine {
	return &OpenAIEngine{
		client:   client,
		model:    openai.AudioModelWhisper1,
		language: language,
	}
}

func (e *OpenAIEngine) Name() string { return "openai" }

func (e *OpenAIEngine) Close() error { return nil }

func (e *OpenAIEngine) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	f, err := audio.TempWAV(pcm)
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: e.model,
	}
	if e.language != "" && e.language != "auto" {
		params.Language = openai.String(e.language)
	}

	res, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return cleanTranscript(res.Text), nil
}
