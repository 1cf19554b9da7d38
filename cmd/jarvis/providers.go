package main

import (
	"context"
	"errors"
	"io"
	"os"

	openai "github.com/openai/openai-go/v3"

	"jarvis/internal/audio"
	"jarvis/internal/config"
	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
	"jarvis/internal/provider"
	"jarvis/internal/speech"
	"jarvis/internal/tts"
)

var errNoAPIKey = errors.New("OPENAI_API_KEY not set")

// closers collects resources opened by providers.
type closers []io.Closer

func (c *closers) add(x io.Closer) { *c = append(*c, x) }

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].Close()
	}
}

func newClassifier(name string) intent.Classifier {
	switch name {
	case config.ClassifierKeyword:
		return intent.KeywordClassifier{}
	case config.ClassifierPattern:
		return intent.DefaultPatternClassifier()
	default:
		return intent.DefaultClassifier()
	}
}

func synthesizers(cfg *config.Config, client *openai.Client, mixer *audio.Mixer, res *closers) map[string]provider.Provider[jarvis.Synthesizer] {
	return map[string]provider.Provider[jarvis.Synthesizer]{
		"openai": {Open: func(context.Context) (jarvis.Synthesizer, error) {
			if client == nil {
				return nil, errNoAPIKey
			}
			opt := tts.OpenAIOptions{
				Model:      cfg.Voice.OpenAIModel,
				Voice:      cfg.Voice.OpenAIVoice,
				DuckFactor: cfg.Voice.DuckFactor,
			}
			if cfg.Voice.DuckOthers {
				opt.Ducker = mixer
			}
			return tts.NewOpenAI(*client, opt), nil
		}},
		"espeak": {Open: func(context.Context) (jarvis.Synthesizer, error) {
			e, err := tts.NewEspeak(cfg.LanguageCode(), cfg.Voice.Rate, cfg.Voice.Volume)
			if err != nil {
				return nil, err
			}
			res.add(e)
			return e, nil
		}},
		"console": {Open: func(context.Context) (jarvis.Synthesizer, error) {
			return tts.NewConsole(os.Stdout), nil
		}},
	}
}

func engines(cfg *config.Config, client *openai.Client, res *closers) map[string]provider.Provider[speech.Engine] {
	return map[string]provider.Provider[speech.Engine]{
		"whisper": {Open: func(context.Context) (speech.Engine, error) {
			w, err := speech.NewWhisperEngine(cfg.Speech.WhisperModel, speech.WhisperOptions{
				Language:      cfg.LanguageCode(),
				Threads:       cfg.Speech.Threads,
				InitialPrompt: cfg.Speech.WakeWord,
			})
			if err != nil {
				return nil, err
			}
			res.add(w)
			return w, nil
		}},
		"openai": {Open: func(context.Context) (speech.Engine, error) {
			if client == nil {
				return nil, errNoAPIKey
			}
			return speech.NewOpenAIEngine(*client, cfg.LanguageCode()), nil
		}},
	}
}

func selectFirst[T any](ctx context.Context, registry map[string]provider.Provider[T], names []string) (T, string, error) {
	var zero T
	ps, err := provider.Select(registry, names)
	if err != nil {
		return zero, "", err
	}
	return provider.First(ctx, ps...)
}
