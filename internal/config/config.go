// Package config holds the assistant settings: built-in defaults, an
// optional YAML file and a few environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Classifier string         `yaml:"classifier"`
	Speech     SpeechConfig   `yaml:"speech"`
	Voice      VoiceConfig    `yaml:"voice"`
	System     SystemConfig   `yaml:"system"`
	Messages   MessagesConfig `yaml:"messages"`

	OpenAIKey string `yaml:"-"`
}

type SpeechConfig struct {
	WakeWord        string        `yaml:"wake_word"`
	Language        string        `yaml:"language"`
	Timeout         time.Duration `yaml:"timeout"`
	PhraseTimeLimit time.Duration `yaml:"phrase_time_limit"`
	Engines         []string      `yaml:"engines"`
	WhisperModel    string        `yaml:"whisper_model"`
	Threads         int           `yaml:"threads"`
	ExitKeywords    []string      `yaml:"exit_keywords"`
	GreetingPhrases []string      `yaml:"greeting_phrases"`
}

type VoiceConfig struct {
	Providers   []string `yaml:"providers"`
	Rate        int      `yaml:"rate"`
	Volume      float64  `yaml:"volume"`
	OpenAIModel string   `yaml:"openai_model"`
	OpenAIVoice string   `yaml:"openai_voice"`
	DuckOthers  bool     `yaml:"duck_others"`
	DuckFactor  float64  `yaml:"duck_factor"`
	Chime       string   `yaml:"chime"`
}

type SystemConfig struct {
	Applications    map[string]string `yaml:"applications"`
	WebSearchEngine string            `yaml:"web_search_engine"`
	Opener          string            `yaml:"opener"`
	MediaPlayer     string            `yaml:"media_player"`
	VolumeStep      int               `yaml:"volume_step"`
}

type MessagesConfig struct {
	Startup  string `yaml:"startup"`
	Greeting string `yaml:"greeting"`
	Goodbye  string `yaml:"goodbye"`
}

const (
	ClassifierRefined = "refined"
	ClassifierKeyword = "keyword"
	ClassifierPattern = "pattern"
)

func Default() *Config {
	return &Config{
		Classifier: ClassifierRefined,
		Speech: SpeechConfig{
			WakeWord:        "jarvis",
			Language:        "es-ES",
			Timeout:         5 * time.Second,
			PhraseTimeLimit: 5 * time.Second,
			Engines:         []string{"whisper", "openai"},
			WhisperModel:    "third_party/whisper.cpp/models/ggml-base.bin",
			ExitKeywords:    []string{"adiós", "salir"},
			GreetingPhrases: []string{"hola jarvis", "hey jarvis"},
		},
		Voice: VoiceConfig{
			Providers:   []string{"openai", "espeak", "console"},
			Rate:        150,
			Volume:      0.9,
			OpenAIModel: "gpt-4o-mini-tts",
			OpenAIVoice: "onyx",
			DuckFactor:  0.3,
		},
		System: SystemConfig{
			Applications: map[string]string{
				"calculadora":   "calc",
				"notepad":       "notepad",
				"bloc de notas": "notepad",
				"explorador":    "explorer",
				"chrome":        "chrome",
				"spotify":       "spotify",
				"discord":       "discord",
				"steam":         "steam",
			},
			WebSearchEngine: "https://www.google.com/search?q={}",
			Opener:          "xdg-open",
			MediaPlayer:     "playerctl",
			VolumeStep:      10,
		},
		Messages: MessagesConfig{
			Startup:  "JARVIS está activo y listo para ayudarte",
			Greeting: "Hola, ¿en qué puedo ayudarte?",
			Goodbye:  "JARVIS se está cerrando. Hasta luego!",
		},
	}
}

// Load starts from Default, overlays the YAML file at path (if any) and the
// environment, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := getenv("JARVIS_WAKE_WORD"); v != "" {
		c.Speech.WakeWord = v
	}
	if v := getenv("JARVIS_LANGUAGE"); v != "" {
		c.Speech.Language = v
	}
	if v := getenv("JARVIS_WHISPER_MODEL"); v != "" {
		c.Speech.WhisperModel = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Speech.WakeWord) == "" {
		errs = append(errs, errors.New("speech.wake_word must not be empty"))
	}
	switch c.Classifier {
	case ClassifierRefined, ClassifierKeyword, ClassifierPattern:
	default:
		errs = append(errs, fmt.Errorf("unknown classifier %q", c.Classifier))
	}
	if c.Speech.Timeout <= 0 {
		errs = append(errs, errors.New("speech.timeout must be positive"))
	}
	if c.Speech.PhraseTimeLimit <= 0 {
		errs = append(errs, errors.New("speech.phrase_time_limit must be positive"))
	}
	if c.Voice.Volume < 0 || c.Voice.Volume > 1 {
		errs = append(errs, fmt.Errorf("voice.volume %.2f out of range [0,1]", c.Voice.Volume))
	}
	for name, command := range c.System.Applications {
		if strings.TrimSpace(command) == "" {
			errs = append(errs, fmt.Errorf("system.applications.%s has no command", name))
		}
	}
	if !strings.Contains(c.System.WebSearchEngine, "{}") {
		errs = append(errs, errors.New("system.web_search_engine must contain {}"))
	}

	return errors.Join(errs...)
}

// LanguageCode returns the ISO-639-1 part of the speech language, "es" for
// "es-ES".
func (c *Config) LanguageCode() string {
	lang, _, _ := strings.Cut(c.Speech.Language, "-")
	return strings.ToLower(lang)
}
