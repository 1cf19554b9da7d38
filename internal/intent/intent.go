// Package intent turns recognized utterances into typed command intents and
// maps those intents to system actions.
package intent

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentiment is an informational label derived from keywords.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Utterance is one recognized phrase as produced by a transcriber.
type Utterance struct {
	Text       string
	Confidence float64 // 0..1
	Timestamp  float64 // seconds since epoch
	Sentiment  Sentiment
}

// Intent is the structured result of classifying an utterance.
type Intent struct {
	Kind       Kind
	Target     string
	HasTarget  bool
	Parameters map[string]any
	Confidence float64
}

// Fallback is returned when nothing matches.
func Fallback() Intent {
	return Intent{Kind: Greeting, Confidence: 0.0}
}

// Classifier maps an utterance to an intent. Implementations are pure.
type Classifier interface {
	Classify(u Utterance) Intent
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(u Utterance) Intent

func (f ClassifierFunc) Classify(u Utterance) Intent { return f(u) }

// Normalize lower-cases text the way every matcher in this package expects.
func Normalize(text string) string {
	return cases.Lower(language.Spanish).String(text)
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
