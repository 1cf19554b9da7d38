package intent

import "strings"

type keywordSet struct {
	kind  Kind
	words []string
}

// checked in this order; anything else is a greeting
var kindKeywords = []keywordSet{
	{OpenApplication, []string{"abrir", "iniciar", "ejecutar"}},
	{SearchWeb, []string{"buscar", "encontrar"}},
	{SystemControl, []string{"volumen", "silenciar"}},
	{MediaControl, []string{"pausar", "reproducir", "siguiente"}},
	{Information, []string{"hora", "fecha"}},
	{Exit, []string{"adiós", "salir"}},
}

type sentimentSet struct {
	label Sentiment
	words []string
}

var sentimentKeywords = []sentimentSet{
	{Positive, []string{"gracias", "excelente", "perfecto", "genial"}},
	{Negative, []string{"error", "problema", "mal", "terrible"}},
	{Neutral, []string{"ok", "bien", "normal"}},
}

// KeywordClassifier is the coarse substring analyzer. It never extracts a
// target; it only decides the kind.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(u Utterance) Intent {
	return Intent{
		Kind:       keywordKind(Normalize(u.Text)),
		Confidence: u.Confidence,
	}
}

func keywordKind(text string) Kind {
	for _, set := range kindKeywords {
		if containsAny(text, set.words) {
			return set.kind
		}
	}
	return Greeting
}

// AnalyzeSentiment labels text by the first keyword group it contains.
func AnalyzeSentiment(text string) Sentiment {
	text = Normalize(text)
	for _, set := range sentimentKeywords {
		if containsAny(text, set.words) {
			return set.label
		}
	}
	return Neutral
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
