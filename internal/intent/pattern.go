package intent

import (
	"fmt"
	"regexp"
)

// word mirrors a Unicode-aware \w so "cámara" is captured whole.
const word = `[\p{L}\p{N}_]+`

// Rule binds one regular expression to the kind it signals.
type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
}

// RuleSpec is the uncompiled form of a Rule.
type RuleSpec struct {
	Kind Kind
	Expr string
}

// DefaultRuleSpecs is the stock Spanish rule table, ordered by kind and then
// by pattern. Order is significant: the first match wins.
var DefaultRuleSpecs = []RuleSpec{
	{OpenApplication, `abrir\s+(` + word + `)`},
	{OpenApplication, `iniciar\s+(` + word + `)`},
	{OpenApplication, `ejecutar\s+(` + word + `)`},
	{OpenApplication, `lanzar\s+(` + word + `)`},

	{SearchWeb, `buscar\s+(.+)`},
	{SearchWeb, `encontrar\s+(.+)`},
	{SearchWeb, `investigar\s+(.+)`},

	{SystemControl, `(subir|bajar)\s+volumen`},
	{SystemControl, `silenciar`},
	{SystemControl, `(apagar|reiniciar)\s+computadora`},

	{MediaControl, `(pausar|reproducir|siguiente|anterior)`},
	{MediaControl, `(play|pause|next|previous)`},

	{Information, `qué\s+hora\s+es`},
	{Information, `qué\s+fecha\s+es`},
	{Information, `información\s+del\s+sistema`},

	{Greeting, `hola\s+jarvis`},
	{Greeting, `hey\s+jarvis`},
	{Greeting, `buenos\s+(días|tardes|noches)`},

	{Exit, `adiós`},
	{Exit, `hasta\s+luego`},
	{Exit, `salir`},
	{Exit, `terminar`},
}

// CompileRules compiles specs preserving their order.
func CompileRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		if !s.Kind.Valid() {
			return nil, fmt.Errorf("rule %d: invalid kind %d", i, uint8(s.Kind))
		}
		re, err := regexp.Compile(s.Expr)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, s.Kind, err)
		}
		rules = append(rules, Rule{Kind: s.Kind, Pattern: re})
	}
	return rules, nil
}

// ParamMatch holds the whole text matched by the winning rule.
const ParamMatch = "match"

// PatternClassifier walks an ordered rule table and returns on the first
// rule whose pattern occurs anywhere in the lower-cased text.
type PatternClassifier struct {
	rules []Rule
}

func NewPatternClassifier(rules []Rule) *PatternClassifier {
	return &PatternClassifier{rules: append([]Rule(nil), rules...)}
}

// DefaultPatternClassifier uses DefaultRuleSpecs.
func DefaultPatternClassifier() *PatternClassifier {
	rules, err := CompileRules(DefaultRuleSpecs)
	if err != nil {
		panic(err)
	}
	return NewPatternClassifier(rules)
}

func (c *PatternClassifier) Classify(u Utterance) Intent {
	if isBlank(u.Text) {
		return Fallback()
	}
	text := Normalize(u.Text)

	for _, r := range c.rules {
		m := r.Pattern.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		in := Intent{
			Kind:       r.Kind,
			Confidence: u.Confidence,
			Parameters: map[string]any{ParamMatch: text[m[0]:m[1]]},
		}
		// m[2], m[3] bound the first group; -1 when it did not participate.
		if len(m) >= 4 && m[2] >= 0 {
			in.Target = text[m[2]:m[3]]
			in.HasTarget = true
		}
		return in
	}

	return Fallback()
}
