package jarvis

import (
	"strings"

	"jarvis/internal/intent"
)

// Response is what the assistant says back for one handled utterance.
type Response struct {
	Text     string
	Audio    []byte
	Emotion  string
	Priority int
}

func NewResponse(text string) Response {
	return Response{Text: text, Priority: 1}
}

// DefaultTemplates are the stock Spanish replies per kind. "{target}" is
// replaced with the intent target.
var DefaultTemplates = map[intent.Kind]string{
	intent.OpenApplication: "Abriendo {target}",
	intent.SearchWeb:       "Buscando {target}",
	intent.SystemControl:   "Ejecutando comando de sistema",
	intent.MediaControl:    "Control de medios ejecutado",
	intent.Information:     "Aquí tienes la información",
	intent.Greeting:        "Hola, ¿en qué puedo ayudarte?",
	intent.Exit:            "Hasta luego, que tengas un buen día",
}

const (
	defaultTarget   = "aplicación"
	defaultFallback = "Comando ejecutado"
)

// Responder renders reply text for an intent.
type Responder struct {
	templates map[intent.Kind]string
}

// NewResponder layers overrides on top of DefaultTemplates.
func NewResponder(overrides map[intent.Kind]string) *Responder {
	t := make(map[intent.Kind]string, len(DefaultTemplates))
	for k, v := range DefaultTemplates {
		t[k] = v
	}
	for k, v := range overrides {
		t[k] = v
	}
	return &Responder{templates: t}
}

func (r *Responder) Respond(in intent.Intent) Response {
	tmpl, ok := r.templates[in.Kind]
	if !ok {
		tmpl = defaultFallback
	}

	target := in.Target
	if target == "" {
		target = defaultTarget
	}

	return NewResponse(strings.ReplaceAll(tmpl, "{target}", target))
}
