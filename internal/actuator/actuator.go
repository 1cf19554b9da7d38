// Package actuator carries out system actions on the host: launching
// applications, opening web searches, changing volume and driving the media
// player.
package actuator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	log "log/slog"

	"jarvis/internal/intent"
	"jarvis/internal/sysexec"
)

// VolumeControl is satisfied by *audio.Mixer.
type VolumeControl interface {
	ChangeVolume(ctx context.Context, delta int) error
	ToggleMute(ctx context.Context) error
}

type Options struct {
	// Applications maps spoken names to commands. Unmapped names are run as
	// they were heard.
	Applications map[string]string
	// SearchURL has a {} placeholder for the escaped query.
	SearchURL   string
	Opener      string
	MediaPlayer string
	VolumeStep  int

	Launch sysexec.Launcher
	Run    sysexec.Runner
	// Volume is optional; without it volume commands fail.
	Volume VolumeControl
}

type System struct {
	opt  Options
	apps map[string]string
}

func New(opt Options) *System {
	if opt.Launch == nil {
		opt.Launch = sysexec.StartDetached
	}
	if opt.Run == nil {
		opt.Run = sysexec.ExecRunner
	}
	if opt.Opener == "" {
		opt.Opener = "xdg-open"
	}
	if opt.MediaPlayer == "" {
		opt.MediaPlayer = "playerctl"
	}
	if opt.VolumeStep <= 0 {
		opt.VolumeStep = 10
	}

	apps := make(map[string]string, len(opt.Applications))
	for k, v := range opt.Applications {
		apps[intent.Normalize(strings.TrimSpace(k))] = v
	}
	return &System{opt: opt, apps: apps}
}

// Execute reports whether the action was carried out. Failures are logged.
func (s *System) Execute(ctx context.Context, a intent.Action) bool {
	var err error
	switch a.Kind {
	case intent.OpenApplication:
		err = s.openApplication(a.Target)
	case intent.SearchWeb:
		err = s.searchWeb(a.Target)
	case intent.SystemControl:
		err = s.systemControl(ctx, subject(a))
	case intent.MediaControl:
		err = s.mediaControl(ctx, subject(a))
	default:
		err = fmt.Errorf("unsupported action %s", a.Type())
	}

	if err != nil {
		log.Error("Failed to execute action", "action", a.Type(), "target", a.Target, "err", err)
		return false
	}
	return true
}

func (s *System) openApplication(target string) error {
	name := intent.Normalize(strings.TrimSpace(target))
	if name == "" {
		return fmt.Errorf("no application named")
	}

	command := name
	if mapped, ok := s.apps[name]; ok {
		command = mapped
	}
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return fmt.Errorf("empty command for %q", name)
	}

	if err := s.opt.Launch(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("open %s: %w", command, err)
	}
	log.Info("Opened application", "app", command)
	return nil
}

// SearchURL fills the {} placeholder of template with the escaped query.
func SearchURL(template, query string) string {
	return strings.ReplaceAll(template, "{}", url.QueryEscape(strings.TrimSpace(query)))
}

func (s *System) searchWeb(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("empty search query")
	}

	u := SearchURL(s.opt.SearchURL, query)
	if err := s.opt.Launch(s.opt.Opener, u); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	log.Info("Searching the web", "url", u)
	return nil
}

func (s *System) systemControl(ctx context.Context, what string) error {
	switch {
	case what == "":
		return fmt.Errorf("empty system command")
	case strings.Contains(what, "apagar"), strings.Contains(what, "reiniciar"):
		// power commands are acknowledged, never executed
		log.Warn("Power command not executed", "command", what)
		return nil
	case s.opt.Volume == nil:
		return fmt.Errorf("no volume control for %q", what)
	case strings.Contains(what, "subir"):
		return s.opt.Volume.ChangeVolume(ctx, s.opt.VolumeStep)
	case strings.Contains(what, "bajar"):
		return s.opt.Volume.ChangeVolume(ctx, -s.opt.VolumeStep)
	case strings.Contains(what, "silenciar"):
		return s.opt.Volume.ToggleMute(ctx)
	default:
		return fmt.Errorf("unknown system command %q", what)
	}
}

var mediaVerbs = map[string]string{
	"pausar":     "pause",
	"pause":      "pause",
	"reproducir": "play",
	"play":       "play",
	"siguiente":  "next",
	"next":       "next",
	"anterior":   "previous",
	"previous":   "previous",
}

func (s *System) mediaControl(ctx context.Context, what string) error {
	verb, ok := mediaVerbs[what]
	if !ok {
		for word := range strings.FieldsSeq(what) {
			if verb, ok = mediaVerbs[word]; ok {
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("unknown media command %q", what)
	}

	if _, err := s.opt.Run(ctx, s.opt.MediaPlayer, verb); err != nil {
		return fmt.Errorf("%s %s: %w", s.opt.MediaPlayer, verb, err)
	}
	log.Info("Media control", "verb", verb)
	return nil
}

// subject is the captured target, or the whole matched phrase when the rule
// had no group (e.g. "silenciar").
func subject(a intent.Action) string {
	if t := strings.TrimSpace(a.Target); t != "" {
		return intent.Normalize(t)
	}
	if m, ok := a.Parameters[intent.ParamMatch].(string); ok {
		return intent.Normalize(strings.TrimSpace(m))
	}
	return ""
}
