// Package notify gives audible and visual feedback when the wake word is
// heard.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "log/slog"

	"jarvis/internal/audio"
	"jarvis/internal/sysexec"
)

const cueTimeout = 3 * time.Second

type Notifier struct {
	chime string
	run   sysexec.Runner
	play  func(ctx context.Context, rc io.ReadCloser) error
}

// New plays chimePath (an mp3, optional) and sends desktop notifications
// through notify-send.
func New(chimePath string, run sysexec.Runner) *Notifier {
	if run == nil {
		run = sysexec.ExecRunner
	}
	return &Notifier{chime: chimePath, run: run, play: audio.PlayMP3}
}

// Chime plays the configured sound. Without one it does nothing.
func (n *Notifier) Chime(ctx context.Context) error {
	if n.chime == "" {
		return nil
	}
	f, err := os.Open(n.chime)
	if err != nil {
		return fmt.Errorf("open chime: %w", err)
	}
	return n.play(ctx, f)
}

// Desktop pops a desktop notification.
func (n *Notifier) Desktop(ctx context.Context, summary, body string) error {
	if _, err := n.run(ctx, "notify-send", "-a", "JARVIS", "-t", "2000", summary, body); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// WakeCue is meant for jarvis.WithWakeCue. Failures are only logged.
func (n *Notifier) WakeCue() {
	ctx, cancel := context.WithTimeout(context.Background(), cueTimeout)
	defer cancel()

	if err := n.Desktop(ctx, "JARVIS", "Escuchando..."); err != nil {
		log.Debug("Failed to notify", "err", err)
	}
	if err := n.Chime(ctx); err != nil {
		log.Warn("Failed to play chime", "err", err)
	}
}
