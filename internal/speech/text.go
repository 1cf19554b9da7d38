package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

type line struct {
	text string
	err  error
}

// TextTranscriber reads typed utterances, one per line. Reading happens in
// a background goroutine so Listen can return on ctx cancellation while the
// reader is blocked.
type TextTranscriber struct {
	r     io.Reader
	once  sync.Once
	lines chan line
}

func NewTextTranscriber(r io.Reader) *TextTranscriber {
	return &TextTranscriber{r: r, lines: make(chan line)}
}

func (t *TextTranscriber) start() {
	go func() {
		defer close(t.lines)
		sc := bufio.NewScanner(t.r)
		for sc.Scan() {
			t.lines <- line{text: sc.Text()}
		}
		if err := sc.Err(); err != nil {
			t.lines <- line{err: err}
		}
	}()
}

func (t *TextTranscriber) Listen(ctx context.Context) (intent.Utterance, error) {
	t.once.Do(t.start)

	select {
	case <-ctx.Done():
		return intent.Utterance{}, ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return intent.Utterance{}, io.EOF
		}
		if l.err != nil {
			return intent.Utterance{}, l.err
		}
		text := strings.TrimSpace(l.text)
		if text == "" {
			return intent.Utterance{}, jarvis.ErrNoSpeech
		}
		return newUtterance(text, 1.0, time.Now()), nil
	}
}
