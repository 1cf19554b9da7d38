// Package tts voices assistant responses.
package tts

import (
	"context"
	"fmt"
	"io"
	"sync"

	"jarvis/internal/jarvis"
)

// Console prints responses instead of speaking them. It is the last resort
// when no audio backend could be opened.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Speak(_ context.Context, r jarvis.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "JARVIS: %s\n", r.Text)
	return err
}
