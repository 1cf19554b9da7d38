// Package bus connects the assistant to a websocket hub as a shard: the hub
// forwards text utterances and gets the spoken reply back.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "log/slog"

	ws "github.com/gorilla/websocket"

	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

const (
	KindUtterance = "utterance"
	KindReply     = "reply"

	Broadcast = "ALL"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

// Handler is implemented by *jarvis.Orchestrator.
type Handler interface {
	HandleUtterance(ctx context.Context, u intent.Utterance) jarvis.Response
}

type Config struct {
	Shard string
	URL   string
	// Reconn is the pause between reconnection attempts.
	Reconn time.Duration
}

type Shard struct {
	cfg Config

	mu   sync.Mutex
	conn *ws.Conn
}

func Dial(ctx context.Context, cfg Config) (*Shard, error) {
	if cfg.Shard == "" {
		cfg.Shard = "jarvis"
	}
	if cfg.Reconn <= 0 {
		cfg.Reconn = time.Second
	}

	log.Debug("Dialing bus", "url", cfg.URL)
	conn, _, err := ws.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	log.Info("Connected to bus", "url", cfg.URL, "shard", cfg.Shard)

	return &Shard{cfg: cfg, conn: conn}, nil
}

func (s *Shard) current() *ws.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Shard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

func (s *Shard) Write(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(ws.TextMessage, data)
}

// Run serves utterances addressed to the shard until ctx is done. A dropped
// connection is re-dialed.
func (s *Shard) Run(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		_, data, err := s.current().ReadMessage()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warn("Bus connection lost", "url", s.cfg.URL, "err", err)
			if err := s.reconnect(ctx); err != nil {
				return nil
			}
			log.Info("Reconnected to bus")
			continue
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Failed to parse", "msg", string(data), "err", err)
			continue
		}
		if !s.accepts(m) {
			continue
		}

		s.serve(ctx, h, m)
	}
}

func (s *Shard) accepts(m Message) bool {
	if m.To != s.cfg.Shard && m.To != Broadcast {
		return false
	}
	if m.Kind != KindUtterance {
		log.Debug("Ignoring bus message", "kind", m.Kind, "from", m.From)
		return false
	}
	return true
}

func (s *Shard) serve(ctx context.Context, h Handler, m Message) {
	in := intent.Utterance{
		Text:       m.Content,
		Confidence: 1.0,
		Timestamp:  float64(time.Now().UnixNano()) / float64(time.Second),
	}
	resp := h.HandleUtterance(ctx, in)

	reply := Message{
		From:    s.cfg.Shard,
		To:      m.From,
		Kind:    KindReply,
		Content: resp.Text,
		Audio:   resp.Audio,
	}
	if err := s.Write(reply); err != nil {
		log.Error("Failed to send reply", "to", m.From, "err", err)
	}
}

func (s *Shard) reconnect(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
		if err == nil {
			s.mu.Lock()
			s.conn.Close()
			s.conn = conn
			s.mu.Unlock()

			if ctx.Err() != nil {
				conn.Close()
				return ctx.Err()
			}
			return nil
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}

		log.Debug("Reconnect failed", "err", err)
		t := time.NewTimer(s.cfg.Reconn)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
