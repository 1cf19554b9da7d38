// Package ipc is the local control socket of the daemon: typed turns and
// shutdown requests arrive as one JSON message per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	log "log/slog"

	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

const SocketPath = "/tmp/jarvis.sock"

const (
	CmdSay    = "say"
	CmdStop   = "stop"
	CmdStatus = "status"
)

var ErrUnknownCommand = errors.New("unknown command")

const ioTimeout = 30 * time.Second

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Reply struct {
	OK      bool   `json:"ok"`
	Text    string `json:"text,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	State   string `json:"state,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler is implemented by *jarvis.Orchestrator.
type Handler interface {
	Turn(ctx context.Context, u intent.Utterance) (jarvis.Response, jarvis.Outcome)
	State() jarvis.State
	Stop()
}

// Serve accepts control connections on path until ctx is done.
func Serve(ctx context.Context, path string, h Handler) error {
	os.Remove(path)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer os.Remove(path)

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	log.Info("Control socket ready", "path", path)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("Failed to accept", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, h)
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, h Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		return
	}

	reply, err := dispatch(ctx, msg, h)
	if err != nil {
		log.Warn("Control command failed", "cmd", msg.Cmd, "err", err)
		reply = Reply{Error: err.Error()}
	}

	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		log.Debug("Failed to reply", "err", err)
	}
}

func dispatch(ctx context.Context, msg ControlMessage, h Handler) (Reply, error) {
	switch msg.Cmd {
	case CmdSay:
		if msg.Text == "" {
			return Reply{}, errors.New("say: empty text")
		}
		resp, outcome := h.Turn(ctx, intent.Utterance{
			Text:       msg.Text,
			Confidence: 1.0,
			Timestamp:  float64(time.Now().UnixNano()) / float64(time.Second),
		})
		return Reply{OK: true, Text: resp.Text, Outcome: outcome.String()}, nil

	case CmdStop:
		h.Stop()
		return Reply{OK: true, State: h.State().String()}, nil

	case CmdStatus:
		return Reply{OK: true, State: h.State().String()}, nil

	default:
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Cmd)
	}
}

// Send delivers one command to the daemon at path and waits for its reply.
func Send(ctx context.Context, path string, msg ControlMessage) (Reply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.Error != "" {
		return reply, errors.New(reply.Error)
	}
	return reply, nil
}
