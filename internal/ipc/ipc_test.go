package ipc

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

func startServer(t *testing.T, h Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jarvis.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, path, h) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool {
		_, err := Send(context.Background(), path, ControlMessage{Cmd: CmdStatus})
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	return path
}

func newOrchestrator() *jarvis.Orchestrator {
	return jarvis.New(jarvis.DefaultSettings(),
		jarvis.WithSynthesizer(jarvis.SynthesizerFunc(func(context.Context, jarvis.Response) error { return nil })),
		jarvis.WithActuator(jarvis.ActuatorFunc(func(context.Context, intent.Action) bool { return true })),
	)
}

func TestServe_Say(t *testing.T) {
	var (
		mu  sync.Mutex
		got []intent.Action
	)
	o := jarvis.New(jarvis.DefaultSettings(),
		jarvis.WithSynthesizer(jarvis.SynthesizerFunc(func(context.Context, jarvis.Response) error { return nil })),
		jarvis.WithActuator(jarvis.ActuatorFunc(func(_ context.Context, a intent.Action) bool {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, a)
			return true
		})),
	)

	path := startServer(t, o)

	reply, err := Send(context.Background(), path, ControlMessage{Cmd: CmdSay, Text: "jarvis abrir chrome"})
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "Abriendo chrome", reply.Text)
	assert.Equal(t, "pipeline", reply.Outcome)

	reply, err = Send(context.Background(), path, ControlMessage{Cmd: CmdSay, Text: "abrir chrome"})
	require.NoError(t, err)
	assert.Equal(t, "ignored", reply.Outcome)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "chrome", got[0].Target)
}

func TestServe_Stop(t *testing.T) {
	o := newOrchestrator()
	path := startServer(t, o)

	reply, err := Send(context.Background(), path, ControlMessage{Cmd: CmdStop})
	require.NoError(t, err)
	assert.Equal(t, "terminated", reply.State)
	assert.Equal(t, jarvis.Terminated, o.State())
}

func TestServe_Errors(t *testing.T) {
	path := startServer(t, newOrchestrator())

	_, err := Send(context.Background(), path, ControlMessage{Cmd: "dance"})
	assert.ErrorContains(t, err, ErrUnknownCommand.Error())

	_, err = Send(context.Background(), path, ControlMessage{Cmd: CmdSay})
	assert.Error(t, err)
}

func TestSend_NoDaemon(t *testing.T) {
	_, err := Send(context.Background(), filepath.Join(t.TempDir(), "none.sock"), ControlMessage{Cmd: CmdStatus})
	assert.Error(t, err)
}
