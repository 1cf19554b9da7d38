package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEngine_Transcribe(t *testing.T) {
	var (
		gotPath string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" Jarvis, abrir chrome [BLANK_AUDIO]"}`)
	}))
	defer srv.Close()

	client := openai.NewClient(
		option.WithBaseURL(srv.URL+"/v1"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	eng := NewOpenAIEngine(client, "es")

	text, err := eng.Transcribe(context.Background(), []float32{0, 0.5, -0.5, 0})
	require.NoError(t, err)

	assert.Equal(t, "Jarvis, abrir chrome", text)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Contains(t, gotBody, "whisper-1")
	assert.Contains(t, gotBody, "RIFF", "upload must be a wav file")
}

func TestOpenAIEngine_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := openai.NewClient(
		option.WithBaseURL(srv.URL+"/v1"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)

	_, err := NewOpenAIEngine(client, "").Transcribe(context.Background(), []float32{0.1})
	assert.Error(t, err)
}

func TestOpenAIEngine_Empty(t *testing.T) {
	_, err := NewOpenAIEngine(openai.NewClient(option.WithAPIKey("test")), "es").Transcribe(context.Background(), nil)
	assert.Error(t, err)
}
