// Package metrics exposes Prometheus counters for the assistant pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Labels stay low-cardinality: no utterance text, no targets.

var (
	// TurnsTotal counts listen-loop turns by outcome (pipeline, greeting, ignored).
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_turns_total",
		Help: "Total number of heard utterances, by outcome.",
	}, []string{"outcome"})

	// IntentsTotal counts classified intents by kind.
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_intents_total",
		Help: "Total number of classified intents, by kind.",
	}, []string{"kind"})

	// ClassifierDisagreementsTotal counts turns where the observed pattern
	// strategy picked a different kind than the canonical classifier.
	ClassifierDisagreementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_classifier_disagreements_total",
		Help: "Total number of turns where classifier strategies disagreed on the kind.",
	})

	// ActionsTotal counts dispatched actions by type and result (ok, failed).
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jarvis_actions_total",
		Help: "Total number of dispatched system actions, by type and result.",
	}, []string{"type", "result"})

	// SpeakFailuresTotal counts synthesizer failures that fell back to text.
	SpeakFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_speak_failures_total",
		Help: "Total number of responses that could not be voiced.",
	})

	// ListenErrorsTotal counts transcriber errors other than silence.
	ListenErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jarvis_listen_errors_total",
		Help: "Total number of failed listen attempts.",
	})
)

func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
