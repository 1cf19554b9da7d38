// Package provider picks the first working backend from an ordered list.
package provider

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
)

var ErrNoProvider = errors.New("no provider available")

// Provider is a named constructor for one backend.
type Provider[T any] struct {
	Name string
	Open func(ctx context.Context) (T, error)
}

// First opens providers in order and returns the first that succeeds along
// with its name. Failures are logged and collected into the returned error
// when every provider fails.
func First[T any](ctx context.Context, providers ...Provider[T]) (T, string, error) {
	var (
		zero T
		errs []error
	)

	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		v, err := p.Open(ctx)
		if err != nil {
			log.Warn("Provider unavailable", "provider", p.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
			continue
		}

		log.Debug("Provider selected", "provider", p.Name)
		return v, p.Name, nil
	}

	return zero, "", errors.Join(append([]error{ErrNoProvider}, errs...)...)
}

// Select resolves names against a registry, keeping the order of names.
// Unknown names are an error.
func Select[T any](registry map[string]Provider[T], names []string) ([]Provider[T], error) {
	out := make([]Provider[T], 0, len(names))
	for _, name := range names {
		p, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		if p.Name == "" {
			p.Name = name
		}
		out = append(out, p)
	}
	return out, nil
}
