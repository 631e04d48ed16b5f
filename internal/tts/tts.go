// Package tts speaks assistant replies through the cabin speakers.
package tts

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
)

var ErrMissingCredentials = errors.New("speech credentials missing")

// Speaker synthesizes text and plays it on the default output device.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Chain tries each speaker in order until one succeeds.
type Chain []Speaker

func (c Chain) Speak(ctx context.Context, text string) error {
	if len(c) == 0 {
		return errors.New("no speakers configured")
	}

	var errs []error
	for i, s := range c {
		err := s.Speak(ctx, text)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Speaker failed", "index", i, "err", err)
		errs = append(errs, err)
	}

	return fmt.Errorf("all speakers failed: %w", errors.Join(errs...))
}
