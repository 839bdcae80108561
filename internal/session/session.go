// Package session drives one chat exchange with the remote generator
// through the screen: click the input, paste the prompt, submit, wait for
// the busy indicator to clear, then copy the response out via the
// clipboard. The interface is a single shared pointer/keyboard/clipboard,
// so everything here runs strictly in sequence.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xcervi19/orakulum/internal/input"
	"github.com/xcervi19/orakulum/internal/logging"
	"github.com/xcervi19/orakulum/internal/screen"
	"github.com/xcervi19/orakulum/pkg/templates"
)

// Sentinel errors for the per-attempt failure modes
var (
	ErrElementNotFound = errors.New("ui element not found")
	ErrEmptyResponse   = errors.New("copied response empty or too short")
)

// minResponseLength guards against the copy click landing before the
// clipboard updated
const minResponseLength = 10

// Surface is the subset of the locator the session needs
type Surface interface {
	Click(name string) (bool, error)
}

// Awaiter detects completion of the remote generation
type Awaiter interface {
	Await(ctx context.Context) screen.Outcome
}

// Session submits prompts through the screen and extracts responses
type Session struct {
	surface  Surface
	detector Awaiter
	input    input.Driver

	retries    int
	retryDelay time.Duration
	copySettle time.Duration

	log *logging.Logger
}

// New creates a session over the given automation primitives
func New(surface Surface, detector Awaiter, driver input.Driver, retries int, retryDelay, copySettle time.Duration) *Session {
	if retries < 1 {
		retries = 1
	}
	return &Session{
		surface:    surface,
		detector:   detector,
		input:      driver,
		retries:    retries,
		retryDelay: retryDelay,
		copySettle: copySettle,
		log:        logging.NewLogger("session"),
	}
}

// Generate submits a prompt and returns the extracted response, retrying
// the whole exchange on failure up to the configured attempt count
func (s *Session) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempt > 1 {
			s.log.Infof("retry attempt %d/%d", attempt, s.retries)
			if !sleepCtx(ctx, s.retryDelay) {
				return "", ctx.Err()
			}
		}

		response, err := s.generateOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err
		s.log.Error(fmt.Sprintf("attempt %d failed", attempt), err)
	}
	return "", fmt.Errorf("all %d attempts failed: %w", s.retries, lastErr)
}

// generateOnce performs a single full exchange
func (s *Session) generateOnce(ctx context.Context, prompt string) (string, error) {
	// Focus the input and replace whatever is in it
	if ok, err := s.surface.Click(templates.RefTextarea); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, templates.RefTextarea)
	}
	if err := s.input.SelectAll(); err != nil {
		return "", err
	}
	if err := s.input.PasteText(prompt); err != nil {
		return "", err
	}

	// Submit
	if ok, err := s.surface.Click(templates.RefSend); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, templates.RefSend)
	}

	// Completion is inferred from the busy indicator disappearing. A
	// timeout degrades to best-effort: proceed and extract whatever is
	// there.
	switch s.detector.Await(ctx) {
	case screen.OutcomeCancelled:
		return "", ctx.Err()
	case screen.OutcomeTimedOut:
		s.log.Warn("generation wait timed out, extracting partial response")
	}

	// Reveal the copy control; keyboard scroll is the fallback when the
	// scroll affordance is not visible
	if ok, _ := s.surface.Click(templates.RefScroll); !ok {
		s.log.Debug("scroll control not found, falling back to keyboard scroll")
		if err := s.input.PageDown(); err != nil {
			return "", err
		}
	}
	if !sleepCtx(ctx, s.copySettle) {
		return "", ctx.Err()
	}

	// The copy control is the only reliable extraction path; a keyboard
	// copy would grab the selection, not the response
	if ok, err := s.surface.Click(templates.RefCopy); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, templates.RefCopy)
	}
	if !sleepCtx(ctx, 500*time.Millisecond) {
		return "", ctx.Err()
	}

	response, err := s.input.ReadClipboard()
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(response)) < minResponseLength {
		return "", ErrEmptyResponse
	}

	s.log.Infof("extracted response (%d chars)", len(response))
	return response, nil
}

// NewChat clicks the new-chat affordance, starting a fresh conversation
// context. Returns false when the control is not visible.
func (s *Session) NewChat() bool {
	ok, err := s.surface.Click(templates.RefNewChat)
	if err != nil {
		s.log.Error("new chat click failed", err)
		return false
	}
	return ok
}

func sleepCtx(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
