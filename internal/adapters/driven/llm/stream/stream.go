// Package stream holds the pieces shared by the streaming generation adapters:
// a pull-based driven.AnswerStream over a fragment source and readers for
// server-sent events and newline-delimited JSON.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Stream implements the interface.
var _ driven.AnswerStream = (*Stream)(nil)

// ErrTruncated reports a stream that ended before the backend signalled
// completion.
var ErrTruncated = errors.New("stream ended before completion")

// Source returns the next fragment. It returns io.EOF once the answer is
// complete; any other error ends the stream as a failure. Empty fragments
// are skipped.
type Source func() (string, error)

// Stream adapts a Source to driven.AnswerStream. Next and Text must be called
// from one goroutine; Close may be called from any.
type Stream struct {
	provider string
	next     Source
	cancel   context.CancelFunc
	body     io.Closer

	text   string
	err    error
	done   bool
	closed atomic.Bool
}

// New creates a stream. cancel and body may be nil; both are released on
// Close and when the source ends.
func New(provider string, next Source, cancel context.CancelFunc, body io.Closer) *Stream {
	return &Stream{provider: provider, next: next, cancel: cancel, body: body}
}

// Next advances to the next non-empty fragment.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	for {
		if s.closed.Load() {
			s.finish(nil)
			return false
		}
		frag, err := s.next()
		if err != nil {
			if s.closed.Load() || errors.Is(err, io.EOF) {
				s.finish(nil)
			} else {
				s.finish(fmt.Errorf("%w: %s: %w", domain.ErrGenerationBackend, s.provider, err))
			}
			return false
		}
		if frag != "" {
			s.text = frag
			return true
		}
	}
}

func (s *Stream) finish(err error) {
	s.done = true
	s.text = ""
	s.err = err
	s.release()
}

// Text returns the current fragment.
func (s *Stream) Text() string {
	return s.text
}

// Err returns the failure that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close stops the stream. It cancels the request instead of draining it.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.release()
}

func (s *Stream) release() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
