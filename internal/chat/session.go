package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stream-chat/internal/logging"
	"stream-chat/internal/models"
	"stream-chat/internal/stream"
)

type Kind string

const (
	KindLoad   Kind = "load"
	KindSubmit Kind = "submit"
)

// Session is one in-flight request. Stop cancels exactly this request; a
// stopped session never delivers another batch.
type Session struct {
	ID   string
	Kind Kind

	ctx     context.Context
	cancel  context.CancelFunc
	batches chan []models.Message
	errs    chan error
	done    chan struct{}

	mu      sync.Mutex
	stopped bool
	started time.Time
}

func newSession(ctx context.Context, cancel context.CancelFunc, kind Kind) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Kind:    kind,
		ctx:     ctx,
		cancel:  cancel,
		batches: make(chan []models.Message),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		started: time.Now(),
	}
}

// Batches yields every message materialized so far, once per received chunk.
// It is closed when the stream ends, fails or is stopped.
func (s *Session) Batches() <-chan []models.Message {
	return s.batches
}

// Err yields at most one error. Stopping is not an error.
func (s *Session) Err() <-chan error {
	return s.errs
}

// Done is closed once the session goroutine has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels the request. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	already := s.stopped
	s.stopped = true
	s.mu.Unlock()

	if !already {
		logging.With(logging.Fields{"session": s.ID, "kind": s.Kind}).Info("Session stopped")
	}
	s.cancel()
}

func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Wait drains the session and returns the last batch and the error, if any
func (s *Session) Wait() ([]models.Message, error) {
	var last []models.Message
	for batch := range s.batches {
		last = batch
	}
	<-s.done
	select {
	case err := <-s.errs:
		return last, err
	default:
		return last, nil
	}
}

func (s *Session) run(fn func(ctx context.Context, emit stream.EmitFunc) error) {
	log := logging.With(logging.Fields{"session": s.ID, "kind": s.Kind})
	log.Debug("Session started")

	defer close(s.done)
	defer close(s.errs)
	defer close(s.batches)
	defer s.cancel()

	chunks := 0
	err := fn(s.ctx, func(messages []models.Message) error {
		chunks++
		select {
		case s.batches <- messages:
			return nil
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	})

	switch {
	case err == nil:
		log.Infof("Session completed: %d batches in %s", chunks, time.Since(s.started).Round(time.Millisecond))
	case stream.IsCanceled(err) && s.ctx.Err() != nil:
		log.Info("Session cancelled")
	default:
		log.Errorf("Session failed: %v", err)
		s.errs <- err
	}
}
