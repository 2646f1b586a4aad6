// Package session orchestrates the input pipeline: classifier gateway →
// interpreter → goal store, with the offline queue diverting inputs while the
// gateway is unreachable and replaying them, in order, on reconnection.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/resolutehq/resolute/internal/classifier"
	"github.com/resolutehq/resolute/internal/interpreter"
	"github.com/resolutehq/resolute/internal/queue"
	"github.com/resolutehq/resolute/internal/store"
	"github.com/resolutehq/resolute/internal/types"
)

var (
	// ErrBusy is returned when a submission arrives while another input is
	// still being processed. Duplicate rapid submissions would otherwise
	// append duplicate Update records for a single user action.
	ErrBusy = errors.New("another input is already being processed")

	// ErrEmptyInput is returned for blank submissions.
	ErrEmptyInput = errors.New("input text is empty")
)

// User-facing replies for queue diversions.
const (
	offlineMessage        = "You're offline! I've saved your update and will process it when you're back online."
	connectionLostMessage = "Connection lost. I'll save your update and try again when you're back online."
)

// Session owns the single logical thread of control for one user. proc
// serializes live input handling and queue drains; a held lock at submission
// time means a second concurrent submission, which is rejected rather than
// interleaved.
type Session struct {
	proc       sync.Mutex
	store      *store.GoalStore
	classifier classifier.Classifier
	queue      *queue.Pending
	interp     *interpreter.Interpreter
	offline    atomic.Bool
	now        func() time.Time
}

// New creates a session over the given collaborators, starting online.
func New(s *store.GoalStore, c classifier.Classifier, q *queue.Pending) *Session {
	return &Session{
		store:      s,
		classifier: c,
		queue:      q,
		interp:     interpreter.New(s),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the session's time source. Intended for tests.
func (s *Session) SetClock(now func() time.Time) {
	s.now = now
}

// Offline reports whether the session currently considers the classifier
// unreachable.
func (s *Session) Offline() bool {
	return s.offline.Load()
}

// PendingCount returns the number of inputs waiting in the offline queue.
func (s *Session) PendingCount() int {
	return s.queue.Len()
}

// HandleInput runs one raw user input through the pipeline. While offline the
// input is queued instead of classified. A gateway transport failure flips
// the session offline and queues the input transparently; a malformed
// response is surfaced to the caller and not queued.
func (s *Session) HandleInput(ctx context.Context, text string) (*types.InputReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if !s.proc.TryLock() {
		return nil, ErrBusy
	}
	defer s.proc.Unlock()

	if s.offline.Load() {
		s.enqueue(ctx, text)
		return &types.InputReply{
			Message:      offlineMessage,
			Queued:       true,
			PendingCount: s.queue.Len(),
		}, nil
	}

	intent, err := s.classifier.Classify(ctx, s.store.Snapshot(), text)
	if errors.Is(err, classifier.ErrUnavailable) {
		s.offline.Store(true)
		s.enqueue(ctx, text)
		slog.Info("classifier unreachable, input queued",
			"component", "session",
			"pending", s.queue.Len(),
		)
		return &types.InputReply{
			Message:      connectionLostMessage,
			Queued:       true,
			PendingCount: s.queue.Len(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	message := s.interp.Interpret(ctx, intent, text)
	return &types.InputReply{Message: message, PendingCount: s.queue.Len()}, nil
}

// SetOnline records the connectivity state. An offline→online transition
// triggers a sequential drain of the pending queue through the same
// classify→interpret path as live input.
func (s *Session) SetOnline(ctx context.Context, online bool) {
	if !online {
		s.offline.Store(true)
		return
	}

	wasOffline := s.offline.Swap(false)
	if wasOffline || s.queue.Len() > 0 {
		s.proc.Lock()
		defer s.proc.Unlock()
		s.drain(ctx)
	}
}

// drain replays queued inputs strictly in FIFO order, one at a time, so
// progress deltas land in causal order. Each item is removed only after it
// has been interpreted (at-most-once per logical input). A transport failure
// mid-drain leaves the item at the head and flips the session back offline;
// any other failure drops the item after a logged warning so it cannot block
// the rest of the queue.
func (s *Session) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		item := s.queue.Peek()
		if item == nil {
			return
		}

		intent, err := s.classifier.Classify(ctx, s.store.Snapshot(), item.InputText)
		if errors.Is(err, classifier.ErrUnavailable) {
			s.offline.Store(true)
			slog.Info("drain interrupted, connectivity lost",
				"component", "session",
				"pending", s.queue.Len(),
			)
			return
		}
		if err != nil {
			slog.Warn("queued input dropped",
				"component", "session",
				"input", item.InputText,
				"error", err,
			)
			s.shift(ctx)
			continue
		}

		s.interp.Interpret(ctx, intent, item.InputText)
		s.shift(ctx)
	}
}

// enqueue appends to the pending queue, logging persistence failures as
// recoverable.
func (s *Session) enqueue(ctx context.Context, text string) {
	if err := s.queue.Enqueue(ctx, text, s.now()); err != nil {
		slog.Warn("queue persistence failed",
			"component", "session",
			"error", err,
		)
	}
}

// shift removes the head of the queue, logging persistence failures as
// recoverable.
func (s *Session) shift(ctx context.Context) {
	if _, err := s.queue.Shift(ctx); err != nil {
		slog.Warn("queue persistence failed",
			"component", "session",
			"error", err,
		)
	}
}
