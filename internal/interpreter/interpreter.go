// Package interpreter validates and applies classifier intents against the
// goal store, producing a user-facing message.
package interpreter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/resolutehq/resolute/internal/store"
	"github.com/resolutehq/resolute/internal/types"
)

// DefaultMessage is returned when the classifier produced no message of its
// own.
const DefaultMessage = "I'm here to support your journey!"

// Interpreter applies intents to the goal store.
type Interpreter struct {
	store *store.GoalStore
}

// New creates an Interpreter over the given store.
func New(s *store.GoalStore) *Interpreter {
	return &Interpreter{store: s}
}

// Interpret applies the intent and returns the display message. The mutation
// outcome never blocks the message: an add without a title and an update
// referencing a missing goal both leave the store unchanged and still reply.
// Repeated calls with the same intent are not idempotent; callers must invoke
// at most once per logical input.
func (i *Interpreter) Interpret(ctx context.Context, intent *types.Intent, rawInput string) string {
	switch intent.Action {
	case types.ActionAdd:
		i.applyAdd(ctx, intent)
	case types.ActionUpdate:
		i.applyUpdate(ctx, intent, rawInput)
	case types.ActionCheckIn, types.ActionMotivate, types.ActionAnalyze:
		// Message passthrough only; no store mutation.
	}

	if msg := strings.TrimSpace(intent.Data.Message); msg != "" {
		return msg
	}
	return DefaultMessage
}

// applyAdd creates a goal when a non-empty title is present. A titleless add
// intent degrades to a no-op rather than an error.
func (i *Interpreter) applyAdd(ctx context.Context, intent *types.Intent) {
	title := strings.TrimSpace(intent.Data.Title)
	if title == "" {
		slog.Debug("add intent without title ignored", "component", "interpreter")
		return
	}

	category := types.NormalizeCategory(intent.Data.Category)
	if _, err := i.store.CreateGoal(ctx, title, category); err != nil {
		slog.Warn("goal creation failed",
			"component", "interpreter",
			"error", err,
		)
	}
}

// applyUpdate applies the progress delta to the referenced goal. A missing or
// unresolvable goal id leaves the store unchanged; the accompanying message
// still surfaces to the user.
func (i *Interpreter) applyUpdate(ctx context.Context, intent *types.Intent, rawInput string) {
	if intent.ResolutionID == "" {
		return
	}

	text := strings.TrimSpace(intent.Data.UpdateText)
	if text == "" {
		text = rawInput
	}

	// Fractional deltas truncate toward zero.
	_, err := i.store.ApplyUpdate(ctx, intent.ResolutionID, int(intent.Data.ProgressDelta), text)
	if errors.Is(err, store.ErrNotFound) {
		slog.Debug("update intent referenced unknown goal",
			"component", "interpreter",
			"goal_id", intent.ResolutionID,
		)
		return
	}
	if err != nil {
		slog.Warn("goal update failed",
			"component", "interpreter",
			"goal_id", intent.ResolutionID,
			"error", err,
		)
	}
}
