// Package store holds the in-memory goal set, the single source of truth for
// all resolution state. Every mutation goes through one of its operations and
// is followed by a persistence write through the storage collaborator.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/resolutehq/resolute/internal/storage"
	"github.com/resolutehq/resolute/internal/types"
)

// StorageKey is the blob key the serialized goal set lives under.
const StorageKey = "resolutions-data"

var (
	// ErrNotFound is returned when a referenced goal id does not exist.
	ErrNotFound = errors.New("goal not found")

	// ErrMilestoneNotFound is returned when a referenced milestone id does
	// not exist on the goal.
	ErrMilestoneNotFound = errors.New("milestone not found")
)

// GoalStore is the mutex-guarded in-memory goal set. Persistence failures are
// non-fatal: the in-memory state stays authoritative for the session and the
// failure is logged as recoverable.
type GoalStore struct {
	mu      sync.Mutex
	goals   []types.Goal
	storage storage.Storage
	now     func() time.Time
}

// New creates an empty GoalStore persisting through st.
func New(st storage.Storage) *GoalStore {
	return &GoalStore{
		storage: st,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store's time source. Intended for tests.
func (s *GoalStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Load replaces the in-memory goal set with the persisted snapshot. A missing
// blob means a fresh store and is not an error.
func (s *GoalStore) Load(ctx context.Context) error {
	data, err := s.storage.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}

	var goals []types.Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return fmt.Errorf("decode goals: %w", err)
	}

	s.mu.Lock()
	s.goals = goals
	s.mu.Unlock()
	return nil
}

// CreateGoal adds a new goal with progress 0 and empty history.
func (s *GoalStore) CreateGoal(ctx context.Context, title string, category types.GoalCategory) (*types.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal := types.Goal{
		ID:         ulid.Make().String(),
		Title:      title,
		Category:   category,
		Progress:   0,
		CreatedAt:  s.now(),
		Updates:    []types.Update{},
		Milestones: []types.Milestone{},
	}
	s.goals = append(s.goals, goal)
	s.persist(ctx)

	out := cloneGoal(goal)
	return &out, nil
}

// ApplyUpdate applies a progress delta to the goal and appends an Update
// record. The recorded ProgressChange is the requested delta; the goal's
// Progress is clamped into [0,100].
func (s *GoalStore) ApplyUpdate(ctx context.Context, id string, delta int, text string) (*types.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	goal := &s.goals[i]
	goal.Progress = clampProgress(goal.Progress + delta)
	goal.Updates = append(goal.Updates, types.Update{
		Text:           text,
		Date:           s.now(),
		ProgressChange: delta,
	})
	s.persist(ctx)

	out := cloneGoal(*goal)
	return &out, nil
}

// RenameGoal replaces the goal's title.
func (s *GoalStore) RenameGoal(ctx context.Context, id, title string) (*types.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	s.goals[i].Title = title
	s.persist(ctx)

	out := cloneGoal(s.goals[i])
	return &out, nil
}

// DeleteGoal removes the goal and all its nested history. Returns false when
// the id does not exist.
func (s *GoalStore) DeleteGoal(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false, nil
	}

	s.goals = append(s.goals[:i], s.goals[i+1:]...)
	s.persist(ctx)
	return true, nil
}

// AddMilestone appends a new incomplete milestone to the goal.
func (s *GoalStore) AddMilestone(ctx context.Context, id, text string) (*types.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	milestone := types.Milestone{
		ID:        ulid.Make().String(),
		Text:      text,
		Completed: false,
		CreatedAt: s.now(),
	}
	s.goals[i].Milestones = append(s.goals[i].Milestones, milestone)
	s.persist(ctx)
	return &milestone, nil
}

// ToggleMilestone flips the completed flag of the milestone.
func (s *GoalStore) ToggleMilestone(ctx context.Context, id, milestoneID string) (*types.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	for j := range s.goals[i].Milestones {
		if s.goals[i].Milestones[j].ID == milestoneID {
			s.goals[i].Milestones[j].Completed = !s.goals[i].Milestones[j].Completed
			s.persist(ctx)
			out := s.goals[i].Milestones[j]
			return &out, nil
		}
	}
	return nil, ErrMilestoneNotFound
}

// Get returns a copy of the goal with the given id.
func (s *GoalStore) Get(id string) (*types.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	out := cloneGoal(s.goals[i])
	return &out, nil
}

// Snapshot returns a deep copy of the full goal set in insertion order.
func (s *GoalStore) Snapshot() []types.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Goal, len(s.goals))
	for i, g := range s.goals {
		out[i] = cloneGoal(g)
	}
	return out
}

// Count returns the number of goals.
func (s *GoalStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.goals)
}

// ReplaceAll swaps the entire goal set, used by backup restore.
func (s *GoalStore) ReplaceAll(ctx context.Context, goals []types.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]types.Goal, len(goals))
	for i, g := range goals {
		replacement[i] = cloneGoal(g)
	}
	s.goals = replacement
	s.persist(ctx)
	return nil
}

// Save forces a persistence write of the current goal set.
func (s *GoalStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

// index returns the position of the goal with the given id, or -1.
// Caller must hold s.mu.
func (s *GoalStore) index(id string) int {
	for i := range s.goals {
		if s.goals[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes the goal set through the storage collaborator. Failures are
// logged and swallowed: in-memory state remains authoritative, at risk of
// loss on process termination. Caller must hold s.mu.
func (s *GoalStore) persist(ctx context.Context) {
	if err := s.save(ctx); err != nil {
		slog.Warn("goal persistence failed",
			"component", "store",
			"goal_count", len(s.goals),
			"error", err,
		)
	}
}

// save serializes and writes the goal set. Caller must hold s.mu.
func (s *GoalStore) save(ctx context.Context) error {
	goals := s.goals
	if goals == nil {
		goals = []types.Goal{}
	}
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("write goals: %w", err)
	}
	return nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func cloneGoal(g types.Goal) types.Goal {
	out := g
	out.Updates = make([]types.Update, len(g.Updates))
	copy(out.Updates, g.Updates)
	out.Milestones = make([]types.Milestone, len(g.Milestones))
	copy(out.Milestones, g.Milestones)
	return out
}
