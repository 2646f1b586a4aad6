package types

import (
	"encoding/json"
	"time"
)

// GoalCategory classifies a goal into one of the fixed category buckets.
type GoalCategory string

const (
	CategoryHealth        GoalCategory = "health"
	CategoryCareer        GoalCategory = "career"
	CategoryPersonal      GoalCategory = "personal"
	CategoryFinance       GoalCategory = "finance"
	CategoryLearning      GoalCategory = "learning"
	CategoryRelationships GoalCategory = "relationships"
)

// Categories lists all valid goal categories.
var Categories = []GoalCategory{
	CategoryHealth,
	CategoryCareer,
	CategoryPersonal,
	CategoryFinance,
	CategoryLearning,
	CategoryRelationships,
}

// NormalizeCategory maps a free-form category string onto the closed set.
// Unrecognized or empty values default to "personal".
func NormalizeCategory(s string) GoalCategory {
	for _, c := range Categories {
		if GoalCategory(s) == c {
			return c
		}
	}
	return CategoryPersonal
}

// Goal represents a tracked personal resolution with its full history.
type Goal struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Category   GoalCategory `json:"category"`
	Progress   int          `json:"progress"`
	CreatedAt  time.Time    `json:"createdAt"`
	Updates    []Update     `json:"updates"`
	Milestones []Milestone  `json:"milestones"`
}

// Update is an append-only progress log entry. ProgressChange records the
// requested delta before clamping; the goal's Progress reflects the clamped
// value.
type Update struct {
	Text           string    `json:"text"`
	Date           time.Time `json:"date"`
	ProgressChange int       `json:"progressChange"`
}

// Milestone is a checklist item attached to a goal. Only the Completed flag
// is mutable after creation.
type Milestone struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// PendingInput is a raw user input buffered while offline, awaiting
// classification. Consumed exactly once, in FIFO order.
type PendingInput struct {
	InputText string    `json:"input"`
	Timestamp time.Time `json:"timestamp"`
}

// IntentAction is the tag of the classifier's intent variant.
type IntentAction string

const (
	ActionAdd      IntentAction = "add"
	ActionUpdate   IntentAction = "update"
	ActionCheckIn  IntentAction = "check-in"
	ActionMotivate IntentAction = "motivate"
	ActionAnalyze  IntentAction = "analyze"
)

// ValidAction reports whether a is a member of the closed action set.
func ValidAction(a IntentAction) bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionCheckIn, ActionMotivate, ActionAnalyze:
		return true
	}
	return false
}

// Intent is the structured interpretation of free-form user text returned by
// the classifier. All Data fields are best effort; the interpreter must not
// trust any of them beyond syntactic validity.
type Intent struct {
	Action       IntentAction `json:"action"`
	ResolutionID string       `json:"resolutionId,omitempty"`
	Data         IntentData   `json:"data"`
}

// IntentData carries the action-specific payload of an intent. ProgressDelta
// is float64 because the model may answer with a fractional number; it is
// truncated when applied.
type IntentData struct {
	Title         string  `json:"title,omitempty"`
	Category      string  `json:"category,omitempty"`
	UpdateText    string  `json:"updateText,omitempty"`
	ProgressDelta float64 `json:"progressDelta,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// Momentum is a coarse recency-based activity classification.
type Momentum string

const (
	MomentumHigh   Momentum = "High"
	MomentumMedium Momentum = "Medium"
	MomentumLow    Momentum = "Low"
)

// CategoryProgress aggregates goals sharing a category.
type CategoryProgress struct {
	Category    GoalCategory `json:"category"`
	Count       int          `json:"count"`
	AvgProgress float64      `json:"avgProgress"`
}

// Report is the analytics engine output for a store snapshot.
type Report struct {
	TotalGoals       int                `json:"totalGoals"`
	AvgProgress      float64            `json:"avgProgress"`
	TotalUpdates     int                `json:"totalUpdates"`
	ActiveGoals      int                `json:"activeGoals"`
	CompletedGoals   int                `json:"completedGoals"`
	CategoryProgress []CategoryProgress `json:"categoryProgress"`
	Momentum         Momentum           `json:"momentum"`
	Recommendations  []string           `json:"recommendations"`
	RecentActivity   int                `json:"recentActivity"`
	WeeklyActivity   int                `json:"weeklyActivity"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// BackupEnvelope is the superset backup/restore format. Restore requires
// Version and Resolutions to be present.
type BackupEnvelope struct {
	Resolutions    []Goal         `json:"resolutions"`
	PendingUpdates []PendingInput `json:"pendingUpdates"`
	Version        string         `json:"version"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	ClassifierModel string `json:"classifier_model"`
	GoalCount       int    `json:"goal_count"`
	Offline         bool   `json:"offline"`
	PendingInputs   int    `json:"pending_inputs"`
}

// InputReply is the response to a natural-language input submission.
type InputReply struct {
	Message      string `json:"message"`
	Queued       bool   `json:"queued"`
	PendingCount int    `json:"pendingCount"`
}

// QueueStatus reports the offline queue state to the presentation layer.
type QueueStatus struct {
	Offline      bool           `json:"offline"`
	PendingCount int            `json:"pendingCount"`
	Pending      []PendingInput `json:"pending"`
}

// MarshalJSON ensures nil slices in Goal marshal as [] not null.
func (g Goal) MarshalJSON() ([]byte, error) {
	if g.Updates == nil {
		g.Updates = []Update{}
	}
	if g.Milestones == nil {
		g.Milestones = []Milestone{}
	}
	type Alias Goal
	return json.Marshal(Alias(g))
}

// MarshalJSON ensures nil slices in Report marshal as [] not null.
func (r Report) MarshalJSON() ([]byte, error) {
	if r.CategoryProgress == nil {
		r.CategoryProgress = []CategoryProgress{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	type Alias Report
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures nil slices in QueueStatus marshal as [] not null.
func (q QueueStatus) MarshalJSON() ([]byte, error) {
	if q.Pending == nil {
		q.Pending = []PendingInput{}
	}
	type Alias QueueStatus
	return json.Marshal(Alias(q))
}
