// Package classifier is the gateway to the external language-model service
// that interprets free-form user text into structured intents.
package classifier

import (
	"context"
	"errors"

	"github.com/resolutehq/resolute/internal/types"
)

var (
	// ErrUnavailable indicates a transport-level failure reaching the
	// service. Callers treat this as connectivity loss and queue the input.
	ErrUnavailable = errors.New("classifier service unavailable")

	// ErrMalformedResponse indicates the service answered but the payload
	// could not be parsed into a valid intent. The input is not retried.
	ErrMalformedResponse = errors.New("malformed classifier response")

	// ErrRejected indicates the service answered with an error status (bad
	// key, rate limit, invalid request). The service is reachable, so the
	// input is surfaced to the caller and never queued for replay.
	ErrRejected = errors.New("classifier request rejected")
)

// Classifier defines the interface contract for intent classification.
type Classifier interface {
	Classify(ctx context.Context, goals []types.Goal, userText string) (*types.Intent, error)
	ModelName() string
}
