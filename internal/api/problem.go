package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/resolutehq/resolute/internal/classifier"
	"github.com/resolutehq/resolute/internal/export"
	"github.com/resolutehq/resolute/internal/session"
	"github.com/resolutehq/resolute/internal/store"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://resolute.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://resolute.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://resolute.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusConflict: {
		typeURI: "https://resolute.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusInternalServerError: {
		typeURI: "https://resolute.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusBadGateway: {
		typeURI: "https://resolute.dev/errors/bad-gateway",
		title:   "Bad Gateway",
	},
	http.StatusServiceUnavailable: {
		typeURI: "https://resolute.dev/errors/service-unavailable",
		title:   "Service Unavailable",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://resolute.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Goal not found")
	case errors.Is(err, store.ErrMilestoneNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Milestone not found")
	case errors.Is(err, session.ErrBusy):
		WriteProblem(w, r, http.StatusConflict, "Another input is being processed")
	case errors.Is(err, session.ErrEmptyInput):
		WriteProblem(w, r, http.StatusBadRequest, "Input text is required")
	case errors.Is(err, classifier.ErrMalformedResponse):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Classifier service temporarily unavailable")
	case errors.Is(err, classifier.ErrRejected):
		WriteProblem(w, r, http.StatusBadGateway, "Classifier service rejected the request")
	case errors.Is(err, export.ErrInvalidBackup):
		WriteProblem(w, r, http.StatusBadRequest, "Invalid backup file format")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
