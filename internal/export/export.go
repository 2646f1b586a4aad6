// Package export renders the goal set into interchange formats: JSON and CSV
// exports plus the backup/restore envelope.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resolutehq/resolute/internal/types"
)

// ErrInvalidBackup is returned when a restore envelope is missing required
// fields. Current state is never mutated on rejection.
var ErrInvalidBackup = errors.New("invalid backup envelope")

// BackupVersion is the envelope format version written by this build.
const BackupVersion = "1.0"

const dateLayout = "2006-01-02"

// jsonExport is the JSON export envelope: goals plus the computed report.
type jsonExport struct {
	Resolutions []types.Goal  `json:"resolutions"`
	ExportDate  time.Time     `json:"exportDate"`
	Analytics   *types.Report `json:"analytics"`
}

// JSON renders the goal set and report as an indented JSON export.
func JSON(goals []types.Goal, report *types.Report, now time.Time) ([]byte, error) {
	if goals == nil {
		goals = []types.Goal{}
	}
	out, err := json.MarshalIndent(jsonExport{
		Resolutions: goals,
		ExportDate:  now,
		Analytics:   report,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

// CSV renders one flattened row per goal. Titles are double-quote wrapped
// with internal quotes doubled.
func CSV(goals []types.Goal) []byte {
	var b strings.Builder
	b.WriteString("Title,Category,Progress,Created Date,Last Update,Updates Count\n")

	for _, g := range goals {
		lastUpdate := "None"
		if len(g.Updates) > 0 {
			lastUpdate = g.Updates[len(g.Updates)-1].Date.Format(dateLayout)
		}
		fmt.Fprintf(&b, "%s,%s,%d,%s,%s,%d\n",
			quoteField(g.Title),
			g.Category,
			g.Progress,
			g.CreatedAt.Format(dateLayout),
			lastUpdate,
			len(g.Updates),
		)
	}

	return []byte(b.String())
}

// quoteField wraps a value in double quotes, doubling any internal quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Backup builds the superset backup envelope over goals and the pending
// queue.
func Backup(goals []types.Goal, pending []types.PendingInput, now time.Time) ([]byte, error) {
	if goals == nil {
		goals = []types.Goal{}
	}
	if pending == nil {
		pending = []types.PendingInput{}
	}
	out, err := json.MarshalIndent(types.BackupEnvelope{
		Resolutions:    goals,
		PendingUpdates: pending,
		Version:        BackupVersion,
		CreatedAt:      now,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return out, nil
}

// ParseBackup validates and decodes a backup envelope. Envelopes missing the
// version or resolutions fields are rejected with ErrInvalidBackup.
func ParseBackup(data []byte) (*types.BackupEnvelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if _, ok := fields["version"]; !ok {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if _, ok := fields["resolutions"]; !ok {
		return nil, fmt.Errorf("%w: missing resolutions", ErrInvalidBackup)
	}

	var envelope types.BackupEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return &envelope, nil
}
