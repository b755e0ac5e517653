package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ciecnow/backend/internal/models"
)

// ValidationError carries one message per invalid field. No remote call has been made.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StepError reports the write step that failed and the steps already committed before it.
// Committed steps are not rolled back.
type StepError struct {
	Op        string
	Failed    string
	Committed []string
	Err       error
}

func (e *StepError) Error() string {
	committed := "none"
	if len(e.Committed) > 0 {
		committed = strings.Join(e.Committed, ", ")
	}
	return fmt.Sprintf("%s: step %q failed (committed: %s): %v", e.Op, e.Failed, committed, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// BlockedError is returned when a meeting category still has meetings and cannot be deleted.
type BlockedError struct {
	CategoryID uuid.UUID
	Meetings   []models.Meeting
}

func (e *BlockedError) Error() string {
	names := make([]string, 0, len(e.Meetings))
	for _, m := range e.Meetings {
		names = append(names, fmt.Sprintf("%s (%s)", m.Subject, m.Date))
	}
	return fmt.Sprintf("category has %d meeting(s) and cannot be deleted: %s", len(e.Meetings), strings.Join(names, ", "))
}
