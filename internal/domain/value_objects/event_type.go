package valueobjects

import (
	"sort"
	"strings"

	apperrors "taskflow/internal/shared_kernel/errors"
)

type EventType string

const (
	EventTaskCreated    EventType = "task.created"
	EventTaskUpdated    EventType = "task.updated"
	EventTaskCompleted  EventType = "task.completed"
	EventTaskDeleted    EventType = "task.deleted"
	EventCommentCreated EventType = "comment.created"
	EventCommentUpdated EventType = "comment.updated"
	EventCommentDeleted EventType = "comment.deleted"
	EventFileUploaded   EventType = "file.uploaded"
	EventFileDeleted    EventType = "file.deleted"
)

var knownEventTypes = map[EventType]struct{}{
	EventTaskCreated:    {},
	EventTaskUpdated:    {},
	EventTaskCompleted:  {},
	EventTaskDeleted:    {},
	EventCommentCreated: {},
	EventCommentUpdated: {},
	EventCommentDeleted: {},
	EventFileUploaded:   {},
	EventFileDeleted:    {},
}

func (e EventType) String() string {
	return string(e)
}

func (e EventType) IsKnown() bool {
	_, ok := knownEventTypes[e]
	return ok
}

func ParseEventType(raw string) (EventType, *apperrors.AppError) {
	candidate := EventType(strings.ToLower(strings.TrimSpace(raw)))
	if !candidate.IsKnown() {
		return "", apperrors.NewValidation(
			"invalid_request",
			"event type is not supported",
			map[string]any{"field": "event_types", "event_type": raw},
		)
	}
	return candidate, nil
}

// NormalizeEventTypes parses, dedupes and sorts a subscription's event-type set.
func NormalizeEventTypes(raw []string) ([]EventType, *apperrors.AppError) {
	if len(raw) == 0 {
		return nil, apperrors.NewValidation(
			"invalid_request",
			"event_types must contain at least one event type",
			map[string]any{"field": "event_types"},
		)
	}

	seen := make(map[EventType]struct{}, len(raw))
	out := make([]EventType, 0, len(raw))
	for _, item := range raw {
		eventType, appErr := ParseEventType(item)
		if appErr != nil {
			return nil, appErr
		}
		if _, dup := seen[eventType]; dup {
			continue
		}
		seen[eventType] = struct{}{}
		out = append(out, eventType)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func EventTypeStrings(types []EventType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}
