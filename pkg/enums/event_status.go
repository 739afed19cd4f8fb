package enums

import "fmt"

// EventStatus tracks the publication lifecycle of a ticketed event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusArchived  EventStatus = "archived"
)

var validEventStatuses = []EventStatus{
	EventStatusDraft,
	EventStatusPublished,
	EventStatusArchived,
}

// IsValid reports whether the status is recognized.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEventStatus converts raw input into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
