package project

import "time"

// State represents the lifecycle state of a counting project.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// Project represents a counting campaign scoped to one location.
// Projects are master data: created and transitioned outside this service.
type Project struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	LocationID   *int64     `json:"location_id,omitempty"`
	LocationName string     `json:"location_name,omitempty"`
	State        State      `json:"state"`
	StartDate    *time.Time `json:"start_date,omitempty"`
}
