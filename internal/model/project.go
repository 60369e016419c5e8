package model

import "time"

// Project status values accepted by the store.
const (
	ProjectStatusPending    = "Pending"
	ProjectStatusInProgress = "In Progress"
	ProjectStatusCompleted  = "Completed"
)

// ProjectStatuses lists project statuses in workflow order.
var ProjectStatuses = []string{
	ProjectStatusPending,
	ProjectStatusInProgress,
	ProjectStatusCompleted,
}

// Project is a piece of work done for a client.
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	ClientID    string    `json:"client_id" yaml:"client_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Price       float64   `json:"price" yaml:"price"`
	Deadline    string    `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Progress maps a project status to a completion percentage.
func Progress(status string) int {
	switch status {
	case ProjectStatusCompleted:
		return 100
	case ProjectStatusInProgress:
		return 50
	default:
		return 0
	}
}

// Progress returns the completion percentage for the project's status.
func (p Project) Progress() int {
	return Progress(p.Status)
}

// IsProjectStatus reports whether s is one of ProjectStatuses.
func IsProjectStatus(s string) bool {
	for _, v := range ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeProjectStatus coerces unknown or empty values to Pending.
func NormalizeProjectStatus(s string) string {
	if IsProjectStatus(s) {
		return s
	}
	return ProjectStatusPending
}
