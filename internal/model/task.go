package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Priority orders tasks: high > medium > low.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank maps a priority onto its sort weight. Unknown priorities rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Task represents the tasks table. TenantID is copied from the owning project
// when the task is created and never re-derived.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskListItem is a task row with the assignee's display name.
type TaskListItem struct {
	Task
	AssigneeName *string `json:"assigneeName"`
}
