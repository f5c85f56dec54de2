package model

import (
	"time"

	"github.com/google/uuid"
)

// Statuses set by the application. Clients may store any other short label.
const (
	ProjectStatusActive    = "active"
	ProjectStatusArchived  = "archived"
	ProjectStatusCompleted = "completed"
)

// MaxStatusLen is the width of the status columns.
const MaxStatusLen = 20

// Project represents the projects table
type Project struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedBy   *uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsCreator reports whether userID created the project.
func (p *Project) IsCreator(userID uuid.UUID) bool {
	return p.CreatedBy != nil && *p.CreatedBy == userID
}

// ProjectListItem is a project row with the creator's display name.
type ProjectListItem struct {
	Project
	CreatorName *string `json:"creatorName"`
}
