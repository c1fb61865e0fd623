package domain

import "errors"

const (
	MaxDescriptionLength = 200
	MaxDueDateLength     = 50
)

// ErrTaskNotFound is returned by the row store when no task has the requested ID.
var ErrTaskNotFound = errors.New("task not found")

// Task is a single to-do row. DueDate is free-form text and never parsed.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	Description string `gorm:"size:200;not null"`
	DueDate     string `gorm:"size:50;not null"`
	Completed   bool   `gorm:"not null;default:false"`
}
