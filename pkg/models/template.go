package models

import "time"

// Template is a message body with {{name}} placeholders. Variables maps every
// placeholder name to a human readable description; extra entries are allowed.
type Template struct {
	ID          string            `json:"id"          validate:"required"`
	Name        string            `json:"name"        validate:"required"`
	Description string            `json:"description"`
	Body        string            `json:"body"        validate:"required"`
	Variables   map[string]string `json:"variables"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
