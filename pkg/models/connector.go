package models

import "time"

// ConnectorType identifies the messaging provider behind a connector.
type ConnectorType string

const ConnectorTypeTelegram ConnectorType = "telegram"

// Connector is a delivery credential, e.g. a bot token. It owns zero or more channels.
type Connector struct {
	ID        string        `json:"id"`
	Type      ConnectorType `json:"type"`
	Name      string        `json:"name"`
	Secret    string        `json:"secret"`
	Comment   string        `json:"comment"`
	IsActive  bool          `json:"isActive"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Channel is a named delivery endpoint owned by exactly one connector.
type Channel struct {
	ID          string    `json:"id"`
	ConnectorID string    `json:"connectorId"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	Description string    `json:"description"`
	Muted       bool      `json:"muted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
