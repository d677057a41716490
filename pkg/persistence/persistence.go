// Package persistence provides the storage abstraction for workflows,
// templates, connectors and channels.
package persistence

import (
	"context"

	"github.com/dukex/notiair/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	TemplateRepository() TemplateRepository
	ConnectorRepository() ConnectorRepository
	ChannelRepository() ChannelRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores whole workflow documents. Save replaces any
// previous document with the same id.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.WorkflowDocument, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowDocument, error)
	Save(ctx context.Context, workflow *models.WorkflowDocument) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepository interface {
	GetAll(ctx context.Context) ([]*models.Template, error)
	GetByID(ctx context.Context, id string) (*models.Template, error)
	Save(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id string) error
}

type ConnectorRepository interface {
	GetAll(ctx context.Context) ([]*models.Connector, error)
	GetByID(ctx context.Context, id string) (*models.Connector, error)
	Save(ctx context.Context, connector *models.Connector) error
	Delete(ctx context.Context, id string) error
}

type ChannelRepository interface {
	GetByConnector(ctx context.Context, connectorID string) ([]*models.Channel, error)
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	Save(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id string) error
}
