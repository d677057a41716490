package file

import (
	"context"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
)

// ConnectorRepository stores connectors under root/connectors.
type ConnectorRepository struct {
	store *documentStore[models.Connector]
}

func NewConnectorRepository(root string) *ConnectorRepository {
	return &ConnectorRepository{
		store: newDocumentStore(root, "connectors", "connector", persistence.ErrConnectorNotFound,
			func(c *models.Connector) string { return c.ID }),
	}
}

func (cr *ConnectorRepository) GetAll(ctx context.Context) ([]*models.Connector, error) {
	return cr.store.all(ctx)
}

func (cr *ConnectorRepository) GetByID(ctx context.Context, id string) (*models.Connector, error) {
	return cr.store.get(ctx, id)
}

func (cr *ConnectorRepository) Save(ctx context.Context, connector *models.Connector) error {
	return cr.store.save(ctx, connector)
}

func (cr *ConnectorRepository) Delete(ctx context.Context, id string) error {
	return cr.store.delete(ctx, id)
}

// ChannelRepository stores channels under root/channels.
type ChannelRepository struct {
	store *documentStore[models.Channel]
}

func NewChannelRepository(root string) *ChannelRepository {
	return &ChannelRepository{
		store: newDocumentStore(root, "channels", "channel", persistence.ErrChannelNotFound,
			func(c *models.Channel) string { return c.ID }),
	}
}

// GetByConnector scans every channel file; channel counts are small.
func (cr *ChannelRepository) GetByConnector(ctx context.Context, connectorID string) ([]*models.Channel, error) {
	all, err := cr.store.all(ctx)
	if err != nil {
		return nil, err
	}

	channels := make([]*models.Channel, 0)

	for _, ch := range all {
		if ch.ConnectorID == connectorID {
			channels = append(channels, ch)
		}
	}

	return channels, nil
}

func (cr *ChannelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	return cr.store.get(ctx, id)
}

func (cr *ChannelRepository) Save(ctx context.Context, channel *models.Channel) error {
	return cr.store.save(ctx, channel)
}

func (cr *ChannelRepository) Delete(ctx context.Context, id string) error {
	return cr.store.delete(ctx, id)
}
