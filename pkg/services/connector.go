package services

import (
	"context"
	"strings"
	"time"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/google/uuid"
)

// Connector manages delivery credentials and the channels they own.
type Connector struct {
	persistence persistence.Persistence

	now   func() time.Time
	newID func() string
}

func NewConnector(persistence persistence.Persistence) *Connector {
	return &Connector{
		persistence: persistence,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (c *Connector) List(ctx context.Context) ([]*models.Connector, error) {
	connectors, err := c.persistence.ConnectorRepository().GetAll(ctx)
	if err != nil {
		return nil, transport("list connectors", err)
	}

	return connectors, nil
}

func (c *Connector) Get(ctx context.Context, id string) (*models.Connector, error) {
	connector, err := c.persistence.ConnectorRepository().GetByID(ctx, id)
	if err != nil {
		return nil, transport("get connector", err)
	}

	return connector, nil
}

// Save creates or replaces a connector. The type defaults to telegram.
func (c *Connector) Save(ctx context.Context, connector *models.Connector) (*models.Connector, error) {
	if strings.TrimSpace(connector.Name) == "" {
		return nil, ErrConnectorNameRequired
	}

	if strings.TrimSpace(connector.Secret) == "" {
		return nil, ErrConnectorSecret
	}

	if connector.Type == "" {
		connector.Type = models.ConnectorTypeTelegram
	}

	now := c.now()
	connector.CreatedAt = now

	if connector.ID == "" {
		connector.ID = c.newID()
	} else {
		existing, err := c.persistence.ConnectorRepository().GetByID(ctx, connector.ID)
		switch {
		case err == nil:
			connector.CreatedAt = existing.CreatedAt
		case !persistence.IsNotFound(err):
			return nil, transport("load connector", err)
		}
	}

	connector.UpdatedAt = now

	if err := c.persistence.ConnectorRepository().Save(ctx, connector); err != nil {
		return nil, transport("save connector", err)
	}

	return connector, nil
}

// SetActive toggles the connector. Dispatch skips channels of inactive connectors.
func (c *Connector) SetActive(ctx context.Context, id string, active bool) (*models.Connector, error) {
	connector, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	connector.IsActive = active
	connector.UpdatedAt = c.now()

	if err := c.persistence.ConnectorRepository().Save(ctx, connector); err != nil {
		return nil, transport("save connector", err)
	}

	return connector, nil
}

// Delete removes the connector only; its channels are left in place.
func (c *Connector) Delete(ctx context.Context, id string) error {
	return transport("delete connector", c.persistence.ConnectorRepository().Delete(ctx, id))
}

// Channels lists the channels of an existing connector.
func (c *Connector) Channels(ctx context.Context, connectorID string) ([]*models.Channel, error) {
	if _, err := c.Get(ctx, connectorID); err != nil {
		return nil, err
	}

	channels, err := c.persistence.ChannelRepository().GetByConnector(ctx, connectorID)
	if err != nil {
		return nil, transport("list channels", err)
	}

	return channels, nil
}

func (c *Connector) Channel(ctx context.Context, id string) (*models.Channel, error) {
	channel, err := c.persistence.ChannelRepository().GetByID(ctx, id)
	if err != nil {
		return nil, transport("get channel", err)
	}

	return channel, nil
}

// SaveChannel creates or replaces a channel. The owning connector must exist.
// An update without a connector id keeps the current owner.
func (c *Connector) SaveChannel(ctx context.Context, channel *models.Channel) (*models.Channel, error) {
	if strings.TrimSpace(channel.Name) == "" {
		return nil, ErrChannelNameRequired
	}

	now := c.now()
	channel.CreatedAt = now

	if channel.ID == "" {
		channel.ID = c.newID()
	} else {
		existing, err := c.persistence.ChannelRepository().GetByID(ctx, channel.ID)
		switch {
		case err == nil:
			channel.CreatedAt = existing.CreatedAt
			if channel.ConnectorID == "" {
				channel.ConnectorID = existing.ConnectorID
			}
		case !persistence.IsNotFound(err):
			return nil, transport("load channel", err)
		}
	}

	if _, err := c.Get(ctx, channel.ConnectorID); err != nil {
		return nil, err
	}

	channel.UpdatedAt = now

	if err := c.persistence.ChannelRepository().Save(ctx, channel); err != nil {
		return nil, transport("save channel", err)
	}

	return channel, nil
}

func (c *Connector) DeleteChannel(ctx context.Context, id string) error {
	return transport("delete channel", c.persistence.ChannelRepository().Delete(ctx, id))
}

// ResolveChannel returns a channel together with its owning connector.
func (c *Connector) ResolveChannel(ctx context.Context, channelID string) (*models.Channel, *models.Connector, error) {
	channel, err := c.Channel(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}

	connector, err := c.Get(ctx, channel.ConnectorID)
	if err != nil {
		return nil, nil, err
	}

	return channel, connector, nil
}
