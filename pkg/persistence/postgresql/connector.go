package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
)

// ConnectorRepository handles connector database operations.
type ConnectorRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewConnectorRepository(db *sql.DB, logger *slog.Logger) *ConnectorRepository {
	return &ConnectorRepository{db: db, logger: logger}
}

const connectorColumns = `
	id
  , type
  , name
  , secret
  , comment
  , is_active
  , created_at
  , updated_at
`

func (r *ConnectorRepository) GetAll(ctx context.Context) ([]*models.Connector, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+connectorColumns+` FROM connectors ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connectors: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	connectors := make([]*models.Connector, 0)

	for rows.Next() {
		connector, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connector: %w", err)
		}

		connectors = append(connectors, connector)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating connectors: %w", err)
	}

	return connectors, nil
}

func (r *ConnectorRepository) GetByID(ctx context.Context, id string) (*models.Connector, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectorColumns+` FROM connectors WHERE id = $1`, id)

	connector, err := scanConnector(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrConnectorNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "connector", id, err)
	}

	return connector, nil
}

func (r *ConnectorRepository) Save(ctx context.Context, connector *models.Connector) error {
	query := `
		INSERT INTO connectors (id, type, name, secret, comment, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			name = EXCLUDED.name,
			secret = EXCLUDED.secret,
			comment = EXCLUDED.comment,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		connector.ID,
		string(connector.Type),
		connector.Name,
		connector.Secret,
		connector.Comment,
		connector.IsActive,
		connector.CreatedAt,
		connector.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "connector", connector.ID, err)
	}

	return nil
}

func (r *ConnectorRepository) Delete(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.db, `DELETE FROM connectors WHERE id = $1`, id, persistence.ErrConnectorNotFound)
	if err != nil && !errors.Is(err, persistence.ErrConnectorNotFound) {
		return persistence.NewEntityError("Delete", "connector", id, err)
	}

	return err
}

func scanConnector(row scanner) (*models.Connector, error) {
	var (
		connector     models.Connector
		connectorType string
	)

	err := row.Scan(
		&connector.ID,
		&connectorType,
		&connector.Name,
		&connector.Secret,
		&connector.Comment,
		&connector.IsActive,
		&connector.CreatedAt,
		&connector.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	connector.Type = models.ConnectorType(connectorType)

	return &connector, nil
}

// ChannelRepository handles channel database operations.
type ChannelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewChannelRepository(db *sql.DB, logger *slog.Logger) *ChannelRepository {
	return &ChannelRepository{db: db, logger: logger}
}

const channelColumns = `
	id
  , connector_id
  , name
  , display_name
  , description
  , muted
  , created_at
  , updated_at
`

func (r *ChannelRepository) GetByConnector(ctx context.Context, connectorID string) ([]*models.Channel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE connector_id = $1 ORDER BY created_at, id`, connectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	channels := make([]*models.Channel, 0)

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}

		channels = append(channels, channel)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}

	return channels, nil
}

func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)

	channel, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrChannelNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "channel", id, err)
	}

	return channel, nil
}

func (r *ChannelRepository) Save(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channels (id, connector_id, name, display_name, description, muted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			connector_id = EXCLUDED.connector_id,
			name = EXCLUDED.name,
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			muted = EXCLUDED.muted,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		channel.ID,
		channel.ConnectorID,
		channel.Name,
		channel.DisplayName,
		channel.Description,
		channel.Muted,
		channel.CreatedAt,
		channel.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "channel", channel.ID, err)
	}

	return nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.db, `DELETE FROM channels WHERE id = $1`, id, persistence.ErrChannelNotFound)
	if err != nil && !errors.Is(err, persistence.ErrChannelNotFound) {
		return persistence.NewEntityError("Delete", "channel", id, err)
	}

	return err
}

func scanChannel(row scanner) (*models.Channel, error) {
	var channel models.Channel

	err := row.Scan(
		&channel.ID,
		&channel.ConnectorID,
		&channel.Name,
		&channel.DisplayName,
		&channel.Description,
		&channel.Muted,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &channel, nil
}
