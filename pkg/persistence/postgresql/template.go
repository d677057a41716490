package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
)

// TemplateRepository handles template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

const templateColumns = `
	id
  , name
  , description
  , body
  , variables
  , created_at
  , updated_at
`

func (r *TemplateRepository) GetAll(ctx context.Context) ([]*models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	templates := make([]*models.Template, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		templates = append(templates, template)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)

	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTemplateNotFound
		}

		return nil, persistence.NewEntityError("GetByID", "template", id, err)
	}

	return template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	variables, err := json.Marshal(template.Variables)
	if err != nil {
		return fmt.Errorf("failed to marshal template variables: %w", err)
	}

	query := `
		INSERT INTO templates (id, name, description, body, variables, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			body = EXCLUDED.body,
			variables = EXCLUDED.variables,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.Body,
		variables,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewEntityError("Save", "template", template.ID, err)
	}

	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	err := deleteByID(ctx, r.db, `DELETE FROM templates WHERE id = $1`, id, persistence.ErrTemplateNotFound)
	if err != nil && !errors.Is(err, persistence.ErrTemplateNotFound) {
		return persistence.NewEntityError("Delete", "template", id, err)
	}

	return err
}

func scanTemplate(row scanner) (*models.Template, error) {
	var (
		template  models.Template
		variables []byte
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&template.Body,
		&variables,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	template.Variables = make(map[string]string)

	if len(variables) > 0 {
		err = json.Unmarshal(variables, &template.Variables)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal template variables: %w", err)
		}
	}

	return &template, nil
}
