package services

import (
	"context"
	"strings"
	"time"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/template"
	"github.com/google/uuid"
)

// Template manages message templates.
type Template struct {
	persistence persistence.Persistence

	now   func() time.Time
	newID func() string
}

func NewTemplate(persistence persistence.Persistence) *Template {
	return &Template{
		persistence: persistence,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (t *Template) List(ctx context.Context) ([]*models.Template, error) {
	templates, err := t.persistence.TemplateRepository().GetAll(ctx)
	if err != nil {
		return nil, transport("list templates", err)
	}

	return templates, nil
}

func (t *Template) Get(ctx context.Context, id string) (*models.Template, error) {
	tpl, err := t.persistence.TemplateRepository().GetByID(ctx, id)
	if err != nil {
		return nil, transport("get template", err)
	}

	return tpl, nil
}

// Save creates or replaces a template. Every placeholder of the body must be
// declared in Variables.
func (t *Template) Save(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	if strings.TrimSpace(tpl.Name) == "" {
		return nil, ErrTemplateNameRequired
	}

	if tpl.Body == "" {
		return nil, ErrTemplateBodyRequired
	}

	if tpl.Variables == nil {
		tpl.Variables = map[string]string{}
	}

	if err := template.Validate(*tpl); err != nil {
		return nil, err
	}

	now := t.now()
	tpl.CreatedAt = now

	if tpl.ID == "" {
		tpl.ID = t.newID()
	} else {
		existing, err := t.persistence.TemplateRepository().GetByID(ctx, tpl.ID)
		switch {
		case err == nil:
			tpl.CreatedAt = existing.CreatedAt
		case !persistence.IsNotFound(err):
			return nil, transport("load template", err)
		}
	}

	tpl.UpdatedAt = now

	if err := t.persistence.TemplateRepository().Save(ctx, tpl); err != nil {
		return nil, transport("save template", err)
	}

	return tpl, nil
}

func (t *Template) Delete(ctx context.Context, id string) error {
	return transport("delete template", t.persistence.TemplateRepository().Delete(ctx, id))
}

// Preview renders the stored template with variables.
func (t *Template) Preview(ctx context.Context, id string, variables map[string]string) (string, error) {
	tpl, err := t.Get(ctx, id)
	if err != nil {
		return "", err
	}

	return template.Render(*tpl, variables)
}
