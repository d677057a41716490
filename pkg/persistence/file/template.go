package file

import (
	"context"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
)

// TemplateRepository stores templates under root/templates.
type TemplateRepository struct {
	store *documentStore[models.Template]
}

func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{
		store: newDocumentStore(root, "templates", "template", persistence.ErrTemplateNotFound,
			func(t *models.Template) string { return t.ID }),
	}
}

func (tr *TemplateRepository) GetAll(ctx context.Context) ([]*models.Template, error) {
	return tr.store.all(ctx)
}

func (tr *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	return tr.store.get(ctx, id)
}

func (tr *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	return tr.store.save(ctx, template)
}

func (tr *TemplateRepository) Delete(ctx context.Context, id string) error {
	return tr.store.delete(ctx, id)
}
