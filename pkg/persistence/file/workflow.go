package file

import (
	"context"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
)

// WorkflowRepository stores workflow documents under root/workflows.
type WorkflowRepository struct {
	store *documentStore[models.WorkflowDocument]
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{
		store: newDocumentStore(root, "workflows", "workflow", persistence.ErrWorkflowNotFound,
			func(w *models.WorkflowDocument) string { return w.ID }),
	}
}

func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDocument, error) {
	return wr.store.all(ctx)
}

func (wr *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	return wr.store.get(ctx, id)
}

func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDocument) error {
	return wr.store.save(ctx, workflow)
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	return wr.store.delete(ctx, id)
}
