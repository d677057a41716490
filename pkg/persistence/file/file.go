// Package file provides file-based persistence: one JSON document per entity
// under a root directory.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/notiair/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	templateRepo  *TemplateRepository
	connectorRepo *ConnectorRepository
	channelRepo   *ChannelRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		templateRepo:  NewTemplateRepository(cleanRoot),
		connectorRepo: NewConnectorRepository(cleanRoot),
		channelRepo:   NewChannelRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck creates the root directory when missing and verifies it is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	err := os.MkdirAll(fp.root, 0750)
	if err != nil {
		return err
	}

	info, err := os.Stat(fp.root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return os.ErrInvalid
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) TemplateRepository() persistence.TemplateRepository {
	return fp.templateRepo
}

func (fp *Persistence) ConnectorRepository() persistence.ConnectorRepository {
	return fp.connectorRepo
}

func (fp *Persistence) ChannelRepository() persistence.ChannelRepository {
	return fp.channelRepo
}
