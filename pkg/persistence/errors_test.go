package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityError(t *testing.T) {
	err := NewEntityError("GetByID", "workflow", "wf-1", ErrWorkflowNotFound)

	assert.Equal(t, "GetByID operation failed for workflow wf-1: workflow not found", err.Error())
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.True(t, IsNotFound(err))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrChannelNotFound)))
	assert.True(t, IsNotFound(ErrTemplateNotFound))
	assert.True(t, IsNotFound(ErrConnectorNotFound))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}
