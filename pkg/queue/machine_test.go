package queue

import (
	"testing"

	"github.com/dukex/notiair/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(status models.QueueStatus, attempts int) models.QueueItem {
	return models.QueueItem{TaskID: "task-1", WorkflowID: "wf-1", ChannelID: "ch-1", Status: status, Attempts: attempts}
}

func TestAdvance_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from     models.QueueItem
		event    Event
		max      int
		expected models.QueueItem
	}{
		{
			name:     "started",
			from:     item(models.QueueStatusPending, 0),
			event:    EventStarted,
			max:      3,
			expected: item(models.QueueStatusProcessing, 0),
		},
		{
			name:     "succeeded",
			from:     item(models.QueueStatusProcessing, 1),
			event:    EventSucceeded,
			max:      3,
			expected: item(models.QueueStatusCompleted, 1),
		},
		{
			name:     "failed below ceiling retries",
			from:     item(models.QueueStatusProcessing, 0),
			event:    EventFailed,
			max:      3,
			expected: item(models.QueueStatusPending, 1),
		},
		{
			name:     "failed at ceiling is terminal",
			from:     item(models.QueueStatusProcessing, 2),
			event:    EventFailed,
			max:      3,
			expected: item(models.QueueStatusFailed, 3),
		},
		{
			name:     "single attempt",
			from:     item(models.QueueStatusProcessing, 0),
			event:    EventFailed,
			max:      1,
			expected: item(models.QueueStatusFailed, 1),
		},
		{
			name:     "retry keeps attempts",
			from:     item(models.QueueStatusFailed, 3),
			event:    EventRetryRequested,
			max:      3,
			expected: item(models.QueueStatusPending, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next, err := Advance(tt.from, tt.event, tt.max)
			require.NoError(t, err)

			assert.Equal(t, tt.expected.Status, next.Status)
			assert.Equal(t, tt.expected.Attempts, next.Attempts)
			assert.False(t, next.UpdatedAt.IsZero())
		})
	}
}

func TestAdvance_IllegalTransitions(t *testing.T) {
	t.Parallel()

	legal := map[models.QueueStatus]Event{
		models.QueueStatusPending:    EventStarted,
		models.QueueStatusProcessing: EventSucceeded,
		models.QueueStatusFailed:     EventRetryRequested,
	}

	statuses := []models.QueueStatus{
		models.QueueStatusPending,
		models.QueueStatusProcessing,
		models.QueueStatusFailed,
		models.QueueStatusCompleted,
	}
	events := []Event{EventStarted, EventSucceeded, EventFailed, EventRetryRequested, "bogus"}

	for _, status := range statuses {
		for _, event := range events {
			if legal[status] == event || (status == models.QueueStatusProcessing && event == EventFailed) {
				continue
			}

			t.Run(string(status)+"/"+string(event), func(t *testing.T) {
				t.Parallel()

				from := item(status, 3)

				next, err := Advance(from, event, 3)
				require.ErrorIs(t, err, ErrIllegalTransition)
				assert.Equal(t, from, next)

				var transitionErr *TransitionError
				require.ErrorAs(t, err, &transitionErr)
				assert.Equal(t, status, transitionErr.Status)
				assert.Equal(t, event, transitionErr.Event)
			})
		}
	}
}

func TestAdvance_RetryRequiresTerminalFailure(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		max      int
	}{
		{name: "below ceiling", attempts: 1, max: 3},
		{name: "no attempts", attempts: 0, max: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := item(models.QueueStatusFailed, tt.attempts)
			require.False(t, Terminal(from, tt.max))

			next, err := Advance(from, EventRetryRequested, tt.max)
			require.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, from, next)
		})
	}

	// a lowered ceiling makes a failed item terminal again
	next, err := Advance(item(models.QueueStatusFailed, 2), EventRetryRequested, 2)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusPending, next.Status)
	assert.Equal(t, 2, next.Attempts)
}

func TestAdvance_InvalidMaxAttempts(t *testing.T) {
	from := item(models.QueueStatusProcessing, 0)

	next, err := Advance(from, EventFailed, 0)
	require.ErrorIs(t, err, ErrInvalidMaxAttempts)
	assert.Equal(t, from, next)
}

func TestAdvance_AttemptsNeverDecrease(t *testing.T) {
	sequence := []Event{
		EventStarted, EventFailed,
		EventStarted, EventFailed,
		EventStarted, EventFailed,
		EventRetryRequested,
		EventStarted, EventSucceeded,
	}

	current := item(models.QueueStatusPending, 0)

	for _, event := range sequence {
		next, err := Advance(current, event, 3)
		require.NoError(t, err, "event %s from %s", event, current.Status)

		assert.GreaterOrEqual(t, next.Attempts, current.Attempts)
		assert.True(t, next.Status.Valid())

		current = next
	}

	assert.Equal(t, models.QueueStatusCompleted, current.Status)
	assert.Equal(t, 3, current.Attempts)
	assert.True(t, Terminal(current, 3))
}

func TestTerminal(t *testing.T) {
	assert.True(t, Terminal(item(models.QueueStatusCompleted, 0), 3))
	assert.True(t, Terminal(item(models.QueueStatusFailed, 3), 3))
	assert.False(t, Terminal(item(models.QueueStatusPending, 2), 3))
	assert.False(t, Terminal(item(models.QueueStatusProcessing, 0), 3))
}
