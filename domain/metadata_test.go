package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestComputeMetadata_EmptySet(t *testing.T) {
	meta := ComputeMetadata(nil)

	assert.Equal(t, TaskStatusPending, meta.Status)
	assert.Empty(t, meta.BeginningDate)
	assert.Empty(t, meta.CompletionDate)
	assert.Zero(t, meta.DurationHours)
	assert.Zero(t, meta.Progress)
}

func TestComputeMetadata_AllInvalidWindows(t *testing.T) {
	events := []Event{
		{Status: EventStatusDone},
		{Status: EventStatusDone, Start: day(t, "2026-03-01T10:00:00Z")},
		// end before start
		{
			Start: day(t, "2026-03-01T10:00:00Z"),
			End:   day(t, "2026-03-01T09:00:00Z"),
		},
	}

	meta := ComputeMetadata(events)

	assert.Equal(t, TaskStatusPending, meta.Status)
	assert.Empty(t, meta.BeginningDate)
	assert.Zero(t, meta.Progress)
}

func TestComputeMetadata_DateRangeSpansAllValidEvents(t *testing.T) {
	events := []Event{
		{
			Status: EventStatusPending,
			Start:  day(t, "2026-03-02T09:00:00Z"),
			End:    day(t, "2026-03-02T11:00:00Z"),
		},
		{
			Status: EventStatusPending,
			Start:  day(t, "2026-03-01T14:00:00Z"),
			End:    day(t, "2026-03-01T15:30:00Z"),
		},
	}

	meta := ComputeMetadata(events)

	assert.Equal(t, "2026-03-01T14:00:00.000Z", meta.BeginningDate)
	assert.Equal(t, "2026-03-02T11:00:00.000Z", meta.CompletionDate)
	assert.Equal(t, 3.5, meta.DurationHours)
	assert.Equal(t, 0, meta.Progress)
	assert.Equal(t, TaskStatusPending, meta.Status)
}

func TestComputeMetadata_ProgressCountsEveryEvent(t *testing.T) {
	// The invalid-window event is excluded from dates and duration but still
	// widens the progress denominator.
	events := []Event{
		{
			Status: EventStatusDone,
			Start:  day(t, "2026-03-01T09:00:00Z"),
			End:    day(t, "2026-03-01T10:00:00Z"),
		},
		{
			Status: EventStatusPending,
			Start:  day(t, "2026-03-01T10:00:00Z"),
			End:    day(t, "2026-03-01T11:30:00Z"),
		},
		{Status: EventStatusDone},
		{Status: EventStatusPending},
	}

	meta := ComputeMetadata(events)

	assert.Equal(t, 2.5, meta.DurationHours)
	assert.Equal(t, 50, meta.Progress)
	assert.Equal(t, TaskStatusInProgress, meta.Status)
}

func TestComputeMetadata_StatusTransitions(t *testing.T) {
	base := Event{
		Start: day(t, "2026-03-01T09:00:00Z"),
		End:   day(t, "2026-03-01T10:00:00Z"),
	}
	withStatus := func(s EventStatus) Event {
		ev := base
		ev.Status = s
		return ev
	}

	t.Run("no events done", func(t *testing.T) {
		meta := ComputeMetadata([]Event{
			withStatus(EventStatusPending),
			withStatus(EventStatusInProgress),
		})
		assert.Equal(t, 0, meta.Progress)
		assert.Equal(t, TaskStatusPending, meta.Status)
	})

	t.Run("some events done", func(t *testing.T) {
		meta := ComputeMetadata([]Event{
			withStatus(EventStatusDone),
			withStatus(EventStatusPending),
			withStatus(EventStatusPending),
		})
		assert.Equal(t, 33, meta.Progress)
		assert.Equal(t, TaskStatusInProgress, meta.Status)
	})

	t.Run("all events done", func(t *testing.T) {
		meta := ComputeMetadata([]Event{
			withStatus(EventStatusDone),
			withStatus(EventStatusDone),
		})
		assert.Equal(t, 100, meta.Progress)
		assert.Equal(t, TaskStatusCompleted, meta.Status)
	})
}

func TestComputeMetadata_Deterministic(t *testing.T) {
	events := []Event{
		{
			Status: EventStatusDone,
			Start:  day(t, "2026-03-01T09:00:00Z"),
			End:    day(t, "2026-03-01T12:00:00Z"),
		},
		{
			Status: EventStatusPending,
			Start:  day(t, "2026-03-03T09:00:00Z"),
			End:    day(t, "2026-03-03T17:00:00Z"),
		},
	}

	first := ComputeMetadata(events)
	second := ComputeMetadata(events)
	assert.Equal(t, first, second)
}
