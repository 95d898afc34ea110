package domain

import (
	"math"
	"time"
)

// isoMillis matches the wire format used for task date ranges
// (UTC with millisecond precision).
const isoMillis = "2006-01-02T15:04:05.000Z"

// ComputeMetadata derives a task's metadata from its event set.
//
// Events without a valid start/end window contribute nothing to the date
// range or duration but still count toward progress. The function is pure:
// identical inputs always yield identical output.
func ComputeMetadata(events []Event) TaskMetadata {
	initial := TaskMetadata{Status: TaskStatusPending}
	if len(events) == 0 {
		return initial
	}

	var (
		minStart time.Time
		maxEnd   time.Time
		duration float64
		valid    int
	)
	for _, ev := range events {
		if !ev.HasValidWindow() {
			continue
		}
		if valid == 0 || ev.Start.Before(minStart) {
			minStart = ev.Start
		}
		if valid == 0 || ev.End.After(maxEnd) {
			maxEnd = ev.End
		}
		duration += ev.End.Sub(ev.Start).Hours()
		valid++
	}
	if valid == 0 {
		return initial
	}

	done := 0
	for _, ev := range events {
		if ev.IsDone() {
			done++
		}
	}
	progress := int(math.Round(float64(done) / float64(len(events)) * 100))

	status := TaskStatusPending
	switch {
	case progress == 100:
		status = TaskStatusCompleted
	case progress > 0:
		status = TaskStatusInProgress
	}

	return TaskMetadata{
		BeginningDate:  minStart.UTC().Format(isoMillis),
		CompletionDate: maxEnd.UTC().Format(isoMillis),
		DurationHours:  duration,
		Progress:       progress,
		Status:         status,
	}
}
