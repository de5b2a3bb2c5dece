package service

import (
	"context"

	"github.com/caffein/school-platform/internal/events"
)

// EnrollmentEventHandler feeds enrollment-changed events to the aggregator.
func EnrollmentEventHandler(agg *AggregatorService) events.Handler {
	return func(ctx context.Context, payload []byte) error {
		var event events.EnrollmentChanged
		if err := events.Decode(payload, &event); err != nil {
			return err
		}
		return agg.OnEnrollmentEvent(ctx, event)
	}
}

// AttendanceEventHandler feeds attendance-recorded events to the aggregator.
func AttendanceEventHandler(agg *AggregatorService) events.Handler {
	return func(ctx context.Context, payload []byte) error {
		var event events.AttendanceRecorded
		if err := events.Decode(payload, &event); err != nil {
			return err
		}
		return agg.OnAttendanceEvent(ctx, event)
	}
}
