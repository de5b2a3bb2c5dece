package service

import (
	"context"

	"github.com/caffein/school-platform/internal/events"
)

// UserProvisionedHandler creates a student record whenever a newly registered
// user carries the student role. Events for other roles are ignored.
func UserProvisionedHandler(students *StudentService) events.Handler {
	return func(ctx context.Context, payload []byte) error {
		var event events.UserProvisioned
		if err := events.Decode(payload, &event); err != nil {
			return err
		}
		if !event.HasRole(RoleStudent) {
			return nil
		}
		_, err := students.CreateFromUser(ctx, event)
		return err
	}
}
