package service

import (
	"context"

	"github.com/caffein/school-platform/internal/events"
)

// UserProvisionedHandler creates a teacher record whenever a newly registered
// user carries the teacher role. Events for other roles are ignored.
func UserProvisionedHandler(teachers *TeacherService) events.Handler {
	return func(ctx context.Context, payload []byte) error {
		var event events.UserProvisioned
		if err := events.Decode(payload, &event); err != nil {
			return err
		}
		if !event.HasRole(RoleTeacher) {
			return nil
		}
		_, err := teachers.CreateFromUser(ctx, event)
		return err
	}
}
