package events

// Stream names carried by the relay. Payloads are flat JSON records: ids and
// enum-valued statuses travel as strings, dates as ISO calendar dates.
const (
	StreamUserProvisioned    = "user-provisioned"
	StreamEnrollmentChanged  = "enrollment-events"
	StreamAttendanceRecorded = "attendance-events"
)

// UserProvisioned announces a newly registered identity. The student and
// course directories key their own entity creation off the role names.
type UserProvisioned struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"`
	Roles       []string `json:"roles"`
}

// HasRole reports whether the role list contains the given role name.
func (e UserProvisioned) HasRole(name string) bool {
	for _, r := range e.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// EnrollmentChanged reflects one enrollment status transition.
type EnrollmentChanged struct {
	EnrollmentID string `json:"enrollmentId"`
	StudentID    string `json:"studentId"`
	CourseID     string `json:"courseId"`
	CourseName   string `json:"courseName"`
	AcademicYear string `json:"academicYear"`
	Semester     string `json:"semester"`
	Status       string `json:"status"`
	MaxCapacity  int    `json:"maxCapacity,omitempty"`
}

// AttendanceRecorded reflects one attendance entry.
type AttendanceRecorded struct {
	AttendanceID string `json:"attendanceId"`
	StudentID    string `json:"studentId"`
	CourseID     string `json:"courseId"`
	CourseName   string `json:"courseName,omitempty"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}
