package models

import "time"

// EnrollmentStatus enumerates enrollment lifecycle states.
type EnrollmentStatus string

const (
	EnrollmentStatusRegistered EnrollmentStatus = "REGISTERED"
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentStatusWithdrawn  EnrollmentStatus = "WITHDRAWN"
)

// Enrollment links one student to one course offering. The course lives in
// the course directory, so course_id is a plain reference and the descriptive
// fields are a denormalized snapshot captured at enrollment time and never
// refreshed afterwards.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	CourseCode   string           `db:"course_code" json:"course_code"`
	CourseName   string           `db:"course_name" json:"course_name"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     string           `db:"semester" json:"semester"`
	Grade        *string          `db:"grade" json:"grade,omitempty"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceStatus enumerates attendance entry states.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// AttendanceRecord is one attendance entry. At most one exists per
// (student, course, date); the date is immutable once created.
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceStatistics summarises one student's attendance in one course.
type AttendanceStatistics struct {
	Present        int64   `json:"present"`
	Absent         int64   `json:"absent"`
	Late           int64   `json:"late"`
	Excused        int64   `json:"excused"`
	Total          int64   `json:"total"`
	AttendanceRate float64 `json:"attendance_rate"`
}
