package models

import "time"

// EnrollmentAnalytics is the per-course enrollment counter row, keyed by
// course_id. Created on the first observed event and updated in place; no
// history is retained.
type EnrollmentAnalytics struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	CourseName     string    `db:"course_name" json:"course_name"`
	AcademicYear   string    `db:"academic_year" json:"academic_year"`
	Semester       string    `db:"semester" json:"semester"`
	TotalCount     int64     `db:"total_count" json:"total_count"`
	ActiveCount    int64     `db:"active_count" json:"active_count"`
	CompletedCount int64     `db:"completed_count" json:"completed_count"`
	WithdrawnCount int64     `db:"withdrawn_count" json:"withdrawn_count"`
	MaxCapacity    int       `db:"max_capacity" json:"max_capacity"`
	EnrollmentRate *float64  `db:"enrollment_rate" json:"enrollment_rate,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceAnalytics is the per-course per-date attendance counter row.
type AttendanceAnalytics struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	CourseName     string    `db:"course_name" json:"course_name"`
	Date           time.Time `db:"date" json:"date"`
	PresentCount   int64     `db:"present_count" json:"present_count"`
	AbsentCount    int64     `db:"absent_count" json:"absent_count"`
	LateCount      int64     `db:"late_count" json:"late_count"`
	ExcusedCount   int64     `db:"excused_count" json:"excused_count"`
	TotalCount     int64     `db:"total_count" json:"total_count"`
	AttendanceRate float64   `db:"attendance_rate" json:"attendance_rate"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentAnalytics is the per-student lifetime attendance snapshot, keyed by
// student_id.
type StudentAnalytics struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	PresentCount   int64     `db:"present_count" json:"present_count"`
	AbsentCount    int64     `db:"absent_count" json:"absent_count"`
	LateCount      int64     `db:"late_count" json:"late_count"`
	ExcusedCount   int64     `db:"excused_count" json:"excused_count"`
	TotalCount     int64     `db:"total_count" json:"total_count"`
	AttendanceRate float64   `db:"attendance_rate" json:"attendance_rate"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StatusBreakdown sums enrollment states across every course row.
type StatusBreakdown struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Withdrawn int64 `json:"withdrawn"`
}

// TrendPoint is one day of the dashboard attendance trend.
type TrendPoint struct {
	Date           string  `json:"date"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// DashboardSummary is the recomputed-per-call dashboard payload.
type DashboardSummary struct {
	TotalStudents         int64           `json:"total_students"`
	TotalEnrollments      int64           `json:"total_enrollments"`
	AverageAttendanceRate float64         `json:"average_attendance_rate"`
	AbsencesToday         int64           `json:"absences_today"`
	EnrollmentBreakdown   StatusBreakdown `json:"enrollment_breakdown"`
	AttendanceTrend       []TrendPoint    `json:"attendance_trend"`
}
