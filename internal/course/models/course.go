package models

import "time"

// Subject is one taught discipline.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Department  string    `db:"department" json:"department"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Teacher is a staff record created from the user directory. user_id links
// back to the account that provisioned it and is unique.
type Teacher struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number,omitempty"`
	Department  *string   `db:"department" json:"department,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Course is one offering of a subject in a term, taught by one teacher.
type Course struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     string    `db:"semester" json:"semester"`
	RoomNumber   string    `db:"room_number" json:"room_number"`
	MaxCapacity  int       `db:"max_capacity" json:"max_capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Schedule is one weekly meeting slot of a course. Times are stored as
// "HH:MM" strings so plain string comparison orders them.
type Schedule struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	DayOfWeek  string    `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	RoomNumber string    `db:"room_number" json:"room_number,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail is a course joined with its subject, teacher and schedules.
// Its JSON shape is the internal lookup contract consumed by the student
// directory.
type CourseDetail struct {
	Course
	Subject   *Subject   `json:"subject,omitempty"`
	Teacher   *Teacher   `json:"teacher,omitempty"`
	Schedules []Schedule `json:"schedules,omitempty"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	SubjectID    string
	TeacherID    string
	AcademicYear string
	Semester     string
	Page         int
	PageSize     int
}

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	Department string
	Search     string
}
