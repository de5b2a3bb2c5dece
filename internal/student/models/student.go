package models

import "time"

// StudentStatus is the lifecycle state of a student record.
type StudentStatus string

const (
	StudentStatusPending   StudentStatus = "PENDING"
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusGraduated StudentStatus = "GRADUATED"
	StudentStatusWithdrawn StudentStatus = "WITHDRAWN"
)

// Student is the directory's authoritative record of one learner. Exactly one
// row exists per identity (user_id); rows are never hard-deleted.
type Student struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	RegistrationID *string       `db:"registration_id" json:"registration_id,omitempty"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          string        `db:"email" json:"email"`
	PhoneNumber    *string       `db:"phone_number" json:"phone_number,omitempty"`
	DateOfBirth    *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	AddressLine    *string       `db:"address_line" json:"address_line,omitempty"`
	City           *string       `db:"city" json:"city,omitempty"`
	StateProvince  *string       `db:"state_province" json:"state_province,omitempty"`
	PostalCode     *string       `db:"postal_code" json:"postal_code,omitempty"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail is a student with guardians attached.
type StudentDetail struct {
	Student
	Guardians []Guardian `json:"guardians"`
}

// StudentFilter captures list criteria.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Guardian is a contact record owned by exactly one student.
type Guardian struct {
	ID           string  `db:"id" json:"id"`
	StudentID    string  `db:"student_id" json:"student_id"`
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	PhoneNumber  string  `db:"phone_number" json:"phone_number"`
	Email        *string `db:"email" json:"email,omitempty"`
	Relationship *string `db:"relationship" json:"relationship,omitempty"`
}
