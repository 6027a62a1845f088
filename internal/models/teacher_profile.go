package models

import (
	"time"

	"gorm.io/datatypes"
)

// TeacherProfile holds role-specific onboarding data keyed by user id.
type TeacherProfile struct {
	UserID          string         `gorm:"primaryKey;size:64" json:"user_id"`
	SchoolName      string         `json:"school_name"`
	State           string         `gorm:"size:2" json:"state"`
	Grades          datatypes.JSON `json:"grades"` // e.g. ["K","1","2"]
	YearsExperience int            `json:"years_experience"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
