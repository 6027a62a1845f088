package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization types understood by the platform.
const (
	OrgTypeDistrict = "district"
	OrgTypeSchool   = "school"
	OrgTypePersonal = "personal"
)

// Organization models the district -> school -> personal workspace hierarchy.
type Organization struct {
	ID   string `gorm:"primaryKey;size:64" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`
	Type string `gorm:"size:16;default:personal;not null" json:"type"`

	// ParentID self-references for district -> school nesting.
	ParentID *string `gorm:"size:64" json:"parent_id,omitempty"`

	OwnerUserID string `gorm:"size:64;index" json:"owner_user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
