package models

import "time"

// User is the stable, anonymous identity row for a person authenticated by the
// hosted identity provider. The ID is the provider-assigned subject and all
// personally identifiable attributes live in UserPII so they can be scrubbed
// independently.
type User struct {
	ID string `gorm:"primaryKey;size:64" json:"id"`

	PII     *UserPII        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"pii,omitempty"`
	Profile *TeacherProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPII stores personally identifiable attributes separated from the core
// identity row.
type UserPII struct {
	UserID    string `gorm:"primaryKey;size:64" json:"user_id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

// TableName keeps the PII table clearly separated in the schema.
func (UserPII) TableName() string { return "users_pii" }
