package models

// UsState is the lookup table of US states offered during onboarding.
// Code is the USPS / ISO 3166-2:US abbreviation (e.g. "CA").
type UsState struct {
	Code string `gorm:"primaryKey;size:2" json:"code"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TableName matches the seeded lookup table.
func (UsState) TableName() string { return "us_states" }
