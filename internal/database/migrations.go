package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserPII{},
		&models.TeacherProfile{},
		&models.Organization{},
		&models.UsState{},
		&models.DistrictCacheRow{},
		&models.SchoolCacheRow{},
		&models.WebhookEvent{},
		&models.CacheEntry{},
	)
}

// SeedData populates the us_states lookup table. Seeding is idempotent: codes
// already present are left untouched.
func SeedData(db *gorm.DB) error {
	states := usStateSeed()
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&states).Error
}

func usStateSeed() []models.UsState {
	return []models.UsState{
		{Code: "AL", Name: "Alabama"},
		{Code: "AK", Name: "Alaska"},
		{Code: "AZ", Name: "Arizona"},
		{Code: "AR", Name: "Arkansas"},
		{Code: "CA", Name: "California"},
		{Code: "CO", Name: "Colorado"},
		{Code: "CT", Name: "Connecticut"},
		{Code: "DE", Name: "Delaware"},
		{Code: "DC", Name: "District of Columbia"},
		{Code: "FL", Name: "Florida"},
		{Code: "GA", Name: "Georgia"},
		{Code: "HI", Name: "Hawaii"},
		{Code: "ID", Name: "Idaho"},
		{Code: "IL", Name: "Illinois"},
		{Code: "IN", Name: "Indiana"},
		{Code: "IA", Name: "Iowa"},
		{Code: "KS", Name: "Kansas"},
		{Code: "KY", Name: "Kentucky"},
		{Code: "LA", Name: "Louisiana"},
		{Code: "ME", Name: "Maine"},
		{Code: "MD", Name: "Maryland"},
		{Code: "MA", Name: "Massachusetts"},
		{Code: "MI", Name: "Michigan"},
		{Code: "MN", Name: "Minnesota"},
		{Code: "MS", Name: "Mississippi"},
		{Code: "MO", Name: "Missouri"},
		{Code: "MT", Name: "Montana"},
		{Code: "NE", Name: "Nebraska"},
		{Code: "NV", Name: "Nevada"},
		{Code: "NH", Name: "New Hampshire"},
		{Code: "NJ", Name: "New Jersey"},
		{Code: "NM", Name: "New Mexico"},
		{Code: "NY", Name: "New York"},
		{Code: "NC", Name: "North Carolina"},
		{Code: "ND", Name: "North Dakota"},
		{Code: "OH", Name: "Ohio"},
		{Code: "OK", Name: "Oklahoma"},
		{Code: "OR", Name: "Oregon"},
		{Code: "PA", Name: "Pennsylvania"},
		{Code: "RI", Name: "Rhode Island"},
		{Code: "SC", Name: "South Carolina"},
		{Code: "SD", Name: "South Dakota"},
		{Code: "TN", Name: "Tennessee"},
		{Code: "TX", Name: "Texas"},
		{Code: "UT", Name: "Utah"},
		{Code: "VT", Name: "Vermont"},
		{Code: "VA", Name: "Virginia"},
		{Code: "WA", Name: "Washington"},
		{Code: "WV", Name: "West Virginia"},
		{Code: "WI", Name: "Wisconsin"},
		{Code: "WY", Name: "Wyoming"},
	}
}
