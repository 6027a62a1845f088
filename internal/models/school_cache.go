package models

import (
	"time"

	"gorm.io/datatypes"
)

// SchoolCacheRow caches one school directory record. NCESSCH is the
// upstream-assigned stable school identifier; LEAID is the owning district
// (equality-filtered only, not enforced as a foreign key).
type SchoolCacheRow struct {
	NCESSCH    string `gorm:"column:ncessch;primaryKey;size:20" json:"ncessch"`
	SchoolName string `gorm:"column:school_name;not null" json:"school_name"`
	LEAID      string `gorm:"column:leaid;index:idx_school_leaid_year;size:20;not null" json:"leaid"`

	DataOrigin  string `gorm:"not null" json:"data_origin"`
	Dataset     string `gorm:"not null" json:"dataset"`
	DatasetYear int    `gorm:"index:idx_school_leaid_year;not null" json:"dataset_year"`

	SourceRowHash string         `json:"source_row_hash"`
	Raw           datatypes.JSON `gorm:"not null" json:"raw"`
	FetchedAt     time.Time      `gorm:"not null" json:"fetched_at"`
}

// TableName keeps the cache table named after its upstream origin.
func (SchoolCacheRow) TableName() string { return "nces_school_cache" }
