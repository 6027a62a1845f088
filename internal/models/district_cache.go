package models

import (
	"time"

	"gorm.io/datatypes"
)

// DistrictCacheRow caches one school-district directory record pulled from the
// upstream education-data API. LEAID is the upstream-assigned stable district
// identifier; there is at most one row per LEAID and FetchedAt advances on
// every successful re-fetch.
type DistrictCacheRow struct {
	LEAID   string `gorm:"column:leaid;primaryKey;size:20" json:"leaid"`
	LEAName string `gorm:"column:lea_name;not null" json:"lea_name"`
	FIPS    int    `gorm:"column:fips;index:idx_district_fips_year;not null" json:"fips"`

	DataOrigin  string `gorm:"not null" json:"data_origin"`
	Dataset     string `gorm:"not null" json:"dataset"`
	DatasetYear int    `gorm:"index:idx_district_fips_year;not null" json:"dataset_year"`

	SourceRowHash string         `json:"source_row_hash"`
	Raw           datatypes.JSON `gorm:"not null" json:"raw"`
	FetchedAt     time.Time      `gorm:"not null" json:"fetched_at"`
}

// TableName keeps the cache table named after its upstream origin.
func (DistrictCacheRow) TableName() string { return "nces_district_cache" }
