package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

// DatasetFilter narrows both cache reads and upstream queries to one dataset
// edition. Changing any field orphans previously cached rows for reads.
type DatasetFilter struct {
	Origin string
	Name   string
	Year   int
}

// Repository is the narrow persistence surface the resolvers use: a
// freshness-filtered select per lookup key and an upsert by primary key.
// Nothing else is required, which keeps the resolvers testable against an
// in-memory fake.
type Repository interface {
	FreshDistricts(ctx context.Context, fips int, filter DatasetFilter, cutoff time.Time) ([]models.DistrictCacheRow, error)
	UpsertDistrict(ctx context.Context, row *models.DistrictCacheRow) error

	FreshSchools(ctx context.Context, leaid string, filter DatasetFilter, cutoff time.Time) ([]models.SchoolCacheRow, error)
	UpsertSchool(ctx context.Context, row *models.SchoolCacheRow) error
}

// GormRepository implements Repository on the application database.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs the database-backed repository.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("directory: db is required")
	}
	return &GormRepository{db: db}, nil
}

// FreshDistricts returns district rows for the FIPS code that match the
// dataset filter and were fetched strictly after the cutoff.
func (r *GormRepository) FreshDistricts(ctx context.Context, fips int, filter DatasetFilter, cutoff time.Time) ([]models.DistrictCacheRow, error) {
	var rows []models.DistrictCacheRow
	err := r.db.WithContext(ctx).
		Where("fips = ? AND data_origin = ? AND dataset = ? AND dataset_year = ? AND fetched_at > ?",
			fips, filter.Origin, filter.Name, filter.Year, cutoff).
		Order("lea_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("directory: select district cache: %w", err)
	}
	return rows, nil
}

// UpsertDistrict inserts the row or overwrites every non-identity column of an
// existing row with the same LEAID. Each call is its own atomic unit.
func (r *GormRepository) UpsertDistrict(ctx context.Context, row *models.DistrictCacheRow) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "leaid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"lea_name", "fips", "data_origin", "dataset", "dataset_year",
				"source_row_hash", "raw", "fetched_at",
			}),
		}).Create(row).Error
}

// FreshSchools returns school rows for the LEAID that match the dataset filter
// and were fetched strictly after the cutoff.
func (r *GormRepository) FreshSchools(ctx context.Context, leaid string, filter DatasetFilter, cutoff time.Time) ([]models.SchoolCacheRow, error) {
	var rows []models.SchoolCacheRow
	err := r.db.WithContext(ctx).
		Where("leaid = ? AND data_origin = ? AND dataset = ? AND dataset_year = ? AND fetched_at > ?",
			leaid, filter.Origin, filter.Name, filter.Year, cutoff).
		Order("school_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("directory: select school cache: %w", err)
	}
	return rows, nil
}

// UpsertSchool inserts the row or overwrites every non-identity column of an
// existing row with the same NCESSCH.
func (r *GormRepository) UpsertSchool(ctx context.Context, row *models.SchoolCacheRow) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ncessch"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"school_name", "leaid", "data_origin", "dataset", "dataset_year",
				"source_row_hash", "raw", "fetched_at",
			}),
		}).Create(row).Error
}
