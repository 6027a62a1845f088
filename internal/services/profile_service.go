package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

var (
	// ErrProfileNotFound indicates the user has not completed onboarding.
	ErrProfileNotFound = errors.New("profile service: profile not found")

	// ErrUserNotSynced indicates the identity-provider webhook has not yet
	// mirrored the user row; onboarding cannot attach a profile to it.
	ErrUserNotSynced = errors.New("profile service: user not synchronized")
)

// CompleteOnboardingInput captures the onboarding form fields.
type CompleteOnboardingInput struct {
	UserID          string
	SchoolName      string
	State           string
	Grades          []string
	YearsExperience int
}

// ProfileService manages teacher onboarding profiles and the personal
// workspace organization that accompanies them.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// CompleteOnboarding upserts the teacher profile for a user and ensures a
// personal organization exists. Re-submitting the form overwrites the profile.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, input CompleteOnboardingInput) (*models.TeacherProfile, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("profile service: user id is required")
	}

	grades := input.Grades
	if grades == nil {
		grades = []string{}
	}
	gradesJSON, err := json.Marshal(grades)
	if err != nil {
		return nil, fmt.Errorf("profile service: marshal grades: %w", err)
	}

	profile := models.TeacherProfile{
		UserID:          userID,
		SchoolName:      strings.TrimSpace(input.SchoolName),
		State:           strings.ToUpper(strings.TrimSpace(input.State)),
		Grades:          datatypes.JSON(gradesJSON),
		YearsExperience: input.YearsExperience,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotSynced
			}
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"school_name", "state", "grades", "years_experience", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			return err
		}

		return s.ensurePersonalOrganization(tx, userID, profile.SchoolName)
	})
	if err != nil {
		return nil, fmt.Errorf("profile service: complete onboarding for %s: %w", userID, err)
	}

	return &profile, nil
}

// GetProfile loads the onboarding profile for a user.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	ctx = ensureContext(ctx)

	var profile models.TeacherProfile
	err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: get profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileService) ensurePersonalOrganization(tx *gorm.DB, userID, schoolName string) error {
	var existing models.Organization
	err := tx.First(&existing, "owner_user_id = ? AND type = ?", userID, models.OrgTypePersonal).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	name := strings.TrimSpace(schoolName)
	if name == "" {
		name = "My Workspace"
	}

	org := models.Organization{
		Name:        name,
		Slug:        buildSlug(name),
		Type:        models.OrgTypePersonal,
		OwnerUserID: userID,
	}
	return tx.Create(&org).Error
}

// buildSlug derives a URL-safe unique slug from a display name.
func buildSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "workspace"
	}
	return slug + "-" + uuid.NewString()[:8]
}
