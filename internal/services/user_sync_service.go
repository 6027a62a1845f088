package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

// IdentityUser carries the provider-side attributes of a user delivered by
// webhook.
type IdentityUser struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// UserSyncService mirrors identity-provider users into the local database.
type UserSyncService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserSyncService constructs a UserSyncService instance.
func NewUserSyncService(db *gorm.DB) (*UserSyncService, error) {
	if db == nil {
		return nil, errors.New("user sync service: db is required")
	}
	return &UserSyncService{db: db, now: time.Now}, nil
}

// UpsertFromProvider records or refreshes the local mirror of a provider user.
// The identity row and its PII row are written in one transaction.
func (s *UserSyncService) UpsertFromProvider(ctx context.Context, input IdentityUser) error {
	ctx = ensureContext(ctx)

	id := strings.TrimSpace(input.ID)
	if id == "" {
		return errors.New("user sync service: user id is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return errors.New("user sync service: email is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{ID: id}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"updated_at": s.now()}),
		}).Create(&user).Error; err != nil {
			return err
		}

		pii := models.UserPII{
			UserID:    id,
			Email:     email,
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			ImageURL:  strings.TrimSpace(input.ImageURL),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "image_url"}),
		}).Create(&pii).Error
	})
	if err != nil {
		return fmt.Errorf("user sync service: upsert user %s: %w", id, err)
	}
	return nil
}

// Delete removes a provider user and its dependent rows.
func (s *UserSyncService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("user sync service: user id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserPII{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.TeacherProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
	if err != nil {
		return fmt.Errorf("user sync service: delete user %s: %w", id, err)
	}
	return nil
}

// MarkProcessed records a webhook delivery id and reports whether it was new.
// Redelivered events return false so the handler can ack without reprocessing.
func (s *UserSyncService) MarkProcessed(ctx context.Context, messageID, eventType string) (bool, error) {
	ctx = ensureContext(ctx)

	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return false, errors.New("user sync service: message id is required")
	}

	event := models.WebhookEvent{
		MessageID:   messageID,
		EventType:   eventType,
		ProcessedAt: s.now(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if result.Error != nil {
		return false, fmt.Errorf("user sync service: record webhook event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
