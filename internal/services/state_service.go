package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/chalkboardhq/chalkboard/internal/models"
)

// StateService reads the seeded US states lookup table.
type StateService struct {
	db *gorm.DB
}

// NewStateService constructs a StateService instance.
func NewStateService(db *gorm.DB) (*StateService, error) {
	if db == nil {
		return nil, errors.New("state service: db is required")
	}
	return &StateService{db: db}, nil
}

// List returns all states ordered by display name.
func (s *StateService) List(ctx context.Context) ([]models.UsState, error) {
	ctx = ensureContext(ctx)

	var states []models.UsState
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("state service: list states: %w", err)
	}
	return states, nil
}
