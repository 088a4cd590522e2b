package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sitepanel/internal/models"
)

// Journal keeps the history of mutations sent to the backend. It never
// stores the roster itself.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Record(ctx context.Context, a models.Activity) error {
	if err := j.db.WithContext(ctx).Create(&a).Error; err != nil {
		return fmt.Errorf("record %s activity: %w", a.Action, err)
	}
	return nil
}

// Recent returns at most n activities, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]models.Activity, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []models.Activity
	err := j.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(n).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}
