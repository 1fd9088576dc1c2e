package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sadisms/mm-tools/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps sessions in the shared relational layer (sqlite or
// postgres, per db.Config).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) Get(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	var row models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	if len(row.Data) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(row.Data, &data); err != nil {
		// Corrupt row: clear it and report absence.
		_ = s.Clear(ctx, userID, sessionID)
		return map[string]any{}, nil
	}
	return data, nil
}

func (s *GormStore) Set(ctx context.Context, userID, sessionID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	row := models.Session{
		UserID:    userID,
		SessionID: sessionID,
		Data:      payload,
		UpdatedAt: time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context, userID, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (s *GormStore) ClearAll(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("session clear all: %w", err)
	}
	return nil
}
