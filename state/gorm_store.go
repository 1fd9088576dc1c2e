package state

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

// GormStore is the durable state backend over the shared relational layer.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

func (s *GormStore) Load(ctx context.Context, userID string) (Record, bool, error) {
	var row models.ConversationState
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("state load: %w", err)
	}

	rec := Record{Label: row.StateLabel}
	if len(row.Scratch) > 0 {
		if err := json.Unmarshal(row.Scratch, &rec.Scratch); err != nil {
			// Corrupt scratch: drop it, keep the label.
			rec.Scratch = nil
			_ = s.Save(ctx, userID, rec)
		}
	}
	return rec, true, nil
}

func (s *GormStore) Save(ctx context.Context, userID string, rec Record) error {
	var scratch []byte
	if rec.Scratch != nil {
		data, err := json.Marshal(rec.Scratch)
		if err != nil {
			return fmt.Errorf("state save: %w", err)
		}
		scratch = data
	}
	row := models.ConversationState{
		UserID:     userID,
		StateLabel: rec.Label,
		Scratch:    scratch,
		UpdatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_label", "scratch", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("state save: %w", err)
	}
	return nil
}
