package migrate

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

// GormRecordStore keeps UI records in the shared relational layer.
type GormRecordStore struct {
	db *gorm.DB
}

func NewGormRecordStore(gdb *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: gdb}
}

func (s *GormRecordStore) Put(ctx context.Context, rec Record) error {
	props, err := json.Marshal(rec.Props)
	if err != nil {
		return fmt.Errorf("ui record put: %w", err)
	}
	row := models.UIRecord{
		MessageID:       rec.MessageID,
		Props:           props,
		Message:         rec.Message,
		CallbackBaseURL: rec.CallbackBaseURL,
		UpdatedAt:       time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"props", "message", "callback_base_url", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("ui record put: %w", err)
	}
	return nil
}

func (s *GormRecordStore) Get(ctx context.Context, messageID string) (Record, bool, error) {
	var row models.UIRecord
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ui record get: %w", err)
	}
	rec, ok := s.decode(ctx, row)
	if !ok {
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *GormRecordStore) Delete(ctx context.Context, messageID string) error {
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Delete(&models.UIRecord{}).Error
	if err != nil {
		return fmt.Errorf("ui record delete: %w", err)
	}
	return nil
}

func (s *GormRecordStore) List(ctx context.Context) ([]Record, error) {
	var rows []models.UIRecord
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ui record list: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if rec, ok := s.decode(ctx, row); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// decode unpacks a row; a corrupt props column deletes the row and reports
// absence.
func (s *GormRecordStore) decode(ctx context.Context, row models.UIRecord) (Record, bool) {
	rec := Record{
		MessageID:       row.MessageID,
		Message:         row.Message,
		CallbackBaseURL: row.CallbackBaseURL,
	}
	if len(row.Props) > 0 {
		if err := json.Unmarshal(row.Props, &rec.Props); err != nil {
			_ = s.Delete(ctx, row.MessageID)
			return Record{}, false
		}
	}
	return rec, true
}
