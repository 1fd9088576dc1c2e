package db

import (
	"fmt"

	"github.com/Sadisms/mm-tools/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.ConversationState{},
		&models.Session{},
		&models.UIRecord{},
	)
}
