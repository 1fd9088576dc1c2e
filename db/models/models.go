package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationState is the durable per-user state machine row. An empty
// StateLabel means idle.
type ConversationState struct {
	UserID     string `gorm:"primaryKey;size:190"`
	StateLabel string `gorm:"size:190"`
	Scratch    datatypes.JSON
	UpdatedAt  time.Time
}

func (ConversationState) TableName() string { return "conversation_state" }

// Session is one dialog-scoped key-value bag. A user may hold several
// concurrent sessions, one per conversation instance.
type Session struct {
	UserID    string `gorm:"primaryKey;size:190"`
	SessionID string `gorm:"primaryKey;size:190"`
	Data      datatypes.JSON
	UpdatedAt time.Time
}

func (Session) TableName() string { return "sessions" }

// UIRecord remembers a delivered message whose props embed a callback URL,
// so the URLs can be rewritten after an endpoint move.
type UIRecord struct {
	MessageID       string `gorm:"primaryKey;size:190"`
	Props           datatypes.JSON
	Message         string
	CallbackBaseURL string
	UpdatedAt       time.Time
}

func (UIRecord) TableName() string { return "ui_records" }
