package models

import "time"

// CallModel is one completed or in-progress call record.
type CallModel struct {
	ID              string `gorm:"primaryKey;size:64"`
	CallerPhone     string `gorm:"size:32;index"`
	CustomerName    string `gorm:"size:128"`
	Identified      bool
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds float64
}

func (CallModel) TableName() string { return "calls" }

// MessageModel is one transcript entry (caller, assistant, system).
type MessageModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	CallID    string `gorm:"size:64;index;not null"`
	Speaker   string `gorm:"size:16;not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (MessageModel) TableName() string { return "messages" }

// ToolCallModel records one tool invocation within a call.
type ToolCallModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CallID     string `gorm:"size:64;index;not null"`
	ToolName   string `gorm:"size:64;not null"`
	ArgsJSON   string `gorm:"type:text"`
	ResultJSON string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (ToolCallModel) TableName() string { return "tool_calls" }
