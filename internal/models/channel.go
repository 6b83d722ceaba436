package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is a Telegram channel users must be subscribed to.
// ChannelID holds the normalized identity (@name or numeric chat ID);
// uniqueness is on the normalized form, not the raw admin input.
type Channel struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	ChannelID string    `gorm:"column:channel_id;uniqueIndex;size:255" json:"channel_id"`
	AddedBy   int64     `gorm:"column:added_by" json:"added_by"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Channel) TableName() string {
	return "channels"
}

func (c *Channel) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
