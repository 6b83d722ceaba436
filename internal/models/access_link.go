package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLink is a link handed out once a user passes the subscription check.
type AccessLink struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	URL       string    `gorm:"column:url;size:2048" json:"url"`
	UpdatedBy int64     `gorm:"column:updated_by" json:"updated_by"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AccessLink) TableName() string {
	return "access_links"
}

func (l *AccessLink) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
