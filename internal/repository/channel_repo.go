package repository

import (
	"errors"

	"gorm.io/gorm"

	"gatebot/internal/models"
)

// ChannelRepository handles channel database operations.
type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// FindAll returns all channels in insertion order.
func (r *ChannelRepository) FindAll() ([]models.Channel, error) {
	var channels []models.Channel
	if err := r.db.Order("created_at ASC, id ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// FindByID returns a channel by its opaque ID, or nil if absent.
func (r *ChannelRepository) FindByID(id string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.Where("id = ?", id).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// FindByChannelID returns a channel by its normalized identity, or nil if absent.
func (r *ChannelRepository) FindByChannelID(channelID string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.Where("channel_id = ?", channelID).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// Create inserts a new channel.
func (r *ChannelRepository) Create(channel *models.Channel) error {
	return r.db.Create(channel).Error
}

// Delete removes a channel by ID.
func (r *ChannelRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Channel{}).Error
}
