package repository

import (
	"errors"

	"gorm.io/gorm"

	"gatebot/internal/models"
)

// AccessLinkRepository handles access link database operations.
type AccessLinkRepository struct {
	db *gorm.DB
}

func NewAccessLinkRepository(db *gorm.DB) *AccessLinkRepository {
	return &AccessLinkRepository{db: db}
}

// FindAll returns all access links in insertion order.
func (r *AccessLinkRepository) FindAll() ([]models.AccessLink, error) {
	var links []models.AccessLink
	if err := r.db.Order("created_at ASC, id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// FindByID returns a link by its opaque ID, or nil if absent.
func (r *AccessLinkRepository) FindByID(id string) (*models.AccessLink, error) {
	var link models.AccessLink
	if err := r.db.Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// FindByURL returns a link with the exact URL, or nil if absent.
func (r *AccessLinkRepository) FindByURL(url string) (*models.AccessLink, error) {
	var link models.AccessLink
	if err := r.db.Where("url = ?", url).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Create inserts a new access link.
func (r *AccessLinkRepository) Create(link *models.AccessLink) error {
	return r.db.Create(link).Error
}

// Delete removes a link by ID.
func (r *AccessLinkRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.AccessLink{}).Error
}
