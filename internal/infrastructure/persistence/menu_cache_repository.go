package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/infrastructure/persistence/models"
)

// GormMenuCacheRepository is the durable tier of the menu cache. Entries
// survive restarts; expiry is stored alongside the payload and enforced by
// the caller so all tiers age out together.
type GormMenuCacheRepository struct {
	db *gorm.DB
}

// NewGormMenuCacheRepository creates a new GormMenuCacheRepository
func NewGormMenuCacheRepository(db *gorm.DB) *GormMenuCacheRepository {
	return &GormMenuCacheRepository{db: db}
}

// Get returns the payload and its expiry for a cache key
func (r *GormMenuCacheRepository) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var model models.MenuCacheModel
	if err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, shared.ErrNotFound
		}
		return nil, time.Time{}, err
	}
	return []byte(model.Payload), model.ExpiresAt, nil
}

// Set upserts the payload under a cache key with the given expiry
func (r *GormMenuCacheRepository) Set(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	model := &models.MenuCacheModel{
		Key:       key,
		Payload:   string(payload),
		ExpiresAt: expiresAt,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Delete removes a cache entry. Deleting a missing key is not an error.
func (r *GormMenuCacheRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.MenuCacheModel{}, "key = ?", key).Error
}

// DeleteExpired removes all entries past their expiry
func (r *GormMenuCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.MenuCacheModel{}, "expires_at <= ?", time.Now())
	return result.RowsAffected, result.Error
}
