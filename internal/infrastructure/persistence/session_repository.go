package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/infrastructure/persistence/models"
)

// GormSessionRepository implements session.Repository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID loads a session by its cookie identifier
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save upserts the session record
func (r *GormSessionRepository) Save(ctx context.Context, sess *session.Session) error {
	model, err := models.SessionModelFromDomain(sess)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Delete removes a session record
func (r *GormSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SessionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrSessionNotFound
	}
	return nil
}

// DeleteStale removes sessions not touched since the cutoff
func (r *GormSessionRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.SessionModel{}, "updated_at < ?", cutoff)
	return result.RowsAffected, result.Error
}

// Ensure GormSessionRepository implements session.Repository
var _ session.Repository = (*GormSessionRepository)(nil)
