package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"gorm.io/gorm"
)

// ApplicationRepository GORM 实现，以 version 列做乐观锁
type ApplicationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewApplicationRepository 创建 GORM 仓储
func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// AutoMigrate 建表
func (r *ApplicationRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&ApplicationModel{}, &DocumentModel{})
}

// Create 实现 domain.ApplicationRepository
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if app.Version == 0 {
		app.Version = 1
	}
	model := toModel(app)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&ApplicationModel{}).Where("tracking_id = ?", app.TrackingID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrTrackingIDTaken
		}
		return tx.Create(model).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrTrackingIDTaken
	}
	return err
}

// Get 实现 domain.ApplicationRepository
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*domain.Application, error) {
	return r.first(r.db.WithContext(ctx), "application_id = ?", id)
}

// GetByTrackingID 实现 domain.ApplicationRepository
func (r *ApplicationRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error) {
	return r.first(r.db.WithContext(ctx), "tracking_id = ?", trackingID)
}

// List 实现 domain.ApplicationRepository
func (r *ApplicationRepository) List(ctx context.Context) ([]*domain.Application, error) {
	var models []*ApplicationModel
	if err := r.db.WithContext(ctx).Preload("Documents").Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	apps := make([]*domain.Application, len(models))
	for i, m := range models {
		apps[i] = m.ToDomain()
	}
	return apps, nil
}

// Update 实现 domain.ApplicationRepository，读取、mutate、CAS 写回在同一事务内完成
func (r *ApplicationRepository) Update(ctx context.Context, id string, expectedVersion int64, mutate func(*domain.Application) error) (*domain.Application, error) {
	var result *domain.Application

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.first(tx, "application_id = ?", id)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && current.Version != expectedVersion {
			return domain.ErrConflict
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			if errors.Is(err, domain.ErrNoChange) {
				result = current
				return nil
			}
			return err
		}
		if next.ID != current.ID || next.TrackingID != current.TrackingID {
			return errors.New("application id and tracking id are immutable")
		}
		if err := next.CheckInvariants(); err != nil {
			return err
		}

		next.Version = current.Version + 1
		next.UpdatedAt = r.now()

		res := tx.Model(&ApplicationModel{}).
			Where("application_id = ? AND version = ?", id, current.Version).
			Updates(map[string]any{
				"document_status": string(next.Status.Document),
				"company_status":  string(next.Status.Company),
				"ein_status":      string(next.Status.EIN),
				"ein":             next.Status.EINNumber,
				"version":         next.Version,
				"updated_at":      next.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflict
		}

		if err := tx.Where("application_id = ?", id).Delete(&DocumentModel{}).Error; err != nil {
			return fmt.Errorf("failed to replace documents: %w", err)
		}
		if docs := toDocumentModels(next); len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return fmt.Errorf("failed to replace documents: %w", err)
			}
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ApplicationRepository) first(db *gorm.DB, query string, arg any) (*domain.Application, error) {
	var model ApplicationModel
	if err := db.Preload("Documents").Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
