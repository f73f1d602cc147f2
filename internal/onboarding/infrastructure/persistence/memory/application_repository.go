// Package memory 进程内申请仓储，按记录加锁
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
)

type record struct {
	mu  sync.Mutex
	app *domain.Application
	seq uint64
}

// ApplicationRepository 内存实现，同一申请的写入串行，不同申请互不阻塞
type ApplicationRepository struct {
	mu         sync.RWMutex
	byID       map[string]*record
	byTracking map[string]string
	seq        uint64
	now        func() time.Time
}

// NewApplicationRepository 创建内存仓储
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{
		byID:       make(map[string]*record),
		byTracking: make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create 实现 domain.ApplicationRepository
func (r *ApplicationRepository) Create(_ context.Context, app *domain.Application) error {
	if app.ID == "" || app.TrackingID == "" {
		return errors.New("application id and tracking id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byTracking[app.TrackingID]; ok {
		return domain.ErrTrackingIDTaken
	}
	if _, ok := r.byID[app.ID]; ok {
		return fmt.Errorf("application %s already exists", app.ID)
	}

	stored := app.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	r.seq++
	r.byID[app.ID] = &record{app: stored, seq: r.seq}
	r.byTracking[app.TrackingID] = app.ID

	app.Version = stored.Version
	return nil
}

// Get 实现 domain.ApplicationRepository
func (r *ApplicationRepository) Get(_ context.Context, id string) (*domain.Application, error) {
	rec := r.lookup(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.app.Clone(), nil
}

// GetByTrackingID 实现 domain.ApplicationRepository
func (r *ApplicationRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error) {
	r.mu.RLock()
	id, ok := r.byTracking[trackingID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

// List 实现 domain.ApplicationRepository
func (r *ApplicationRepository) List(_ context.Context) ([]*domain.Application, error) {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.byID))
	for _, rec := range r.byID {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	// 创建时间相同时按写入顺序
	sort.Slice(recs, func(i, j int) bool {
		ai, aj := recs[i].createdAt(), recs[j].createdAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return recs[i].seq > recs[j].seq
	})

	out := make([]*domain.Application, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.app.Clone())
		rec.mu.Unlock()
	}
	return out, nil
}

// Update 实现 domain.ApplicationRepository
func (r *ApplicationRepository) Update(_ context.Context, id string, expectedVersion int64, mutate func(*domain.Application) error) (*domain.Application, error) {
	rec := r.lookup(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	current := rec.app
	if expectedVersion > 0 && current.Version != expectedVersion {
		return nil, domain.ErrConflict
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		if errors.Is(err, domain.ErrNoChange) {
			return current.Clone(), nil
		}
		return nil, err
	}
	if next.ID != current.ID || next.TrackingID != current.TrackingID {
		return nil, errors.New("application id and tracking id are immutable")
	}
	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	next.Version = current.Version + 1
	next.UpdatedAt = r.now()
	rec.app = next
	return next.Clone(), nil
}

// Len 申请数量
func (r *ApplicationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *ApplicationRepository) lookup(id string) *record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

func (rec *record) createdAt() time.Time {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.app.CreatedAt
}
