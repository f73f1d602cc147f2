package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/metrics"
)

// Notifier 提交之后的异步副作用，Dispatcher 实现该接口
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification)
	PublishCreated(ctx context.Context, event domain.ApplicationCreatedEvent)
	PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent)
}

// ApplicationManager 处理申请的写操作（Commands）
type ApplicationManager struct {
	repo        domain.ApplicationRepository
	trackingIDs domain.TrackingIDGenerator
	trigger     domain.NotificationTrigger
	notifier    Notifier
	metrics     *metrics.Metrics

	newID func() string
	now   func() time.Time
}

// NewApplicationManager 构造函数
func NewApplicationManager(repo domain.ApplicationRepository, trackingIDs domain.TrackingIDGenerator, trigger domain.NotificationTrigger, notifier Notifier, m *metrics.Metrics) *ApplicationManager {
	return &ApplicationManager{
		repo:        repo,
		trackingIDs: trackingIDs,
		trigger:     trigger,
		notifier:    notifier,
		metrics:     m,
		newID:       uuid.NewString,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateApplication 校验资料、分配追踪号并创建申请，追踪号冲突时重新生成
func (m *ApplicationManager) CreateApplication(ctx context.Context, cmd CreateApplicationCommand) (*ApplicationDTO, error) {
	client := cmd.Client.Normalize()
	if err := client.Validate(); err != nil {
		return nil, err
	}

	var app *domain.Application
	for attempt := 1; ; attempt++ {
		trackingID, err := m.trackingIDs.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tracking id: %w", err)
		}

		candidate := domain.NewApplication(m.newID(), trackingID, client, m.now())
		err = m.repo.Create(ctx, candidate)
		if err == nil {
			app = candidate
			break
		}
		if !errors.Is(err, domain.ErrTrackingIDTaken) {
			return nil, fmt.Errorf("failed to create application: %w", err)
		}
		logger.Warn(ctx, "tracking id collision, regenerating", "attempt", attempt)
		if attempt >= maxTrackingAttempts {
			return nil, fmt.Errorf("failed to allocate tracking id after %d attempts: %w", attempt, err)
		}
	}

	m.metrics.RecordApplicationCreated()
	logger.Info(ctx, "application created", "application_id", app.ID, "tracking_id", app.TrackingID)

	m.notifier.PublishCreated(ctx, domain.ApplicationCreatedEvent{
		ApplicationID: app.ID,
		TrackingID:    app.TrackingID,
		OccurredOn:    app.CreatedAt,
	})
	m.notifier.Notify(ctx, m.trigger.OnCreated(app))

	return toApplicationDTO(app), nil
}

// UploadDocument 绑定材料文件，不改变 document track
func (m *ApplicationManager) UploadDocument(ctx context.Context, cmd UploadDocumentCommand) (*ApplicationDTO, error) {
	kind, ok := domain.ParseDocumentKind(cmd.Kind)
	if !ok {
		return nil, domain.NewValidationError("kind", "must be one of passport, proof_of_address")
	}
	handle := strings.TrimSpace(cmd.FileHandle)
	if handle == "" {
		return nil, domain.NewValidationError("file_handle", "is required")
	}

	updated, err := m.repo.Update(ctx, cmd.ApplicationID, 0, func(app *domain.Application) error {
		return app.AttachDocument(kind, handle, m.now())
	})
	if err != nil {
		return nil, err
	}

	m.metrics.RecordDocumentUploaded(string(kind))
	logger.Info(ctx, "document uploaded", "application_id", updated.ID, "kind", kind)
	return toApplicationDTO(updated), nil
}

// SubmitDocuments 客户提交材料审核
func (m *ApplicationManager) SubmitDocuments(ctx context.Context, applicationID string, expectedVersion int64) (*TransitionResult, error) {
	return m.ApplyTransition(ctx, ApplyTransitionCommand{
		ApplicationID:   applicationID,
		Track:           string(domain.TrackDocument),
		Target:          string(domain.DocumentReviewing),
		ExpectedVersion: expectedVersion,
		Actor:           domain.ClientActor(),
	})
}

// ApplyTransition 校验权限后在仓储的 CAS 区间内执行状态变更；
// 事件与通知在提交之后异步发出，状态未变化时不发出。
func (m *ApplicationManager) ApplyTransition(ctx context.Context, cmd ApplyTransitionCommand) (*TransitionResult, error) {
	track, ok := domain.ParseTrack(cmd.Track)
	if !ok {
		err := &domain.IllegalTransitionError{Track: domain.Track(cmd.Track), To: cmd.Target}
		m.metrics.RecordTransitionRejected(cmd.Track, rejectionReason(err))
		return nil, err
	}
	if err := cmd.Actor.Authorize(track, cmd.Target); err != nil {
		m.metrics.RecordTransitionRejected(cmd.Track, rejectionReason(err))
		return nil, err
	}

	payload := domain.TransitionPayload{EIN: cmd.EIN, Reason: strings.TrimSpace(cmd.Reason)}

	var prev domain.OnboardingStatus
	changed := false
	updated, err := m.repo.Update(ctx, cmd.ApplicationID, cmd.ExpectedVersion, func(app *domain.Application) error {
		prev = app.Status
		ok, err := app.ApplyTransition(track, cmd.Target, payload, m.now())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNoChange
		}
		changed = true
		return nil
	})
	if err != nil {
		m.metrics.RecordTransitionRejected(cmd.Track, rejectionReason(err))
		logger.Warn(ctx, "transition rejected",
			"application_id", cmd.ApplicationID,
			"track", cmd.Track,
			"target", cmd.Target,
			"actor", cmd.Actor.Name,
			"error", err,
		)
		return nil, err
	}

	if changed {
		m.metrics.RecordTransition(string(track), cmd.Target)
		logger.Info(ctx, "transition applied",
			"application_id", updated.ID,
			"track", track,
			"from", prev.State(track),
			"to", cmd.Target,
			"version", updated.Version,
			"actor", cmd.Actor.Name,
		)

		m.notifier.PublishStatusChanged(ctx, domain.StatusChangedEvent{
			ApplicationID: updated.ID,
			TrackingID:    updated.TrackingID,
			Track:         track,
			From:          prev.State(track),
			To:            cmd.Target,
			EIN:           updated.Status.EINNumber,
			Version:       updated.Version,
			Actor:         cmd.Actor.Name,
			OccurredOn:    updated.UpdatedAt,
		})
		m.notifier.Notify(ctx, m.trigger.OnStatusChanged(updated, prev, updated.Status))
	}

	return &TransitionResult{Application: toApplicationDTO(updated), Changed: changed}, nil
}
