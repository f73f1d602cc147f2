package application

import (
	"context"
)

// OnboardingService 开户服务门面，整合命令和查询服务
type OnboardingService struct {
	manager *ApplicationManager
	query   *ApplicationQuery
	staff   *StaffAuthenticator
}

// NewOnboardingService 构造函数
func NewOnboardingService(manager *ApplicationManager, query *ApplicationQuery, staff *StaffAuthenticator) *OnboardingService {
	return &OnboardingService{
		manager: manager,
		query:   query,
		staff:   staff,
	}
}

// --- Command (Writes) ---

// CreateApplication 提交开户资料
func (s *OnboardingService) CreateApplication(ctx context.Context, cmd CreateApplicationCommand) (*ApplicationDTO, error) {
	return s.manager.CreateApplication(ctx, cmd)
}

// UploadDocument 上传材料
func (s *OnboardingService) UploadDocument(ctx context.Context, cmd UploadDocumentCommand) (*ApplicationDTO, error) {
	return s.manager.UploadDocument(ctx, cmd)
}

// SubmitDocuments 提交材料审核
func (s *OnboardingService) SubmitDocuments(ctx context.Context, applicationID string, expectedVersion int64) (*TransitionResult, error) {
	return s.manager.SubmitDocuments(ctx, applicationID, expectedVersion)
}

// ApplyTransition 后台状态变更
func (s *OnboardingService) ApplyTransition(ctx context.Context, cmd ApplyTransitionCommand) (*TransitionResult, error) {
	return s.manager.ApplyTransition(ctx, cmd)
}

// --- Query (Reads) ---

// ListApplications 后台申请列表
func (s *OnboardingService) ListApplications(ctx context.Context, page, pageSize int) (*ApplicationPage, error) {
	return s.query.ListApplications(ctx, page, pageSize)
}

// GetApplication 后台申请详情
func (s *OnboardingService) GetApplication(ctx context.Context, id string) (*ApplicationDTO, error) {
	return s.query.GetApplication(ctx, id)
}

// Track 客户进度查询
func (s *OnboardingService) Track(ctx context.Context, trackingID string) (*TrackingView, error) {
	return s.query.Track(ctx, trackingID)
}

// Artifact 文书下载描述
func (s *OnboardingService) Artifact(ctx context.Context, trackingID, kind string) (*ArtifactDTO, error) {
	return s.query.Artifact(ctx, trackingID, kind)
}

// ArtifactByApplicationID 后台文书下载描述
func (s *OnboardingService) ArtifactByApplicationID(ctx context.Context, id, kind string) (*ArtifactDTO, error) {
	return s.query.ArtifactByApplicationID(ctx, id, kind)
}

// Staff 后台账号校验器
func (s *OnboardingService) Staff() *StaffAuthenticator {
	return s.staff
}
