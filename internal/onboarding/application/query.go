package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/utils"
)

// 可下载文书类型
const (
	ArtifactArticles  = "articles"
	ArtifactEINLetter = "ein_letter"
)

var stepDescriptions = map[domain.Track]map[string]string{
	domain.TrackDocument: {
		string(domain.DocumentPending):   "Awaiting document upload",
		string(domain.DocumentReviewing): "Documents under review",
		string(domain.DocumentApproved):  "Documents verified",
		string(domain.DocumentRejected):  "Documents rejected",
	},
	domain.TrackCompany: {
		string(domain.CompanyPending):     "Waiting to begin",
		string(domain.CompanyRegistering): "Registration in progress",
		string(domain.CompanyRegistered):  "Company registered successfully",
	},
	domain.TrackEIN: {
		string(domain.EINPending):    "Waiting to begin",
		string(domain.EINProcessing): "EIN application processing",
		string(domain.EINIssued):     "EIN issued successfully",
	},
}

// ApplicationQuery 处理申请的读操作（Queries），不做任何修改
type ApplicationQuery struct {
	repo    domain.ApplicationRepository
	metrics *metrics.Metrics
}

// NewApplicationQuery 构造函数
func NewApplicationQuery(repo domain.ApplicationRepository, m *metrics.Metrics) *ApplicationQuery {
	return &ApplicationQuery{repo: repo, metrics: m}
}

// ListApplications 后台列表，按创建时间倒序；page 与 pageSize 均为 0 时返回全部
func (q *ApplicationQuery) ListApplications(ctx context.Context, page, pageSize int) (*ApplicationPage, error) {
	apps, err := q.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	total := len(apps)
	var p *utils.Pagination
	if page == 0 && pageSize == 0 {
		p = &utils.Pagination{Page: 1, PageSize: max(total, 1), Total: int64(total), Pages: 1}
	} else {
		p = utils.NewPagination(page, pageSize, int64(total))
	}
	start, end := p.Window(total)

	items := make([]*ApplicationDTO, 0, end-start)
	for _, app := range apps[start:end] {
		items = append(items, toApplicationDTO(app))
	}
	return &ApplicationPage{Items: items, Pagination: p}, nil
}

// GetApplication 按 ID 查询
func (q *ApplicationQuery) GetApplication(ctx context.Context, id string) (*ApplicationDTO, error) {
	app, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toApplicationDTO(app), nil
}

// Track 客户按追踪号查询进度
func (q *ApplicationQuery) Track(ctx context.Context, trackingID string) (*TrackingView, error) {
	app, err := q.lookup(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return toTrackingView(app), nil
}

// Artifact 文书下载描述，仅在对应 track 完成后可用
func (q *ApplicationQuery) Artifact(ctx context.Context, trackingID, kind string) (*ArtifactDTO, error) {
	if err := validateArtifactKind(kind); err != nil {
		return nil, err
	}
	app, err := q.lookup(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return artifactFor(app, kind)
}

// ArtifactByApplicationID 后台按申请 ID 获取文书描述
func (q *ApplicationQuery) ArtifactByApplicationID(ctx context.Context, id, kind string) (*ArtifactDTO, error) {
	if err := validateArtifactKind(kind); err != nil {
		return nil, err
	}
	app, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return artifactFor(app, kind)
}

func validateArtifactKind(kind string) error {
	if kind != ArtifactArticles && kind != ArtifactEINLetter {
		return domain.NewValidationError("kind", "must be one of articles, ein_letter")
	}
	return nil
}

func artifactFor(app *domain.Application, kind string) (*ArtifactDTO, error) {
	view := toTrackingView(app)
	artifact := &ArtifactDTO{Kind: kind, ApplicationID: app.ID, TrackingID: app.TrackingID}
	switch kind {
	case ArtifactArticles:
		if !view.CanDownloadArticles {
			return nil, &domain.PreconditionError{Track: domain.TrackCompany, Target: kind, Reason: "company is not registered yet"}
		}
		artifact.FileName = app.TrackingID + "-articles-of-organization.pdf"
	case ArtifactEINLetter:
		if !view.CanDownloadEINLetter {
			return nil, &domain.PreconditionError{Track: domain.TrackEIN, Target: kind, Reason: "EIN has not been issued yet"}
		}
		artifact.FileName = app.TrackingID + "-ein-confirmation-letter.pdf"
		artifact.EIN = app.Status.EINNumber
	}
	return artifact, nil
}

func (q *ApplicationQuery) lookup(ctx context.Context, trackingID string) (*domain.Application, error) {
	id := domain.NormalizeTrackingID(trackingID)
	if id == "" {
		q.metrics.RecordTrackingLookup("miss")
		return nil, domain.ErrNotFound
	}

	app, err := q.repo.GetByTrackingID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		q.metrics.RecordTrackingLookup("miss")
		return nil, err
	case err != nil:
		q.metrics.RecordTrackingLookup("error")
		return nil, err
	}
	q.metrics.RecordTrackingLookup("hit")
	return app, nil
}

func toTrackingView(app *domain.Application) *TrackingView {
	s := app.Status
	steps := make([]StepView, 0, 3)
	for _, track := range []domain.Track{domain.TrackDocument, domain.TrackCompany, domain.TrackEIN} {
		state := s.State(track)
		steps = append(steps, StepView{
			Track:       string(track),
			Status:      state,
			Description: stepDescriptions[track][state],
		})
	}

	return &TrackingView{
		TrackingID:           app.TrackingID,
		LLCName:              app.Client.LLCName,
		Status:               toStatusDTO(s),
		CurrentStep:          string(s.CurrentStep()),
		Steps:                steps,
		CanDownloadArticles:  s.Company == domain.CompanyRegistered,
		CanDownloadEINLetter: s.EIN == domain.EINIssued,
		UpdatedAt:            app.UpdatedAt,
	}
}
