package application

import (
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/utils"
)

// CreateApplicationCommand 客户提交开户资料
type CreateApplicationCommand struct {
	Client domain.ClientData
}

// UploadDocumentCommand 绑定已上传文件
type UploadDocumentCommand struct {
	ApplicationID string
	Kind          string
	FileHandle    string
}

// ApplyTransitionCommand 状态变更指令
type ApplyTransitionCommand struct {
	ApplicationID string
	Track         string
	Target        string
	EIN           string
	Reason        string
	// 大于 0 时做版本校验
	ExpectedVersion int64
	Actor           domain.Actor
}

type DocumentDTO struct {
	Kind            string    `json:"kind"`
	FileHandle      string    `json:"file_handle"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

type StatusDTO struct {
	DocumentStatus string `json:"document_status"`
	CompanyStatus  string `json:"company_status"`
	EINStatus      string `json:"ein_status"`
	EIN            string `json:"ein,omitempty"`
}

type ApplicationDTO struct {
	ID          string            `json:"id"`
	TrackingID  string            `json:"tracking_id"`
	Client      domain.ClientData `json:"client"`
	Documents   []DocumentDTO     `json:"documents"`
	Status      StatusDTO         `json:"status"`
	CurrentStep string            `json:"current_step"`
	Version     int64             `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TransitionResult Changed 为 false 表示目标状态与当前一致
type TransitionResult struct {
	Application *ApplicationDTO `json:"application"`
	Changed     bool            `json:"changed"`
}

// ApplicationPage 后台列表分页结果
type ApplicationPage struct {
	Items      []*ApplicationDTO `json:"items"`
	Pagination *utils.Pagination `json:"pagination"`
}

// StepView 追踪页单条 track 的展示
type StepView struct {
	Track       string `json:"track"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// TrackingView 客户追踪页只读投影
type TrackingView struct {
	TrackingID           string     `json:"tracking_id"`
	LLCName              string     `json:"llc_name"`
	Status               StatusDTO  `json:"status"`
	CurrentStep          string     `json:"current_step"`
	Steps                []StepView `json:"steps"`
	CanDownloadArticles  bool       `json:"can_download_articles"`
	CanDownloadEINLetter bool       `json:"can_download_ein_letter"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// ArtifactDTO 可下载文书描述，文书本身由外部系统生成
type ArtifactDTO struct {
	Kind          string `json:"kind"`
	ApplicationID string `json:"application_id"`
	TrackingID    string `json:"tracking_id"`
	FileName      string `json:"file_name"`
	EIN           string `json:"ein,omitempty"`
}

func toStatusDTO(s domain.OnboardingStatus) StatusDTO {
	return StatusDTO{
		DocumentStatus: string(s.Document),
		CompanyStatus:  string(s.Company),
		EINStatus:      string(s.EIN),
		EIN:            s.EINNumber,
	}
}

func toApplicationDTO(app *domain.Application) *ApplicationDTO {
	docs := make([]DocumentDTO, 0, 2)
	for _, d := range app.Documents.All() {
		docs = append(docs, DocumentDTO{
			Kind:            string(d.Kind),
			FileHandle:      d.FileHandle,
			Status:          string(d.Status),
			RejectionReason: d.RejectionReason,
			UploadedAt:      d.UploadedAt,
		})
	}
	return &ApplicationDTO{
		ID:          app.ID,
		TrackingID:  app.TrackingID,
		Client:      app.Client,
		Documents:   docs,
		Status:      toStatusDTO(app.Status),
		CurrentStep: string(app.CurrentStep()),
		Version:     app.Version,
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}
