// Package gormstore 基于 GORM 的申请仓储，支持 mysql、postgres、sqlite
package gormstore

import (
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
)

// ApplicationModel 申请持久化对象
type ApplicationModel struct {
	ID            uint   `gorm:"primarykey"`
	ApplicationID string `gorm:"column:application_id;type:varchar(36);uniqueIndex;not null"`
	TrackingID    string `gorm:"column:tracking_id;type:varchar(32);uniqueIndex;not null"`

	LLCName     string `gorm:"column:llc_name;type:varchar(200);not null"`
	LegalName   string `gorm:"column:legal_name;type:varchar(200);not null"`
	DateOfBirth string `gorm:"column:date_of_birth;type:varchar(10);not null"`
	Nationality string `gorm:"column:nationality;type:varchar(100);not null"`
	Phone       string `gorm:"column:phone;type:varchar(32);not null"`
	Address     string `gorm:"column:address;type:varchar(500);not null"`
	Email       string `gorm:"column:email;type:varchar(254);index;not null"`

	DocumentStatus string `gorm:"column:document_status;type:varchar(16);not null"`
	CompanyStatus  string `gorm:"column:company_status;type:varchar(16);not null"`
	EINStatus      string `gorm:"column:ein_status;type:varchar(16);not null"`
	EIN            string `gorm:"column:ein;type:varchar(32)"`

	Version   int64     `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Documents []DocumentModel `gorm:"foreignKey:ApplicationID;references:ApplicationID"`
}

// TableName 表名
func (ApplicationModel) TableName() string { return "onboarding_applications" }

// DocumentModel 申请材料持久化对象
type DocumentModel struct {
	ID              uint      `gorm:"primarykey"`
	ApplicationID   string    `gorm:"column:application_id;type:varchar(36);uniqueIndex:idx_app_kind;not null"`
	Kind            string    `gorm:"column:kind;type:varchar(32);uniqueIndex:idx_app_kind;not null"`
	FileHandle      string    `gorm:"column:file_handle;type:varchar(512);not null"`
	Status          string    `gorm:"column:status;type:varchar(16);not null"`
	RejectionReason string    `gorm:"column:rejection_reason;type:varchar(500)"`
	UploadedAt      time.Time `gorm:"column:uploaded_at"`
}

// TableName 表名
func (DocumentModel) TableName() string { return "onboarding_documents" }

func toModel(app *domain.Application) *ApplicationModel {
	return &ApplicationModel{
		ApplicationID:  app.ID,
		TrackingID:     app.TrackingID,
		LLCName:        app.Client.LLCName,
		LegalName:      app.Client.LegalName,
		DateOfBirth:    app.Client.DateOfBirth,
		Nationality:    app.Client.Nationality,
		Phone:          app.Client.Phone,
		Address:        app.Client.Address,
		Email:          app.Client.Email,
		DocumentStatus: string(app.Status.Document),
		CompanyStatus:  string(app.Status.Company),
		EINStatus:      string(app.Status.EIN),
		EIN:            app.Status.EINNumber,
		Version:        app.Version,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
		Documents:      toDocumentModels(app),
	}
}

func toDocumentModels(app *domain.Application) []DocumentModel {
	docs := app.Documents.All()
	out := make([]DocumentModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentModel{
			ApplicationID:   app.ID,
			Kind:            string(d.Kind),
			FileHandle:      d.FileHandle,
			Status:          string(d.Status),
			RejectionReason: d.RejectionReason,
			UploadedAt:      d.UploadedAt,
		})
	}
	return out
}

// ToDomain 转换为领域对象
func (m *ApplicationModel) ToDomain() *domain.Application {
	app := &domain.Application{
		ID:         m.ApplicationID,
		TrackingID: m.TrackingID,
		Client: domain.ClientData{
			LLCName:     m.LLCName,
			LegalName:   m.LegalName,
			DateOfBirth: m.DateOfBirth,
			Nationality: m.Nationality,
			Phone:       m.Phone,
			Address:     m.Address,
			Email:       m.Email,
		},
		Status: domain.OnboardingStatus{
			Document:  domain.DocumentStatus(m.DocumentStatus),
			Company:   domain.CompanyStatus(m.CompanyStatus),
			EIN:       domain.EINStatus(m.EINStatus),
			EINNumber: m.EIN,
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	for _, d := range m.Documents {
		doc := &domain.Document{
			Kind:            domain.DocumentKind(d.Kind),
			FileHandle:      d.FileHandle,
			Status:          domain.DocumentStatus(d.Status),
			RejectionReason: d.RejectionReason,
			UploadedAt:      d.UploadedAt,
		}
		switch doc.Kind {
		case domain.DocumentPassport:
			app.Documents.Passport = doc
		case domain.DocumentProofOfAddress:
			app.Documents.ProofOfAddress = doc
		}
	}
	return app
}
