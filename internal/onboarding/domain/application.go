// Package domain LLC 开户申请的领域模型：申请聚合、三条状态 track 的状态机、通知触发规则
package domain

import (
	"fmt"
	"time"
)

// DocumentStatus 材料审核状态
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentReviewing DocumentStatus = "reviewing"
	DocumentApproved  DocumentStatus = "approved"
	DocumentRejected  DocumentStatus = "rejected"
)

// CompanyStatus 公司注册状态
type CompanyStatus string

const (
	CompanyPending     CompanyStatus = "pending"
	CompanyRegistering CompanyStatus = "registering"
	CompanyRegistered  CompanyStatus = "registered"
)

// EINStatus EIN 申请状态
type EINStatus string

const (
	EINPending    EINStatus = "pending"
	EINProcessing EINStatus = "processing"
	EINIssued     EINStatus = "issued"
)

// DocumentKind 必需材料类型
type DocumentKind string

const (
	DocumentPassport       DocumentKind = "passport"
	DocumentProofOfAddress DocumentKind = "proof_of_address"
)

// RequiredDocuments 提交审核前必须上传的材料
var RequiredDocuments = []DocumentKind{DocumentPassport, DocumentProofOfAddress}

// ParseDocumentKind 解析材料类型
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch DocumentKind(s) {
	case DocumentPassport, DocumentProofOfAddress:
		return DocumentKind(s), true
	}
	return "", false
}

// Document 单份材料，FileHandle 由外部文件存储分配
type Document struct {
	Kind            DocumentKind
	FileHandle      string
	Status          DocumentStatus
	RejectionReason string
	UploadedAt      time.Time
}

// Documents 申请的材料集合
type Documents struct {
	Passport       *Document
	ProofOfAddress *Document
}

// Get 按类型取材料，未上传返回 nil
func (d Documents) Get(kind DocumentKind) *Document {
	switch kind {
	case DocumentPassport:
		return d.Passport
	case DocumentProofOfAddress:
		return d.ProofOfAddress
	}
	return nil
}

func (d *Documents) set(doc *Document) {
	switch doc.Kind {
	case DocumentPassport:
		d.Passport = doc
	case DocumentProofOfAddress:
		d.ProofOfAddress = doc
	}
}

// Ready 必需材料是否已全部上传
func (d Documents) Ready() bool {
	for _, k := range RequiredDocuments {
		if doc := d.Get(k); doc == nil || doc.FileHandle == "" {
			return false
		}
	}
	return true
}

// All 已上传的材料
func (d Documents) All() []*Document {
	out := make([]*Document, 0, 2)
	for _, k := range RequiredDocuments {
		if doc := d.Get(k); doc != nil {
			out = append(out, doc)
		}
	}
	return out
}

func (d Documents) clone() Documents {
	var out Documents
	for _, doc := range d.All() {
		cp := *doc
		out.set(&cp)
	}
	return out
}

// OnboardingStatus 申请的复合状态，整体替换，不做字段级修改
type OnboardingStatus struct {
	Document DocumentStatus
	Company  CompanyStatus
	EIN      EINStatus
	// 仅在 EIN == issued 时非空
	EINNumber string
}

// InitialStatus 新申请的初始状态
func InitialStatus() OnboardingStatus {
	return OnboardingStatus{
		Document: DocumentPending,
		Company:  CompanyPending,
		EIN:      EINPending,
	}
}

// Complete 三条 track 均到达终态
func (s OnboardingStatus) Complete() bool {
	return s.Document == DocumentApproved && s.Company == CompanyRegistered && s.EIN == EINIssued
}

// State 取某条 track 的当前状态
func (s OnboardingStatus) State(track Track) string {
	switch track {
	case TrackDocument:
		return string(s.Document)
	case TrackCompany:
		return string(s.Company)
	case TrackEIN:
		return string(s.EIN)
	}
	return ""
}

// Step 客户视角的当前步骤
type Step string

const (
	StepDocumentUpload      Step = "document-upload"
	StepDocumentReview      Step = "document-review"
	StepCompanyRegistration Step = "company-registration"
	StepEINIssuance         Step = "ein-issuance"
	StepComplete            Step = "complete"
)

// CurrentStep 由复合状态推导
func (s OnboardingStatus) CurrentStep() Step {
	switch {
	case s.Document == DocumentPending || s.Document == DocumentRejected:
		return StepDocumentUpload
	case s.Document == DocumentReviewing:
		return StepDocumentReview
	case s.Company != CompanyRegistered:
		return StepCompanyRegistration
	case s.EIN != EINIssued:
		return StepEINIssuance
	default:
		return StepComplete
	}
}

// Application 开户申请聚合根
type Application struct {
	ID         string
	TrackingID string
	Client     ClientData
	Documents  Documents
	Status     OnboardingStatus
	// 乐观锁版本，每次写入递增
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewApplication 创建处于初始状态的申请
func NewApplication(id, trackingID string, client ClientData, now time.Time) *Application {
	return &Application{
		ID:         id,
		TrackingID: trackingID,
		Client:     client,
		Status:     InitialStatus(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone 深拷贝
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Documents = a.Documents.clone()
	return &cp
}

// CurrentStep 当前步骤
func (a *Application) CurrentStep() Step {
	return a.Status.CurrentStep()
}

// AttachDocument 绑定上传的材料，材料状态置为 pending，不改变 document track
func (a *Application) AttachDocument(kind DocumentKind, fileHandle string, now time.Time) error {
	if _, ok := ParseDocumentKind(string(kind)); !ok {
		return NewValidationError("kind", "must be one of passport, proof_of_address")
	}
	if fileHandle == "" {
		return NewValidationError("file_handle", "is required")
	}
	if s := a.Status.Document; s != DocumentPending && s != DocumentRejected {
		return &PreconditionError{
			Track:  TrackDocument,
			Target: string(s),
			Reason: "documents can only be uploaded while pending or after rejection",
		}
	}

	a.Documents.set(&Document{
		Kind:       kind,
		FileHandle: fileHandle,
		Status:     DocumentPending,
		UploadedAt: now,
	})
	a.UpdatedAt = now
	return nil
}

// ApplyTransition 在聚合上执行状态变更，状态未变化时返回 false 且不修改聚合
func (a *Application) ApplyTransition(track Track, target string, payload TransitionPayload, now time.Time) (bool, error) {
	next, changed, err := Transition(a.Status, a.Documents, track, target, payload)
	if err != nil || !changed {
		return false, err
	}

	if track == TrackDocument {
		docs := a.Documents.clone()
		for _, doc := range docs.All() {
			doc.Status = next.Document
			doc.RejectionReason = ""
			if next.Document == DocumentRejected {
				doc.RejectionReason = payload.Reason
			}
		}
		a.Documents = docs
	}

	a.Status = next
	a.UpdatedAt = now
	return true, nil
}

// CheckInvariants 校验静态不变量，仓储在提交变更前调用
func (a *Application) CheckInvariants() error {
	s := a.Status
	if a.TrackingID == "" {
		return fmt.Errorf("%w: tracking id is empty", ErrInvariantViolated)
	}
	if (s.Company == CompanyRegistering || s.Company == CompanyRegistered) && s.Document != DocumentApproved {
		return fmt.Errorf("%w: company is %s while documents are %s", ErrInvariantViolated, s.Company, s.Document)
	}
	if (s.EIN == EINProcessing || s.EIN == EINIssued) && s.Company != CompanyRegistered {
		return fmt.Errorf("%w: ein is %s while company is %s", ErrInvariantViolated, s.EIN, s.Company)
	}
	if (s.EIN == EINIssued) != (s.EINNumber != "") {
		return fmt.Errorf("%w: ein number must be set exactly when issued", ErrInvariantViolated)
	}
	return nil
}
