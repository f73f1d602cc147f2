package domain

import "strings"

// NotificationKind 通知类型
type NotificationKind string

const (
	NotificationTrackingIssued    NotificationKind = "tracking-issued"
	NotificationDocumentDecision  NotificationKind = "document-decision"
	NotificationCompanyRegistered NotificationKind = "company-registered"
	NotificationEINIssued         NotificationKind = "ein-issued"
)

// Notification 待发送的通知，投递由外部协作者完成
type Notification struct {
	Kind          NotificationKind  `json:"kind"`
	Recipient     string            `json:"recipient"`
	ApplicationID string            `json:"application_id"`
	TrackingID    string            `json:"tracking_id"`
	Data          map[string]string `json:"data"`
}

// NotificationTrigger 决定何时、发送何种通知，不做任何 I/O
type NotificationTrigger struct {
	publicBaseURL string
}

// NewNotificationTrigger publicBaseURL 用于拼接追踪页面地址
func NewNotificationTrigger(publicBaseURL string) NotificationTrigger {
	return NotificationTrigger{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// TrackingURL 客户追踪页面地址
func (t NotificationTrigger) TrackingURL(trackingID string) string {
	return t.publicBaseURL + "/track/" + trackingID
}

// OnCreated 申请创建后发送追踪号
func (t NotificationTrigger) OnCreated(app *Application) *Notification {
	return t.build(app, NotificationTrackingIssued, nil)
}

// OnStatusChanged 某条 track 进入决定性状态时返回通知，否则返回 nil
func (t NotificationTrigger) OnStatusChanged(app *Application, prev, next OnboardingStatus) *Notification {
	switch {
	case prev.Document != next.Document &&
		(next.Document == DocumentApproved || next.Document == DocumentRejected):
		extra := map[string]string{"decision": string(next.Document)}
		if next.Document == DocumentRejected {
			extra["reason"] = rejectionReason(app)
		}
		return t.build(app, NotificationDocumentDecision, extra)
	case prev.Company != next.Company && next.Company == CompanyRegistered:
		return t.build(app, NotificationCompanyRegistered, nil)
	case prev.EIN != next.EIN && next.EIN == EINIssued:
		return t.build(app, NotificationEINIssued, map[string]string{"ein": next.EINNumber})
	}
	return nil
}

func (t NotificationTrigger) build(app *Application, kind NotificationKind, extra map[string]string) *Notification {
	data := map[string]string{
		"tracking_id":  app.TrackingID,
		"tracking_url": t.TrackingURL(app.TrackingID),
		"llc_name":     app.Client.LLCName,
		"legal_name":   app.Client.LegalName,
	}
	for k, v := range extra {
		data[k] = v
	}
	return &Notification{
		Kind:          kind,
		Recipient:     app.Client.Email,
		ApplicationID: app.ID,
		TrackingID:    app.TrackingID,
		Data:          data,
	}
}

func rejectionReason(app *Application) string {
	for _, doc := range app.Documents.All() {
		if doc.RejectionReason != "" {
			return doc.RejectionReason
		}
	}
	return ""
}
