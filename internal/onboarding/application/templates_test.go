package application

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
)

func TestDefaultTemplatesRenderEveryKind(t *testing.T) {
	tpl, err := LoadTemplates("")
	require.NoError(t, err)

	data := map[string]string{
		"tracking_id":  "LLC-AAAAA-00001",
		"tracking_url": "https://llc.example.com/track/LLC-AAAAA-00001",
		"llc_name":     "Acme Holdings LLC",
		"legal_name":   "Jordan Smith",
		"decision":     "approved",
		"ein":          "12-3456789",
	}
	for _, kind := range []domain.NotificationKind{
		domain.NotificationTrackingIssued,
		domain.NotificationDocumentDecision,
		domain.NotificationCompanyRegistered,
		domain.NotificationEINIssued,
	} {
		subject, body, err := tpl.Render(&domain.Notification{Kind: kind, Data: data})
		require.NoError(t, err, kind)
		require.Contains(t, subject, "LLC-AAAAA-00001")
		require.Contains(t, body, "https://llc.example.com/track/LLC-AAAAA-00001")
	}
}

func TestRejectedDecisionWithoutReason(t *testing.T) {
	tpl, err := LoadTemplates("")
	require.NoError(t, err)

	subject, body, err := tpl.Render(&domain.Notification{
		Kind: domain.NotificationDocumentDecision,
		Data: map[string]string{"tracking_id": "LLC-AAAAA-00001", "decision": "rejected", "llc_name": "Acme"},
	})
	require.NoError(t, err)
	require.Equal(t, "Action needed: documents rejected (LLC-AAAAA-00001)", subject)
	require.NotContains(t, body, "Reason:")
	require.NotContains(t, body, "<no value>")
}

func TestParseTemplatesRequiresEveryKind(t *testing.T) {
	_, err := ParseTemplates([]byte("tracking-issued:\n  subject: hi\n  body: there\n"))
	require.Error(t, err)

	_, err = ParseTemplates([]byte("tracking-issued: [unclosed"))
	require.Error(t, err)
}
