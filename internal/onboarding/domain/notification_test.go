package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTriggerOnCreated(t *testing.T) {
	trigger := NewNotificationTrigger("https://llc.example.com/")
	app := NewApplication("app-1", "LLC-AAAAA-BBBBB", validClient(), time.Now())

	n := trigger.OnCreated(app)
	require.NotNil(t, n)
	require.Equal(t, NotificationTrackingIssued, n.Kind)
	require.Equal(t, "jordan@example.com", n.Recipient)
	require.Equal(t, "https://llc.example.com/track/LLC-AAAAA-BBBBB", n.Data["tracking_url"])
	require.Equal(t, "Acme Holdings LLC", n.Data["llc_name"])
}

func TestTriggerOnStatusChanged(t *testing.T) {
	trigger := NewNotificationTrigger("https://llc.example.com")
	app := NewApplication("app-1", "LLC-AAAAA-BBBBB", validClient(), time.Now())

	base := InitialStatus()
	with := func(f func(*OnboardingStatus)) OnboardingStatus {
		s := base
		f(&s)
		return s
	}

	cases := []struct {
		name string
		prev OnboardingStatus
		next OnboardingStatus
		want NotificationKind
	}{
		{"submitted", base, with(func(s *OnboardingStatus) { s.Document = DocumentReviewing }), ""},
		{"approved", with(func(s *OnboardingStatus) { s.Document = DocumentReviewing }), with(func(s *OnboardingStatus) { s.Document = DocumentApproved }), NotificationDocumentDecision},
		{"rejected", with(func(s *OnboardingStatus) { s.Document = DocumentReviewing }), with(func(s *OnboardingStatus) { s.Document = DocumentRejected }), NotificationDocumentDecision},
		{"registering", with(func(s *OnboardingStatus) { s.Document = DocumentApproved }), with(func(s *OnboardingStatus) { s.Document = DocumentApproved; s.Company = CompanyRegistering }), ""},
		{"registered", with(func(s *OnboardingStatus) { s.Document = DocumentApproved; s.Company = CompanyRegistering }), with(func(s *OnboardingStatus) { s.Document = DocumentApproved; s.Company = CompanyRegistered }), NotificationCompanyRegistered},
		{"ein processing", base, with(func(s *OnboardingStatus) { s.EIN = EINProcessing }), ""},
		{"ein issued", with(func(s *OnboardingStatus) { s.EIN = EINProcessing }), with(func(s *OnboardingStatus) { s.EIN = EINIssued; s.EINNumber = "12-3456789" }), NotificationEINIssued},
		{"unchanged", with(func(s *OnboardingStatus) { s.Document = DocumentApproved }), with(func(s *OnboardingStatus) { s.Document = DocumentApproved }), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := trigger.OnStatusChanged(app, tc.prev, tc.next)
			if tc.want == "" {
				require.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			require.Equal(t, tc.want, n.Kind)
			require.Equal(t, app.Client.Email, n.Recipient)
		})
	}
}

func TestTriggerCarriesDecisionDetails(t *testing.T) {
	trigger := NewNotificationTrigger("")
	app := NewApplication("app-1", "LLC-AAAAA-BBBBB", validClient(), time.Now())
	app.Documents = readyDocs()
	app.Status.Document = DocumentReviewing
	prev := app.Status

	_, err := app.ApplyTransition(TrackDocument, "rejected", TransitionPayload{Reason: "address is outdated"}, time.Now())
	require.NoError(t, err)

	n := trigger.OnStatusChanged(app, prev, app.Status)
	require.Equal(t, "rejected", n.Data["decision"])
	require.Equal(t, "address is outdated", n.Data["reason"])

	issued := OnboardingStatus{Document: DocumentApproved, Company: CompanyRegistered, EIN: EINIssued, EINNumber: "12-3456789"}
	prev = issued
	prev.EIN, prev.EINNumber = EINProcessing, ""
	n = trigger.OnStatusChanged(app, prev, issued)
	require.Equal(t, "12-3456789", n.Data["ein"])
}
