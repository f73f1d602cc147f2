package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/internal/onboarding/application"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/messaging"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/persistence/memory"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/sender"
	"github.com/wyfcoding/llcformation/pkg/config"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/middleware"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	templates, err := application.LoadTemplates("")
	require.NoError(t, err)
	m := metrics.New("test")
	repo := memory.NewApplicationRepository()
	dispatcher := application.NewDispatcher(sender.NewLogSender(), messaging.LogEventPublisher{}, templates, m, 1, 64)
	t.Cleanup(func() { _ = dispatcher.Close() })

	manager := application.NewApplicationManager(repo, domain.NewTrackingIDGenerator("LLC"), domain.NewNotificationTrigger("https://llc.example.com"), dispatcher, m)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	staff := application.NewStaffAuthenticator([]config.StaffAccount{{Username: "ops", PasswordHash: string(hash), Role: "processor"}})
	svc := application.NewOnboardingService(manager, application.NewApplicationQuery(repo, m), staff)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.GRPCRecovery(), middleware.GRPCLogging(m)))
	RegisterOnboardingServer(srv, NewHandler(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, ctx context.Context, method string, req map[string]any) (map[string]any, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func staffCtx() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", BasicCredentials("ops", "s3cret"))
}

func submit(t *testing.T, conn *grpc.ClientConn) (string, string) {
	t.Helper()
	out, err := call(t, conn, context.Background(), MethodSubmitApplication, map[string]any{
		"llc_name":      "Acme Holdings LLC",
		"legal_name":    "Jordan Smith",
		"date_of_birth": "1990-04-12",
		"nationality":   "Canadian",
		"phone":         "+1 415-555-0100",
		"address":       "1 Market St, San Francisco, CA",
		"email":         "jordan@example.com",
	})
	require.NoError(t, err)
	return out["id"].(string), out["tracking_id"].(string)
}

func TestLifecycleOverGRPC(t *testing.T) {
	conn := dial(t)
	ctx := context.Background()
	id, trackingID := submit(t, conn)

	for _, kind := range []string{"passport", "proof_of_address"} {
		_, err := call(t, conn, ctx, MethodUploadDocument, map[string]any{"application_id": id, "kind": kind, "file_handle": "files/" + kind})
		require.NoError(t, err)
	}
	out, err := call(t, conn, ctx, MethodSubmitDocuments, map[string]any{"application_id": id})
	require.NoError(t, err)
	require.Equal(t, true, out["changed"])

	steps := []struct{ track, target, ein string }{
		{"document", "approved", ""},
		{"company", "registering", ""},
		{"company", "registered", ""},
		{"ein", "processing", ""},
		{"ein", "issued", "12-3456789"},
	}
	for _, s := range steps {
		_, err := call(t, conn, staffCtx(), MethodApplyTransition, map[string]any{
			"application_id": id, "track": s.track, "target": s.target, "ein": s.ein,
		})
		require.NoError(t, err, s.track+"->"+s.target)
	}

	view, err := call(t, conn, ctx, MethodTrackApplication, map[string]any{"tracking_id": trackingID})
	require.NoError(t, err)
	require.Equal(t, "complete", view["current_step"])

	detail, err := call(t, conn, staffCtx(), MethodGetApplication, map[string]any{"application_id": id})
	require.NoError(t, err)
	require.Equal(t, "12-3456789", detail["status"].(map[string]any)["ein"])

	list, err := call(t, conn, staffCtx(), MethodListApplications, map[string]any{})
	require.NoError(t, err)
	require.Len(t, list["items"], 1)
}

func TestStatusCodes(t *testing.T) {
	conn := dial(t)
	ctx := context.Background()
	id, _ := submit(t, conn)

	codeOf := func(err error) codes.Code {
		require.Error(t, err)
		return status.Code(err)
	}

	_, err := call(t, conn, ctx, MethodSubmitApplication, map[string]any{"llc_name": "Acme"})
	require.Equal(t, codes.InvalidArgument, codeOf(err))

	_, err = call(t, conn, ctx, MethodTrackApplication, map[string]any{"tracking_id": "LLC-ZZZZZ-ZZZZZ"})
	require.Equal(t, codes.NotFound, codeOf(err))

	_, err = call(t, conn, ctx, MethodSubmitDocuments, map[string]any{"application_id": id})
	require.Equal(t, codes.FailedPrecondition, codeOf(err))

	_, err = call(t, conn, staffCtx(), MethodApplyTransition, map[string]any{"application_id": id, "track": "company", "target": "registered"})
	require.Equal(t, codes.FailedPrecondition, codeOf(err))

	_, err = call(t, conn, staffCtx(), MethodApplyTransition, map[string]any{"application_id": id, "track": "document", "target": "reviewing", "expected_version": 42})
	require.Equal(t, codes.Aborted, codeOf(err))

	_, err = call(t, conn, ctx, MethodApplyTransition, map[string]any{"application_id": id, "track": "document", "target": "approved"})
	require.Equal(t, codes.Unauthenticated, codeOf(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), "authorization", BasicCredentials("ops", "nope"))
	_, err = call(t, conn, bad, MethodGetApplication, map[string]any{"application_id": id})
	require.Equal(t, codes.Unauthenticated, codeOf(err))
}
