// Package grpc 提供了开户服务的 gRPC 接口实现。
package grpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/wyfcoding/llcformation/internal/onboarding/application"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ OnboardingServer = (*Handler)(nil)

// Handler 实现 OnboardingServer，后台方法通过 authorization 元数据做 Basic 认证
type Handler struct {
	svc *application.OnboardingService
}

// NewHandler 构造一个新的开户 gRPC 处理器实例。
func NewHandler(svc *application.OnboardingService) *Handler {
	return &Handler{svc: svc}
}

type applicationIDRequest struct {
	ApplicationID   string `json:"application_id"`
	ExpectedVersion int64  `json:"expected_version"`
}

type uploadRequest struct {
	ApplicationID string `json:"application_id"`
	Kind          string `json:"kind"`
	FileHandle    string `json:"file_handle"`
}

type listRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type trackRequest struct {
	TrackingID string `json:"tracking_id"`
}

type transitionRequest struct {
	ApplicationID   string `json:"application_id"`
	Track           string `json:"track"`
	Target          string `json:"target"`
	EIN             string `json:"ein"`
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

// SubmitApplication 提交开户资料，返回申请 ID 与追踪号
func (h *Handler) SubmitApplication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var client domain.ClientData
	if err := decodeRequest(in, &client); err != nil {
		return nil, err
	}
	app, err := h.svc.CreateApplication(ctx, application.CreateApplicationCommand{Client: client})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(app)
}

// UploadDocument 绑定材料文件
func (h *Handler) UploadDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req uploadRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	app, err := h.svc.UploadDocument(ctx, application.UploadDocumentCommand{
		ApplicationID: req.ApplicationID,
		Kind:          req.Kind,
		FileHandle:    req.FileHandle,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(app)
}

// SubmitDocuments 客户提交材料审核
func (h *Handler) SubmitDocuments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req applicationIDRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	res, err := h.svc.SubmitDocuments(ctx, req.ApplicationID, req.ExpectedVersion)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(res)
}

// GetApplication 后台查询申请详情
func (h *Handler) GetApplication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.staff(ctx); err != nil {
		return nil, err
	}
	var req applicationIDRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	app, err := h.svc.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(app)
}

// ListApplications 后台分页列表
func (h *Handler) ListApplications(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.staff(ctx); err != nil {
		return nil, err
	}
	var req listRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.Page < 0 || req.PageSize < 0 {
		return nil, status.Error(codes.InvalidArgument, "page and page_size must not be negative")
	}
	page, err := h.svc.ListApplications(ctx, req.Page, req.PageSize)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(page)
}

// TrackApplication 按追踪号查询进度
func (h *Handler) TrackApplication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req trackRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	view, err := h.svc.Track(ctx, req.TrackingID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(view)
}

// ApplyTransition 后台状态变更
func (h *Handler) ApplyTransition(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.staff(ctx)
	if err != nil {
		return nil, err
	}
	var req transitionRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	res, err := h.svc.ApplyTransition(ctx, application.ApplyTransitionCommand{
		ApplicationID:   req.ApplicationID,
		Track:           req.Track,
		Target:          req.Target,
		EIN:             req.EIN,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
		Actor:           actor,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return encodeResponse(res)
}

// staff 从 authorization 元数据解析 Basic 凭证
func (h *Handler) staff(ctx context.Context) (domain.Actor, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	raw, ok := strings.CutPrefix(values[0], "Basic ")
	if !ok {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "basic credentials required")
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "malformed credentials")
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "malformed credentials")
	}
	actor, err := h.svc.Staff().Authenticate(username, password)
	if err != nil {
		logger.Warn(ctx, "staff authentication failed", "username", username)
		return domain.Actor{}, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	return actor, nil
}

// BasicCredentials 生成 authorization 元数据的取值
func BasicCredentials(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// decodeRequest Struct 经 JSON 转为请求结构体
func decodeRequest(in *structpb.Struct, out any) error {
	data, err := in.MarshalJSON()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus 领域错误到 gRPC 状态码的映射
func toStatus(ctx context.Context, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "application not found")
	case domain.IsIllegalTransition(err), domain.IsPrecondition(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.Aborted, "application was modified concurrently")
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, application.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	default:
		logger.Error(ctx, "grpc request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
