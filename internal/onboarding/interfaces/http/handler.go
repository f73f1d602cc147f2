package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/llcformation/internal/onboarding/application"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
)

// HTTP 处理器
// 负责客户开户、材料上传、进度追踪以及后台审核接口
type OnboardingHandler struct {
	svc *application.OnboardingService
}

// 创建 HTTP 处理器实例
func NewOnboardingHandler(svc *application.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

// 注册路由
// trackMiddleware 作用于无需登录的追踪接口（通常为限流）
func (h *OnboardingHandler) RegisterRoutes(router gin.IRouter, trackMiddleware ...gin.HandlerFunc) {
	api := router.Group("/api/v1")
	{
		api.POST("/applications", h.CreateApplication)
		api.PUT("/applications/:id/documents/:kind", h.UploadDocument)
		api.POST("/applications/:id/submit", h.SubmitDocuments)
	}

	track := api.Group("/track", trackMiddleware...)
	{
		track.GET("/:trackingId", h.Track)
		track.GET("/:trackingId/artifacts/:kind", h.Artifact)
	}

	admin := api.Group("/admin", StaffAuth(h.svc.Staff()))
	{
		admin.GET("/applications", h.ListApplications)
		admin.GET("/applications/:id", h.GetApplication)
		admin.POST("/applications/:id/transitions", h.ApplyTransition)
		admin.GET("/applications/:id/artifacts/:kind", h.ApplicationArtifact)
	}
}

// CreateApplicationRequest 开户资料
type CreateApplicationRequest struct {
	LLCName     string `json:"llc_name"`
	LegalName   string `json:"legal_name"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Email       string `json:"email"`
}

// CreateApplication 提交开户资料
func (h *OnboardingHandler) CreateApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	app, err := h.svc.CreateApplication(c.Request.Context(), application.CreateApplicationCommand{
		Client: domain.ClientData{
			LLCName:     req.LLCName,
			LegalName:   req.LegalName,
			DateOfBirth: req.DateOfBirth,
			Nationality: req.Nationality,
			Phone:       req.Phone,
			Address:     req.Address,
			Email:       req.Email,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          app.ID,
		"tracking_id": app.TrackingID,
		"application": app,
	})
}

// UploadDocumentRequest 文件由外部存储保存，这里只绑定句柄
type UploadDocumentRequest struct {
	FileHandle string `json:"file_handle" binding:"required"`
}

// UploadDocument 绑定材料文件
func (h *OnboardingHandler) UploadDocument(c *gin.Context) {
	var req UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": gin.H{"file_handle": "is required"}})
		return
	}

	app, err := h.svc.UploadDocument(c.Request.Context(), application.UploadDocumentCommand{
		ApplicationID: c.Param("id"),
		Kind:          c.Param("kind"),
		FileHandle:    req.FileHandle,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// SubmitRequest 可选的版本校验
type SubmitRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

// SubmitDocuments 客户提交材料审核
func (h *OnboardingHandler) SubmitDocuments(c *gin.Context) {
	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	res, err := h.svc.SubmitDocuments(c.Request.Context(), c.Param("id"), req.ExpectedVersion)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Track 按追踪号查询进度
func (h *OnboardingHandler) Track(c *gin.Context) {
	view, err := h.svc.Track(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Artifact 文书下载描述
func (h *OnboardingHandler) Artifact(c *gin.Context) {
	artifact, err := h.svc.Artifact(c.Request.Context(), c.Param("trackingId"), c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// ListApplications 后台申请列表
func (h *OnboardingHandler) ListApplications(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	if err != nil || pageSize < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	result, err := h.svc.ListApplications(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetApplication 后台申请详情
func (h *OnboardingHandler) GetApplication(c *gin.Context) {
	app, err := h.svc.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// ApplicationArtifact 后台按申请 ID 获取文书
func (h *OnboardingHandler) ApplicationArtifact(c *gin.Context) {
	artifact, err := h.svc.ArtifactByApplicationID(c.Request.Context(), c.Param("id"), c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// TransitionRequest 后台状态变更
type TransitionRequest struct {
	Track           string `json:"track" binding:"required"`
	Target          string `json:"target" binding:"required"`
	EIN             string `json:"ein"`
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

// ApplyTransition 后台状态变更
func (h *OnboardingHandler) ApplyTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track and target are required"})
		return
	}

	res, err := h.svc.ApplyTransition(c.Request.Context(), application.ApplyTransitionCommand{
		ApplicationID:   c.Param("id"),
		Track:           req.Track,
		Target:          req.Target,
		EIN:             req.EIN,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
		Actor:           actorFrom(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// writeError 领域错误到 HTTP 状态码的映射
func writeError(c *gin.Context, err error) {
	var (
		ve *domain.ValidationError
		ie *domain.IllegalTransitionError
		pe *domain.PreconditionError
	)

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
	case errors.As(err, &ie):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ie.Error(), "code": "illegal_transition"})
	case errors.As(err, &pe):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pe.Error(), "code": "precondition_failed"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "application was modified concurrently, reload and retry"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
	default:
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
