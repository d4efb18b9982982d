package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/repository"
	"pixel-canvas/internal/service"
)

// UserHandler 提供当前用户的档案与贡献统计查询。
type UserHandler struct {
	identityService *service.IdentityService
	paintEventRepo  repository.PaintEventRepository
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(identityService *service.IdentityService, paintEventRepo repository.PaintEventRepository) *UserHandler {
	if identityService == nil || paintEventRepo == nil {
		panic("All dependencies must be non-nil for UserHandler")
	}
	return &UserHandler{
		identityService: identityService,
		paintEventRepo:  paintEventRepo,
	}
}

// ProfileResponse 是 GET /api/user 中 user 字段的形状。
type ProfileResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	ProfileURL    string `json:"profileUrl"`
	IsAdmin       bool   `json:"isAdmin"`
	PixelsPainted uint   `json:"pixelsPainted"`
}

// Profile 返回当前用户的档案。未认证的请求得到 user: null，
// 前端据此决定显示登录入口还是用户信息。
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		SuccessResponse(c, http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.identityService.Lookup(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownIdentity) {
			// Token 有效但用户行已消失，对前端来说等同未登录
			SuccessResponse(c, http.StatusOK, gin.H{"user": nil})
			return
		}
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{"user": ProfileResponse{
		ID:            user.ID,
		Name:          user.Username,
		Type:          user.AuthType,
		ProfileURL:    user.ProfileURL,
		IsAdmin:       user.IsAdmin,
		PixelsPainted: user.PixelsPainted,
	}})
}

// StatsResponse 是 GET /api/user/stats 的响应体。
type StatsResponse struct {
	PixelsPainted uint  `json:"pixelsPainted"`
	AuditedPaints int64 `json:"auditedPaints"`
}

// Stats 返回当前认证用户的贡献统计。
// auditedPaints 来自后台任务写入的审计表，可能滞后于 pixelsPainted。
func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.identityService.Lookup(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownIdentity) {
			ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		HandleServiceError(c, err)
		return
	}

	audited, err := h.paintEventRepo.CountByUser(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Handler.Stats: Failed to count audited paints")
		audited = 0
	}

	SuccessResponse(c, http.StatusOK, StatsResponse{
		PixelsPainted: user.PixelsPainted,
		AuditedPaints: audited,
	})
}

// contextUserID 取出认证中间件注入的用户 ID。
func contextUserID(c *gin.Context) (string, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	userID, ok := userIDAny.(string)
	if !ok || userID == "" {
		logrus.Error("Handler: user_id in context is not a string")
		return "", false
	}
	return userID, true
}
