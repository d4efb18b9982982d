package websocket

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/hub"
	"pixel-canvas/internal/service"
)

// guestSessionCookie 是访客会话 Cookie 的名字。
// 同一浏览器的所有标签页共享它，因此映射到同一个访客身份。
const guestSessionCookie = "guest_session"

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader        websocket.Upgrader
	hub             *hub.Hub
	identityService *service.IdentityService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(h *hub.Hub, identityService *service.IdentityService) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if identityService == nil {
		panic("IdentityService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:        upgrader,
		hub:             h,
		identityService: identityService,
	}
}

// HandleConnection 处理画布 WebSocket 连接请求。
// 路由挂在 OptionalAuth 之后：带有效 JWT 的请求以认证身份连接，
// 其余请求以 Cookie 派生的访客身份连接。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithField("operation", "HandleConnection")

	// 1. 解析连接身份 (升级前完成，失败时还能返回 HTTP 错误)
	identity, responseHeader, err := h.resolveIdentity(c)
	if err != nil {
		if errors.Is(err, service.ErrUnknownIdentity) {
			logCtx.WithError(err).Warn("WS Handler: Credentials refer to unknown user")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user identity"})
		} else {
			logCtx.WithError(err).Error("WS Handler: Failed to resolve identity")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve identity"})
		}
		return
	}
	logCtx = logCtx.WithField("user_id", identity.UserID)

	// 2. 升级 HTTP 连接到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, responseHeader)
	if err != nil {
		// Upgrade 方法会自动发送 HTTP 错误响应，这里只需要记录日志
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	// 3. 创建 Client 并注册到 Hub
	client := hub.NewClient(h.hub, conn, identity)
	registerMsg := hub.HubMessage{Type: "register", Client: client}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	// 4. 启动客户端的读写 Goroutine
	client.Run()
	logCtx.Info("WS Handler: Client read/write pumps started")
}

// resolveIdentity 决定连接的绘制身份。
// 返回的 header 在需要向浏览器下发新访客 Cookie 时非空，
// 随升级握手的 101 响应一起发出。
func (h *WebSocketHandler) resolveIdentity(c *gin.Context) (domain.Identity, http.Header, error) {
	ctx := c.Request.Context()

	// 认证用户：OptionalAuth 中间件已验证 JWT 并注入 user_id
	if userIDAny, exists := c.Get("user_id"); exists {
		if userID, ok := userIDAny.(string); ok && userID != "" {
			identity, err := h.identityService.ResolveAuthenticated(ctx, userID)
			return identity, nil, err
		}
	}

	// 访客：会话 Cookie 存在则复用，否则生成新会话并随握手响应下发
	var responseHeader http.Header
	sessionID, err := c.Cookie(guestSessionCookie)
	if err != nil || sessionID == "" {
		sessionID = uuid.NewString()
		cookie := &http.Cookie{
			Name:     guestSessionCookie,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   365 * 24 * 3600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		responseHeader = http.Header{}
		responseHeader.Add("Set-Cookie", cookie.String())
	}

	identity, err := h.identityService.ResolveGuest(ctx, sessionID)
	return identity, responseHeader, err
}
