package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 包内使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type    string  // "register", "unregister", "event"
	Client  *Client // 来源连接
	RawData []byte  // 仅用于 event (原始 WebSocket 消息)
}

// Hub 维护活跃连接集合并驱动画布协议。
// 所有事件在 Run 的单一循环中顺序处理：两个绘制尝试
// 永远不会交错，冷却检查与提交之间不会被另一次提交插队。
type Hub struct {
	// 内部通道，处理所有来自 Client 的事件
	messageChan chan HubMessage

	// 连接集合。画布是全局共享的，没有房间划分
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	// 注入的 Service，用于处理业务逻辑
	paintService    *service.PaintService
	canvasService   *service.CanvasService
	rosterService   *service.RosterService
	identityService *service.IdentityService
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(
	paintService *service.PaintService,
	canvasService *service.CanvasService,
	rosterService *service.RosterService,
	identityService *service.IdentityService,
) *Hub {
	if paintService == nil || canvasService == nil || rosterService == nil || identityService == nil {
		panic("All services must be non-nil for Hub")
	}
	return &Hub{
		messageChan:     make(chan HubMessage, 512),
		clients:         make(map[*Client]bool),
		paintService:    paintService,
		canvasService:   canvasService,
		rosterService:   rosterService,
		identityService: identityService,
	}
}

// Run 启动 Hub 的主事件处理循环。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "event":
			// 事件在循环内同步处理。绘制协议要求严格串行：
			// 这里不能 go 出去
			h.handleClientEvent(msg)
		default:
			log.Warnf("Hub: Received unknown message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down...")
}

// registerClient 处理客户端注册逻辑
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	identity := client.Identity()
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"action":  "registerClient",
	})

	h.clientsMu.Lock()
	h.clients[client] = true
	h.clientsMu.Unlock()
	logCtx.Info("Client registered to Hub")

	// 快照在循环内同步发送。注册和绘制在同一个循环里串行，
	// 快照读取与 initialCanvas 入队之间不可能有新的格子提交，
	// 晚到的全量快照不会回滚客户端已应用的广播
	h.sendInitialCanvas(client)

	// 名册在加入时重算并广播给所有连接
	h.broadcastRoster()
}

// unregisterClient 处理客户端注销逻辑
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	identity := client.Identity()
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"action":  "unregisterClient",
	})

	h.clientsMu.Lock()
	_, exists := h.clients[client]
	if exists {
		delete(h.clients, client)
		// send 只在这里关闭，集合成员资格就是"尚未关闭"的判据。
		// 关闭后 WritePump 仍会送完通道里已排队的消息再退出
		close(client.send)
	}
	h.clientsMu.Unlock()
	if !exists {
		logCtx.Warn("Client not found during unregister")
		return
	}
	logCtx.Info("Client unregistered from Hub")

	h.broadcastRoster()
}

// sendInitialCanvas 获取画布快照并发送给新连接的客户端
func (h *Hub) sendInitialCanvas(client *Client) {
	if client == nil {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id":   client.Identity().UserID,
		"operation": "sendInitialCanvas",
	})

	// 使用后台 context，快照读取不应被原始请求取消
	ctx := context.Background()
	cells, err := h.canvasService.Snapshot(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to get canvas snapshot from service")
		if msg, merr := newPaintErrorMessage("Failed to load canvas state."); merr == nil {
			h.unicast(client, msg)
		}
		return
	}

	msg, err := newInitialCanvasMessage(cells)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal initial canvas message")
		return
	}
	if h.unicast(client, msg) {
		logCtx.WithField("cells", len(cells)).Info("Initial canvas sent to client channel")
	} else {
		logCtx.Warn("Client send channel full when trying to send initial canvas, message dropped")
	}
}

// handleClientEvent 解析并分发一条客户端事件。
func (h *Hub) handleClientEvent(msg HubMessage) {
	if msg.Client == nil {
		return
	}
	logCtx := logrus.WithField("user_id", msg.Client.Identity().UserID)

	var envelope Envelope
	if err := json.Unmarshal(msg.RawData, &envelope); err != nil {
		logCtx.WithError(err).Warn("Failed to parse client message, ignoring")
		return
	}

	switch envelope.Type {
	case EventRequestPaint:
		h.handlePaintRequest(msg.Client, envelope.Data)
	case EventReconnectUser:
		h.handleReconnect(msg.Client)
	case EventRequestUserUpdate:
		h.broadcastRoster()
	default:
		logCtx.WithField("event", envelope.Type).Warn("Received unknown client event")
	}
}

// handlePaintRequest 执行一次绘制尝试并分发结果消息。
func (h *Hub) handlePaintRequest(client *Client, data json.RawMessage) {
	identity := client.Identity()
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id":   identity.UserID,
		"operation": "handlePaintRequest",
	})

	var req PaintRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logCtx.WithError(err).Warn("Malformed paint request payload")
		h.sendPaintError(client, service.ErrInvalidCoordinate.Error())
		return
	}

	result, err := h.paintService.ProcessPaint(context.Background(), identity, req.X, req.Y, req.Color)
	if err != nil {
		if !service.IsClientFault(err) {
			logCtx.WithError(err).Error("Paint attempt failed on server side")
		}
		// 拒绝原因原样回给提交者；其他连接毫无感知
		if service.IsClientFault(err) || errors.Is(err, service.ErrPaintFailed) {
			h.sendPaintError(client, err.Error())
		} else {
			h.sendPaintError(client, service.ErrPaintFailed.Error())
		}
		return
	}

	// 提交成功：先广播给所有连接 (包括提交者)，再单播确认
	pixelMsg, merr := newPaintPixelMessage(result)
	if merr != nil {
		logCtx.WithError(merr).Error("Failed to marshal paintPixel message")
		return
	}
	h.broadcastAll(pixelMsg)

	if successMsg, merr := newPaintSuccessMessage(); merr == nil {
		h.unicast(client, successMsg)
	}

	// 计数变了，名册立即重算
	h.broadcastRoster()
}

// handleReconnect 刷新连接身份的展示字段并重播名册。
func (h *Hub) handleReconnect(client *Client) {
	refreshed := h.identityService.RefreshIdentity(context.Background(), client.Identity())
	client.setIdentity(refreshed)
	h.broadcastRoster()
}

// sendPaintError 向单个连接回发绘制拒绝消息。
func (h *Hub) sendPaintError(client *Client, message string) {
	msg, err := newPaintErrorMessage(message)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal paintError message")
		return
	}
	h.unicast(client, msg)
}

// broadcastRoster 重算在线名册并广播给所有连接。
// 同一用户的多个连接 (多标签页) 在名册中只出现一次。
func (h *Hub) broadcastRoster() {
	h.clientsMu.RLock()
	seen := make(map[string]bool, len(h.clients))
	userIDs := make([]string, 0, len(h.clients))
	for client := range h.clients {
		id := client.Identity().UserID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		userIDs = append(userIDs, id)
	}
	h.clientsMu.RUnlock()

	roster, err := h.rosterService.BuildRoster(context.Background(), userIDs)
	if err != nil {
		logrus.WithError(err).Error("Failed to build roster")
		return
	}
	msg, err := newUserListMessage(roster)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal updateUserList message")
		return
	}
	h.broadcastAll(msg)
}

// broadcastAll 将消息发送给所有连接，不排除任何人。
// 画布更新对提交者同样生效，提交者的本地渲染以广播为准。
func (h *Hub) broadcastAll(message []byte) {
	h.clientsMu.RLock()
	// 创建接收者列表副本，避免发送时长时间持有锁
	clientsToSend := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clientsToSend = append(clientsToSend, client)
	}
	h.clientsMu.RUnlock()

	for _, client := range clientsToSend {
		// 非阻塞发送，避免单个慢客户端阻塞广播
		select {
		case client.send <- message:
		default:
			logrus.WithField("receiver_user_id", client.Identity().UserID).
				Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// unicast 向单个连接非阻塞发送消息，返回是否入队成功。
func (h *Hub) unicast(client *Client, message []byte) bool {
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 这是 Client 向 Hub 发送消息的安全方式。
// 返回 true 如果消息成功入队，false 如果队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}
