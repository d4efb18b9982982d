package hub

import (
	"encoding/json"

	"pixel-canvas/internal/service"
)

// 客户端事件类型 (入站)。
const (
	EventRequestPaint      = "requestPaint"
	EventReconnectUser     = "reconnectUser"
	EventRequestUserUpdate = "requestUserUpdate"
)

// 服务端消息类型 (出站)。
const (
	MsgInitialCanvas  = "initialCanvas"
	MsgPaintPixel     = "paintPixel"
	MsgPaintError     = "paintError"
	MsgPaintSuccess   = "paintSuccess"
	MsgUpdateUserList = "updateUserList"
)

// Envelope 是 WebSocket 上双向消息的统一信封。
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PaintRequest 是 requestPaint 事件的载荷。
type PaintRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

type paintPixelPayload struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

type textPayload struct {
	Message string `json:"message"`
}

// marshalMessage 序列化一条出站消息。载荷都是本包自己的类型，
// 序列化失败属于编程错误，直接让它在测试阶段暴露。
func marshalMessage(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

func newInitialCanvasMessage(cells []service.CanvasCell) ([]byte, error) {
	return marshalMessage(MsgInitialCanvas, cells)
}

func newPaintPixelMessage(result *service.PaintResult) ([]byte, error) {
	return marshalMessage(MsgPaintPixel, paintPixelPayload{X: result.X, Y: result.Y, Color: result.Color})
}

func newPaintErrorMessage(message string) ([]byte, error) {
	return marshalMessage(MsgPaintError, textPayload{Message: message})
}

func newPaintSuccessMessage() ([]byte, error) {
	return marshalMessage(MsgPaintSuccess, textPayload{Message: "Pixel painted successfully!"})
}

func newUserListMessage(entries []service.RosterEntry) ([]byte, error) {
	return marshalMessage(MsgUpdateUserList, entries)
}
