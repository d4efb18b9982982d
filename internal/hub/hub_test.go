package hub

import (
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository/mocks"
	"pixel-canvas/internal/service"
)

// nopEnqueuer 满足 PaintService 的依赖，测试里不关心审计任务。
type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return nil, nil
}

type hubFixture struct {
	hub       *Hub
	userRepo  *mocks.UserRepository
	pixelRepo *mocks.PixelRepository
	stateRepo *mocks.CanvasStateRepository
}

func newHubFixture() *hubFixture {
	userRepo := new(mocks.UserRepository)
	pixelRepo := new(mocks.PixelRepository)
	cooldownRepo := new(mocks.CooldownRepository)
	stateRepo := new(mocks.CanvasStateRepository)

	paintService := service.NewPaintService(pixelRepo, userRepo, cooldownRepo, stateRepo, nopEnqueuer{}, service.PaintConfig{
		GridWidth:  100,
		GridHeight: 100,
	})
	canvasService := service.NewCanvasService(pixelRepo, stateRepo)
	rosterService := service.NewRosterService(userRepo)
	identityService := service.NewIdentityService(userRepo, "")

	return &hubFixture{
		hub:       NewHub(paintService, canvasService, rosterService, identityService),
		userRepo:  userRepo,
		pixelRepo: pixelRepo,
		stateRepo: stateRepo,
	}
}

// newTestClient 构造一个没有底层连接的客户端，消息直接从 send 通道取。
func newTestClient(h *Hub, identity domain.Identity) *Client {
	return &Client{
		hub:      h,
		identity: identity,
		send:     make(chan []byte, 16),
	}
}

// receiveType 非阻塞地取出 send 通道里的下一条消息并返回其类型。
func receiveType(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case raw := <-client.send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		return envelope.Type
	default:
		t.Fatal("expected a message queued on the client send channel")
		return ""
	}
}

func TestHub_RegisterClient_InitialCanvasPrecedesBroadcasts(t *testing.T) {
	// Arrange
	f := newHubFixture()
	f.stateRepo.On("HasCanvasState", mock.Anything).Return(false, nil).Once()
	f.pixelRepo.On("GetAll", mock.Anything).
		Return([]domain.Pixel{{X: 1, Y: 2, Color: "#ff0000", UserID: "user-1"}}, nil).Once()
	f.stateRepo.On("RebuildCanvasState", mock.Anything, mock.Anything).Return(nil).Once()
	f.userRepo.On("FindByIDs", mock.Anything, []string{"user-1"}).
		Return([]domain.User{{ID: "user-1", Username: "alice"}}, nil).Once()

	client := newTestClient(f.hub, domain.Identity{UserID: "user-1", Username: "alice"})

	// Act
	f.hub.registerClient(client)

	// Assert: 注册返回时快照已经入队，且排在任何广播之前。
	// 注册之后到达的绘制广播不可能被更晚的全量快照覆盖
	assert.Equal(t, MsgInitialCanvas, receiveType(t, client))
	assert.Equal(t, MsgUpdateUserList, receiveType(t, client))
	f.stateRepo.AssertExpectations(t)
	f.pixelRepo.AssertExpectations(t)
}

func TestHub_UnregisterClient_DeliversQueuedMessagesThenCloses(t *testing.T) {
	// Arrange: 客户端的 send 通道里还排着一条未写出的消息
	f := newHubFixture()
	client := newTestClient(f.hub, domain.Identity{UserID: "user-1", Username: "alice"})
	f.hub.clients[client] = true

	queued := []byte(`{"type":"paintSuccess"}`)
	client.send <- queued

	// Act
	f.hub.unregisterClient(client)

	// Assert: 排队的消息不被注销吞掉，通道随后关闭
	got, ok := <-client.send
	require.True(t, ok, "排队消息应在关闭前送达")
	assert.Equal(t, queued, got)
	_, ok = <-client.send
	assert.False(t, ok, "send 通道应已关闭")

	// 重复注销同一客户端是无害的，不会二次关闭
	assert.NotPanics(t, func() { f.hub.unregisterClient(client) })
}
