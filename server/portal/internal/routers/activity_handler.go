package routers

import (
	"fmt"
	"net/http"

	"fleet-ng/pkg/middleware/render"
	"fleet-ng/server/portal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ActivityHandler 维护活动实时推送处理器
type ActivityHandler struct {
	manager  *service.WebSocketManager
	upgrader websocket.Upgrader
}

// NewActivityHandler 创建维护活动推送处理器
func NewActivityHandler() *ActivityHandler {
	return &ActivityHandler{
		manager: service.ActivityManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins in development
				return true
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *ActivityHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET(SubRouteActivity+"/ws", h.handleWebSocket)
}

// handleWebSocket 建立活动推送连接
func (h *ActivityHandler) handleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		render.InternalServerError(c, fmt.Sprintf(MsgWebSocketUpgradeError, err.Error()))
		return
	}

	go h.handleConnection(conn)
}

// handleConnection 维持连接直到客户端断开
func (h *ActivityHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	client := service.NewWebSocketClient(conn)
	h.manager.AddClient(client)
	defer h.manager.RemoveClient(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			// Client disconnected or error occurred
			break
		}
	}
}
