package service

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 活动广播消息类型
const (
	ActivityMaintenanceCompleted = "maintenance_completed" // 工作包完成
	ActivityActionStatusChanged  = "action_status_changed" // 步骤状态变化
	ActivityBlockerCreated       = "blocker_created"       // 阻塞创建
	ActivityBlockerEnded         = "blocker_ended"         // 阻塞解除
)

// ActivityEventDTO 维护活动广播消息
type ActivityEventDTO struct {
	Type      string    `json:"type"`      // 消息类型
	SetID     int64     `json:"setId"`     // 工作包ID
	ActionID  int64     `json:"actionId"`  // 步骤ID（工作包级事件为0）
	Actor     string    `json:"actor"`     // 操作人用户名
	Detail    string    `json:"detail"`    // 描述
	Timestamp time.Time `json:"timestamp"` // 事件时间
}

// WebSocketClient 表示一个 WebSocket 客户端连接
type WebSocketClient struct {
	Conn     *websocket.Conn
	WriteMux sync.Mutex
}

// NewWebSocketClient 创建新的 WebSocket 客户端
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{
		Conn: conn,
	}
}

// SafeWrite 安全地写入消息
func (c *WebSocketClient) SafeWrite(v interface{}) error {
	c.WriteMux.Lock()
	defer c.WriteMux.Unlock()
	return c.Conn.WriteJSON(v)
}

// WebSocketManager WebSocket 连接管理器
type WebSocketManager struct {
	Clients   map[*WebSocketClient]bool
	ClientMux sync.Mutex
}

// NewWebSocketManager 创建新的 WebSocket 管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		Clients: make(map[*WebSocketClient]bool),
	}
}

// AddClient 添加客户端
func (m *WebSocketManager) AddClient(client *WebSocketClient) {
	m.ClientMux.Lock()
	defer m.ClientMux.Unlock()
	m.Clients[client] = true
}

// RemoveClient 移除客户端
func (m *WebSocketManager) RemoveClient(client *WebSocketClient) {
	m.ClientMux.Lock()
	defer m.ClientMux.Unlock()
	delete(m.Clients, client)
}

// BroadcastMessage 广播消息给所有客户端
func (m *WebSocketManager) BroadcastMessage(v interface{}) {
	m.ClientMux.Lock()
	clients := make([]*WebSocketClient, 0, len(m.Clients))
	for client := range m.Clients {
		clients = append(clients, client)
	}
	m.ClientMux.Unlock()

	for _, client := range clients {
		go client.SafeWrite(v)
	}
}

var activityManager = NewWebSocketManager()

// ActivityManager 返回维护活动广播用的全局管理器
func ActivityManager() *WebSocketManager {
	return activityManager
}

// BroadcastActivity 广播一条维护活动消息给所有已连接客户端
func BroadcastActivity(evt ActivityEventDTO) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	activityManager.BroadcastMessage(evt)
}

// 服务层经由该变量广播，便于替换
var broadcastActivity = BroadcastActivity