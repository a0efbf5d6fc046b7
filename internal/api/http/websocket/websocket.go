package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// NOTE: 暂时允许所有来源，生产环境由反向代理限制
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 25 * time.Second
	// 心跳超时时间，要扛得住代理的空闲断连
	HEARTBEAT_TIMEOUT = 120 * time.Second
)

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}
