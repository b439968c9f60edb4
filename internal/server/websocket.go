package server

import (
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// upgrader accepts same-origin, loopback and private network connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// Allow requests without Origin header (same-origin requests)
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		slog.Warn("Rejected WebSocket connection", "origin", origin)
		return false
	}
	if u.Host == r.Host {
		return true
	}

	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate()) {
		return true
	}

	slog.Warn("Rejected WebSocket connection", "origin", origin)
	return false
}

// handleWebSocket pushes a display snapshot on connect and after every change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.display.Subscribe()
	defer unsubscribe()

	// The client never sends anything we act on; reading detects the close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-done:
			slog.Debug("WebSocket client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case snapshot := <-updates:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(map[string]interface{}{
				"type":    "display",
				"display": snapshot,
			}); err != nil {
				slog.Debug("WebSocket write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}
