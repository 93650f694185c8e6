package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/loglens/loglens/internal/logx"
)

// wsMessage is the envelope every server->client and client->server
// WebSocket frame shares, per spec.md §6's message shapes.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	streamHeartbeatInterval = 30 * time.Second
	streamWriteTimeout      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades to a WebSocket and relays the project's streaming
// batches until the client disconnects or the connection errors.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Log().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	batches, unsubscribe := s.hub.Subscribe(projectID)
	defer unsubscribe()

	if err := writeWS(conn, wsMessage{Type: "subscription_status", Data: map[string]string{"status": "subscribed", "project_id": projectID}}); err != nil {
		return
	}

	incoming := make(chan wsMessage)
	go readClientMessages(conn, incoming)

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	paused := false
	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				return
			}
			if paused {
				continue
			}
			if err := writeWS(conn, wsMessage{Type: "log_batch", Data: batch}); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := writeWS(conn, wsMessage{Type: "heartbeat", Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)}}); err != nil {
				return
			}

		case msg, ok := <-incoming:
			if !ok {
				return
			}
			switch msg.Type {
			case "ping":
				if err := writeWS(conn, wsMessage{Type: "heartbeat"}); err != nil {
					return
				}
			case "pause_stream":
				paused = true
			case "resume_stream":
				paused = false
			case "filter_change", "cancel":
				// Acknowledged but not yet actionable at the transport
				// level; filtering happens upstream of the hub.
			}

		case <-r.Context().Done():
			return
		}
	}
}

func readClientMessages(conn *websocket.Conn, out chan<- wsMessage) {
	defer close(out)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		out <- msg
	}
}

func writeWS(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}
