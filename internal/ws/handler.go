package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontdesk/checkin-backend/internal/hub"
	"github.com/frontdesk/checkin-backend/internal/lane"
	"github.com/frontdesk/checkin-backend/internal/types"
)

// Handler upgrades to a WebSocket and bridges one subscriber onto a lane's
// push fan-out. The client must open with a subscribe message naming the
// lane; a later subscribe on the same socket replaces the subscription.
func Handler(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan lane.Push, 16)
		var current *lane.Lane
		defer func() {
			if current != nil {
				current.Inbox() <- lane.Leave{ClientID: clientID}
			}
		}()

		// Writer goroutine. The lane closes out only when it drops a slow
		// subscriber; a normal disconnect (lane.Leave) leaves it open, so the
		// writer must also stop on the handler's own cancel or it leaks.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case push, ok := <-out:
					if !ok {
						return
					}
					payload, err := json.Marshal(push)
					if err != nil {
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			switch cm.Type {
			case types.MsgSubscribe:
				if cm.Lane == "" {
					writeError(r.Context(), conn, "subscribe requires a lane")
					continue
				}
				if current != nil {
					current.Inbox() <- lane.Leave{ClientID: clientID}
				}
				current = h.Ensure(cm.Lane)
				current.Inbox() <- lane.Join{ClientID: clientID, Events: cm.Events, Outbox: out}
				logger.Debug("subscriber joined",
					zap.String("lane", cm.Lane), zap.String("client", clientID))

			case types.MsgPing:
				payload, _ := json.Marshal(types.PongMessage{Type: "PONG"})
				_ = conn.Write(r.Context(), websocket.MessageText, payload)

			default:
				writeError(r.Context(), conn, "unknown message type")
			}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ErrorMessage{Type: "ERROR", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
