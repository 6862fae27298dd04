package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/aristath/lcdash/internal/domain"
	"github.com/aristath/lcdash/internal/modules/query"
	"github.com/aristath/lcdash/internal/warehouse"
)

const (
	wsReadLimit    = 64 * 1024
	wsWriteTimeout = 10 * time.Second
)

// StreamMessage is one outbound websocket frame.
type StreamMessage struct {
	Type   string      `json:"type" msgpack:"type"` // "view" or "error"
	Data   interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
	Error  string      `json:"error,omitempty" msgpack:"error,omitempty"`
	Kind   string      `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Status int         `json:"status,omitempty" msgpack:"status,omitempty"`
}

// HandleWebSocket handles GET /api/dashboard/ws.
//
// Each inbound frame is a filter selection and triggers one full render
// cycle; the reply is written before the next frame is read, so replies
// arrive in the order the selections were sent. Text frames carry JSON,
// binary frames carry msgpack, and replies use the same encoding.
// Handshakes from foreign origins are refused unless allowed explicitly.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Clear the server's per-request deadlines; sessions outlive them
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originHosts,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("Rejected websocket handshake")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")
	conn.SetReadLimit(wsReadLimit)

	ctx := r.Context()
	session := h.session(r)
	h.log.Debug().Msg("Websocket session opened")

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				h.log.Debug().Msg("Websocket session closed")
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			h.log.Warn().Err(err).Msg("Websocket read failed")
			return
		}

		reply := h.handleFrame(ctx, session, msgType, data)

		if err := h.writeFrame(ctx, conn, msgType, reply); err != nil {
			h.log.Warn().Err(err).Msg("Websocket write failed")
			return
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, session warehouse.Session, msgType websocket.MessageType, data []byte) StreamMessage {
	var sel query.FilterSelection
	var err error
	if msgType == websocket.MessageBinary {
		err = msgpack.Unmarshal(data, &sel)
	} else {
		err = json.Unmarshal(data, &sel)
	}
	if err != nil {
		return errorMessage(&domain.ValidationError{Field: "message", Reason: err.Error()})
	}

	view, err := h.service.Render(ctx, session, sel)
	if err != nil {
		return errorMessage(err)
	}
	return StreamMessage{Type: "view", Data: view}
}

func errorMessage(err error) StreamMessage {
	status, kind := StatusFor(err)
	return StreamMessage{Type: "error", Error: err.Error(), Kind: kind, Status: status}
}

func (h *Handler) writeFrame(ctx context.Context, conn *websocket.Conn, msgType websocket.MessageType, msg StreamMessage) error {
	var payload []byte
	var err error
	if msgType == websocket.MessageBinary {
		payload, err = msgpack.Marshal(msg)
	} else {
		payload, err = json.Marshal(msg)
	}
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, msgType, payload)
}
