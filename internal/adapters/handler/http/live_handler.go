package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/apperr"
)

const (
	DefaultHeartbeatInterval = 15 * time.Second
	wsWriteTimeout           = 10 * time.Second
)

// LiveHandler streams result snapshots of a poll as they are committed, over
// Server-Sent Events or a WebSocket.
type LiveHandler struct {
	service   ports.PollService
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

func NewLiveHandler(service ports.PollService, heartbeat time.Duration, allowedOrigins []string) *LiveHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &LiveHandler{
		service:   service,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

type liveMessage struct {
	Type     string           `json:"type"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
	Error    *apperr.AppError `json:"error,omitempty"`
}

// Stream godoc
// @Summary      Live results (SSE)
// @Description  Sends the current results as a "snapshot" event and then one event per committed change. A comment line is sent as heartbeat. When the server ends the stream it sends an "error" event first.
// @Tags         live
// @Produce      text/event-stream
// @Param        id   path  int  true  "Poll id"
// @Success      200
// @Failure      400,404
// @Router       /polls/{id}/live [get]
func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		errorResponse(w, apperr.Internal("streaming_unsupported", "streaming unsupported", nil))
		return
	}

	sub, poll, err := h.service.Subscribe(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	last := poll.Version
	if err := writeSSE(w, "snapshot", poll.Version, domain.Aggregate(poll)); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case p, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					appErr := mapError(err)
					_ = writeSSE(w, "error", 0, map[string]string{"error": appErr.Code, "message": appErr.Message})
					flusher.Flush()
				}
				return
			}
			if p.Version <= last {
				continue
			}
			last = p.Version
			if err := writeSSE(w, "snapshot", p.Version, domain.Aggregate(p)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if id > 0 {
		_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event, id, data)
	} else {
		_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	}
	return err
}

// WebSocket godoc
// @Summary      Live results (WebSocket)
// @Description  Same feed as the SSE stream, as JSON messages of type "snapshot" or "error".
// @Tags         live
// @Param        id   path  int  true  "Poll id"
// @Success      101
// @Failure      400,404
// @Router       /polls/{id}/ws [get]
func (h *LiveHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	sub, poll, err := h.service.Subscribe(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slogLogger.Warn("websocket upgrade failed", "event", "websocket_upgrade_failed", "poll_id", id, "error", err)
		return
	}
	defer conn.Close()

	// Incoming frames are ignored; reading only detects the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg liveMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg)
	}

	last := poll.Version
	snapshot := domain.Aggregate(poll)
	if err := send(liveMessage{Type: "snapshot", Snapshot: &snapshot}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case p, ok := <-sub.Updates():
			if !ok {
				closeCode := websocket.CloseNormalClosure
				if err := sub.Err(); err != nil {
					_ = send(liveMessage{Type: "error", Error: mapError(err)})
					closeCode = websocket.CloseGoingAway
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(closeCode, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			if p.Version <= last {
				continue
			}
			last = p.Version
			snapshot := domain.Aggregate(p)
			if err := send(liveMessage{Type: "snapshot", Snapshot: &snapshot}); err != nil {
				return
			}
		}
	}
}
