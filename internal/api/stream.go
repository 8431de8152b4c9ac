package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"labroute/internal/model"
	"labroute/internal/solver"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SolveStreamHandler handles /v1/solve/stream. The client sends one
// {"type":"solve","payload":<SolveRequest>} message; the server streams
// progress snapshots and ends with a result or an error message. A
// "cancel" message or a closed socket aborts the search.
func (s *Server) SolveStreamHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid API key", r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "solve" {
		_ = conn.WriteJSON(wsMessage{Type: "error", Payload: []byte(`{"detail":"expected a solve message"}`)})
		return
	}
	var req model.SolveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		_ = conn.WriteJSON(wsMessage{Type: "error", Payload: []byte(`{"detail":"invalid solve payload"}`)})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader goroutine: a cancel message or a closed socket aborts the solve.
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Time{})
		for {
			var m wsMessage
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			if m.Type == "cancel" {
				return
			}
		}
	}()

	// Progress snapshots and the final message are written from this
	// goroutine only; the reader never writes.
	write := func(typ string, v any) {
		payload, _ := json.Marshal(v)
		_ = conn.WriteJSON(wsMessage{Type: typ, Payload: payload})
	}

	plan, status, prob := s.solve(ctx, req, func(p solver.Progress) {
		write("progress", p)
	})
	if prob != nil {
		prob.Status = status
		write("error", prob)
		return
	}
	write("result", plan)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}
