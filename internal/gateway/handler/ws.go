package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ritik9294/catalog-assistant-v3/internal/listing"
	"github.com/ritik9294/catalog-assistant-v3/internal/workflow"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type wsInbound struct {
	Type    string          `json:"type"`
	Kind    string          `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsOutbound struct {
	Type    string        `json:"type"`
	View    *listing.View `json:"view,omitempty"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// HandleWS streams the session view. Every workflow change, whether it
// came over this socket or plain HTTP, is pushed as a "view" frame.
// Inbound frames: "ping", or "event" with the same kind/payload shape
// the HTTP event endpoint takes.
func (h *SessionHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("session_id"))
	s, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "unknown session_id", http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		log.Printf("gateway: ws set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	views, unsubscribe := h.hub.Subscribe(id)
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-views:
				if !ok {
					return
				}
				view := v
				pushWS(writeCh, wsOutbound{Type: "view", View: &view})
			}
		}
	}()

	// Initial frame so the client renders without a separate GET.
	mu := h.lock(id)
	mu.Lock()
	first := listing.Render(s)
	mu.Unlock()
	pushWS(writeCh, wsOutbound{Type: "view", View: &first})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushWS(writeCh, wsOutbound{Type: "pong"})
		case "event":
			ev, err := workflow.ParseEvent(strings.TrimSpace(in.Kind), in.Payload)
			if err != nil {
				pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()})
				continue
			}
			if upd, ok := ev.(workflow.UpdateListing); ok {
				upd.Listing = listing.Sanitize(upd.Listing)
				ev = upd
			}
			mu.Lock()
			err = h.engine.Advance(ctx, s, ev)
			view := listing.Render(s)
			mu.Unlock()
			if err != nil {
				code := "internal"
				switch {
				case errors.Is(err, workflow.ErrUnexpectedEvent), errors.Is(err, workflow.ErrBadInput):
					code = "invalid_argument"
				case errors.Is(err, workflow.ErrRetryBudget):
					code = "resource_exhausted"
				default:
					log.Printf("gateway: ws advance %s: %v", id, err)
				}
				pushWS(writeCh, wsOutbound{Type: "error", Code: code, Message: err.Error()})
				continue
			}
			h.hub.Broadcast(id, view)
		default:
			pushWS(writeCh, wsOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type"})
		}
	}
}

// pushWS drops the oldest frame when the writer cannot keep up.
func pushWS(writeCh chan wsOutbound, out wsOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
