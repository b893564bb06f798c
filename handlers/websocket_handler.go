package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dosada05/faculty-league/livescore"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *livescore.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts same-origin requests plus allowedOrigins; "*"
// allows any origin.
func NewWebSocketHandler(hub *livescore.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// roomFromParam accepts "portal" or "match_{id}".
func roomFromParam(param string) (string, bool) {
	if param == livescore.RoomPortal {
		return param, true
	}
	idStr, ok := strings.CutPrefix(param, "match_")
	if !ok {
		return "", false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return "", false
	}
	return livescore.MatchRoom(id), true
}

// ServeWs подключает клиента к комнате /ws/live/{room}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room, ok := roomFromParam(chi.URLParam(r, "room"))
	if !ok {
		http.Error(w, "unknown room", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for room %s: %v", room, err)
		return
	}

	client := livescore.NewClient(h.hub, conn, room)
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
