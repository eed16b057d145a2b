package handlers

import (
	"log"
	"net/http"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/api/middleware"
	"github.com/dom/habit-proofs/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	presence  *websocket.Presence
	validator middleware.TokenValidator
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(presence *websocket.Presence, validator middleware.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		presence:  presence,
		validator: validator,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Handle upgrades an authenticated request. The connection only receives
// events after the client sends a register message.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}
	if token == "" {
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Token required", nil)
		return
	}

	userID, err := h.validator.Authenticate(r.Context(), token)
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Invalid token", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR [WebSocketHandler.Handle] upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(conn, h.presence, userID)

	go client.WritePump()
	go client.ReadPump()
}
