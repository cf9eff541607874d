package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// streamRoute is the websocket route; it accepts ?access_token=.
const streamRoute = "/api/v1/trends/stream"

// StreamHub serves a websocket connection until it closes.
// implemented by events.Hub.
type StreamHub interface {
	Serve(userID string, conn *websocket.Conn)
}

// StreamHandler upgrades trend stream requests.
type StreamHandler struct {
	hub      StreamHub
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler. origins follows the cors
// allow list, "*" accepts any origin.
func NewStreamHandler(hub StreamHub, origins []string) *StreamHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return allowed[u.Scheme+"://"+u.Host]
			},
		},
	}
}

// RegisterRoutes registers the stream route on the given group.
func (h *StreamHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/trends/stream", h.Stream)
}

// Stream holds the connection open and pushes trend updates of the user.
// GET /api/v1/trends/stream?access_token=<jwt>
func (h *StreamHandler) Stream(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		return nil
	}

	h.hub.Serve(userID, conn)
	return nil
}
