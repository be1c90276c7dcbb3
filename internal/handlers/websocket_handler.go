package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/middleware"
	"github.com/tesseract-hub/storefront-service/internal/models"
	ws "github.com/tesseract-hub/storefront-service/internal/websocket"
)

// WebSocketHandler streams storefront events to connected admins
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewWebSocketHandler creates a new WebSocket handler; browsers must connect from an allowed origin
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *logrus.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		logger: logger,
	}
}

// Handle upgrades the admin connection and subscribes it to the live order feed
// @Summary Live order feed
// @Tags admin
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /ws/admin/pedidos [get]
func (h *WebSocketHandler) Handle(c *gin.Context) {
	adminID, found := middleware.GetAdminID(c)
	if !found {
		c.JSON(http.StatusUnauthorized, models.APIResponse{Success: false, Message: "Sesión de administrador requerida"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade WebSocket")
		return
	}

	client := ws.NewClient(h.hub, conn, adminID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// Status reports how many admins are connected to the feed
// @Summary Live feed status
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/v1/admin/feed [get]
func (h *WebSocketHandler) Status(c *gin.Context) {
	ok(c, gin.H{"clientesConectados": h.hub.ClientCount()})
}
