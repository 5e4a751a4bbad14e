package alert

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/jwt"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // tighten per deployment
}

type Handler struct {
	hub *Hub
	jwt *jwt.Service
}

func NewHandler(hub *Hub, jwtService *jwt.Service) *Handler {
	return &Handler{hub: hub, jwt: jwtService}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/alerts/ws", h.Connect)
	rg.GET("/alerts/online", h.Online)
}

// Connect upgrades an operator session onto the alert stream. Browsers
// cannot set headers on WebSocket dials, so the token rides the query
// string.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "token query parameter required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin && role != domain.RoleStaff {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "staff role required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.hub.Register(claims.UserID, conn)

	go h.drain(claims.UserID, conn)
}

// drain keeps the read side alive so close frames are processed; the
// stream is push-only.
func (h *Handler) drain(userID int64, conn *websocket.Conn) {
	defer h.hub.Unregister(userID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) Online(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"operators_online": h.hub.OnlineCount()})
}
