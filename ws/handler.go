package ws

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/logger"
	"gigsos_backend/pkg/apperrors"
	"gigsos_backend/pkg/contextkeys"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin режется CORS-мидлварой до апгрейда
	},
}

// Authenticator - проверка токена и живой сессии
type Authenticator interface {
	Authenticate(db *gorm.DB, token string) (*auth.Claims, error)
}

type WebSocketHandler struct {
	Manager *WebSocketManager
	Auth    Authenticator
}

func NewWebSocketHandler(manager *WebSocketManager, authenticator Authenticator) *WebSocketHandler {
	return &WebSocketHandler{
		Manager: manager,
		Auth:    authenticator,
	}
}

// ServeWS - GET /ws?token=... (или Authorization: Bearer)
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("token is required"))
		return
	}

	var db *gorm.DB
	if val, ok := c.Get(string(contextkeys.DBContextKey)); ok {
		db, _ = val.(*gorm.DB)
	}
	claims, err := h.Auth.Authenticate(db, token)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "ws upgrade failed", err)
		return
	}

	client := newClient(h.Manager, claims.UserID, conn)
	h.Manager.register <- client

	go client.readPump()
	go client.writePump()
}
