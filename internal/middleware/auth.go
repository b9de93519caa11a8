package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/models"
	"gigsos_backend/pkg/apperrors"
	"gigsos_backend/pkg/contextkeys"
)

// ключи gin-контекста
const (
	UserIDKey  = "userID"
	RoleKey    = "role"
	TokenIDKey = "tokenID"
)

// Authenticator - проверка токена вместе с сессией
type Authenticator interface {
	Authenticate(db *gorm.DB, token string) (*auth.Claims, error)
}

// BanChecker - снимает истекший бан и сообщает о действующем
type BanChecker interface {
	IsCurrentlyBanned(db *gorm.DB, userID uint64) (bool, *models.User, error)
}

// AuthMiddleware - Bearer JWT + живая сессия
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := authenticator.Authenticate(dbFrom(c), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Set(TokenIDKey, claims.ID)

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BanGate не пускает заблокированных; истекший бан снимается здесь же
func BanGate(bans BanChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			c.Next()
			return
		}

		banned, user, err := bans.IsCurrentlyBanned(dbFrom(c), userID)
		if err != nil {
			abort(c, err)
			return
		}
		if banned {
			abort(c, apperrors.UserBanned(user.BanReason, user.BannedUntil))
			return
		}
		c.Next()
	}
}

// RequireRoles - middleware для проверки нескольких возможных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(RoleKey)
		if !exists {
			abort(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}

		roleStr, _ := role.(string)
		if !roleSet[models.UserRole(roleStr)] {
			abort(c, apperrors.NewForbiddenError("Access denied: insufficient role"))
			return
		}

		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста; 0 - не аутентифицирован
func GetUserID(c *gin.Context) uint64 {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0
	}
	id, _ := userID.(uint64)
	return id
}

func GetRole(c *gin.Context) models.UserRole {
	role, _ := c.Get(RoleKey)
	roleStr, _ := role.(string)
	return models.UserRole(roleStr)
}

func GetTokenID(c *gin.Context) string {
	tokenID, _ := c.Get(TokenIDKey)
	id, _ := tokenID.(string)
	return id
}

func dbFrom(c *gin.Context) *gorm.DB {
	val, _ := c.Get(string(contextkeys.DBContextKey))
	db, _ := val.(*gorm.DB)
	return db
}

func abort(c *gin.Context, err error) {
	apperrors.HandleError(c, err)
	c.Abort()
}
