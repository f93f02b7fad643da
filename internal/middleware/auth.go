package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/response"
)

// Context keys set by the auth middlewares
const (
	ContextKeyUserID   = "user_id"
	ContextKeyEmail    = "user_email"
	ContextKeyFullName = "user_full_name"
	ContextKeyRole     = "user_role"
)

// RoleResolver looks up the application role of an authenticated user
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (authz.Role, error)
}

// Auth validates the HS256 bearer token and stores the user claims in the context.
// Websocket upgrade requests may pass the token as the "token" query parameter.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Authorization header is required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			response.AbortWithError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid token claims")
			return
		}

		userID, err := uuid.Parse(firstClaim(claims, "user_id", "sub", "uid"))
		if err != nil {
			response.AbortWithError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in token")
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyEmail, firstClaim(claims, "email"))
		c.Set(ContextKeyFullName, firstClaim(claims, "full_name", "name"))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if websocket.IsWebSocketUpgrade(c.Request) {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func firstClaim(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ResolveRole loads the caller's role from their profile. A user without a
// profile or role continues with an empty role, which authorizes nothing.
func ResolveRole(resolver RoleResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in context")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		role, err := resolver.ResolveRole(ctx, userID)
		if err != nil {
			logger.Error("Failed to resolve role",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			response.AbortWithError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Failed to resolve user role")
			return
		}

		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// UserID returns the authenticated user id
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Principal returns the authenticated user and their resolved role
func Principal(c *gin.Context) (authz.Principal, bool) {
	userID, ok := UserID(c)
	if !ok {
		return authz.Principal{}, false
	}
	role, _ := c.Get(ContextKeyRole)
	r, _ := role.(authz.Role)
	return authz.Principal{UserID: userID, Role: r}, true
}
