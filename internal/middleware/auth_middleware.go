package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mediaforge/internal/transport/httpdto"
	"mediaforge/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerContextKey = "owner_id"

// OwnerClaims is the token payload the platform's auth service issues.
// Identity management itself lives outside this service; we only verify
// the signature and lift the owner id into the request context.
type OwnerClaims struct {
	OwnerID int64 `json:"owner_id"`
	jwt.RegisteredClaims
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "AUTHENTICATION_REQUIRED"))
			c.Abort()
			return
		}

		claims := &OwnerClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.OwnerID <= 0 {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "AUTHENTICATION_REQUIRED"))
			c.Abort()
			return
		}

		c.Set(ownerContextKey, claims.OwnerID)
		ctx := context.WithValue(c.Request.Context(), logger.OwnerIdKey, strconv.FormatInt(claims.OwnerID, 10))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OwnerID returns the authenticated owner for the request, 0 when the
// auth middleware did not run.
func OwnerID(c *gin.Context) int64 {
	if v, ok := c.Get(ownerContextKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
