package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/localmarket/backend/internal/infrastructure/auth"
	"github.com/localmarket/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTDeviceIDKey = "jwt_device_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTAuthMiddleware creates JWT authentication middleware. Validated
// sessions that carry a device_id claim are recorded in the registry so the
// guest cart migrator can resolve the owner for that device.
func JWTAuthMiddleware(jwtService *auth.JWTService, registry *auth.SessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			switch err {
			case auth.ErrExpiredToken:
				abortUnauthorized(c, "Token has expired")
			default:
				abortUnauthorized(c, "Invalid token")
			}
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTDeviceIDKey, claims.DeviceID)

		if registry != nil && claims.DeviceID != "" {
			if ownerID, err := claims.OwnerID(); err == nil {
				registry.Record(claims.DeviceID, ownerID)
			}
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// GetJWTUserID returns the authenticated user ID from the gin context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTDeviceID returns the device ID claim from the gin context
func GetJWTDeviceID(c *gin.Context) string {
	return c.GetString(JWTDeviceIDKey)
}

// GetJWTClaims returns the full claims from the gin context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
