package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"beacon/internal/models/dto"
)

// ServiceClaims are the claims Core puts in a service token.
type ServiceClaims struct {
	CallingService string `json:"calling_service"`
	TargetService  string `json:"target_service"`
	jwt.RegisteredClaims
}

// VerifyServiceToken validates an HS256 service token signed with the
// platform's shared secret and confirms it targets us.
func VerifyServiceToken(token, selfName string) (*ServiceClaims, error) {
	secret := os.Getenv("CORE_JWT_SECRET")
	if secret == "" {
		return nil, errors.New("CORE_JWT_SECRET is not set")
	}

	claims := new(ServiceClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("verifying service token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid service token")
	}
	if claims.TargetService != "" && claims.TargetService != selfName {
		return nil, fmt.Errorf("token targets %q, not us", claims.TargetService)
	}
	return claims, nil
}

// ServiceAuth guards routes that only platform peers may call.
func ServiceAuth(selfName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewAuthErrorResponse(c, "Service token not provided"))
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewAuthErrorResponse(c, "Invalid Authorization header format"))
			return
		}

		claims, err := VerifyServiceToken(parts[1], selfName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewAuthErrorResponse(c, "Invalid service token"))
			return
		}

		c.Set("callingService", claims.CallingService)
		c.Next()
	}
}
