package server

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/inkworks/atelier/internal/requestctx"
)

const sessionCookieName = "atelier_session"

// RequireAdmin authenticates the caller via the session cookie or a
// bearer token and requires the admin role claim.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.parseClaims(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			AbortWithError(c, ErrForbidden)
			return
		}

		subject, _ := claims["sub"].(string)
		ctx := requestctx.WithActor(c.Request.Context(), requestctx.Actor{Type: "admin", ID: subject})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireServiceAccount authenticates unattended automation via a
// static bearer token compared in constant time.
func (s *Server) RequireServiceAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := s.cfg.ServiceAccountToken
		if expected == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := bearerToken(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := requestctx.WithActor(c.Request.Context(), requestctx.Actor{Type: "service_account", ID: "extrato-service"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) parseClaims(token string) (jwt.MapClaims, error) {
	if s.cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("jwt secret not configured")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.AuthJWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
