package http

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ClientTokenMiddleware gives every browser a stable device token in its
// session cookie. It identifies devices in logs; it is not an identity.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set("ct", token)
			if err := sess.Save(); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("session save failed")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// IdentityMiddleware resolves the durable user identity for the request.
// A valid HS256 token (query param for the ws handshake, bearer header for
// REST) wins; in debug mode a bare `identity` query param is accepted.
// Absent both, the request proceeds anonymous.
func IdentityMiddleware(secret string, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if tokenStr != "" {
			if uid, ok := parseIdentity(tokenStr, secret); ok {
				c.Set("identity", uid)
				c.Next()
				return
			}
			log.Warn().Str("module", "adapters.http").Msg("invalid token, treating as anonymous")
		}
		if devMode {
			if uid := c.Query("identity"); uid != "" {
				c.Set("identity", uid)
			}
		}
		c.Next()
	}
}

func parseIdentity(tokenStr, secret string) (string, bool) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
