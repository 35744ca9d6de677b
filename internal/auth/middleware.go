package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrNotPrivileged is returned when a caller lacks the admin capability.
var ErrNotPrivileged = errors.New("caller is not privileged")

// Guard validates a request's credentials and, on success, marks the request
// context privileged.
type Guard interface {
	Middleware() gin.HandlerFunc
}

// StaticTokenGuard compares the bearer token against a configured secret.
// Intended for development and single-operator deployments.
type StaticTokenGuard struct {
	token  string
	logger *zap.Logger
}

func NewStaticTokenGuard(token string, logger *zap.Logger) *StaticTokenGuard {
	return &StaticTokenGuard{token: token, logger: logger.Named("auth")}
}

func (g *StaticTokenGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || token != g.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(WithPrivileged(c.Request.Context()))
		c.Next()
	}
}

// AdminClaims is the JWT payload accepted by the JWTGuard.
type AdminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// JWTGuard validates an HS256 admin token.
type JWTGuard struct {
	secret   []byte
	issuer   string
	logger   *zap.Logger
	clockSkw time.Duration
}

func NewJWTGuard(secret []byte, issuer string, logger *zap.Logger) *JWTGuard {
	return &JWTGuard{
		secret:   secret,
		issuer:   issuer,
		logger:   logger.Named("auth"),
		clockSkw: 30 * time.Second,
	}
}

func (g *JWTGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &AdminClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return g.secret, nil
		}, jwt.WithIssuer(g.issuer), jwt.WithLeeway(g.clockSkw))
		if err != nil || !token.Valid {
			g.logger.Warn("rejected admin token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token lacks admin claim"})
			return
		}

		c.Request = c.Request.WithContext(WithPrivileged(c.Request.Context()))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}
