package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"property-survey-backend/internal/config"
	"property-survey-backend/internal/models"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			c.Abort()
			return
		}

		// Field clients sometimes URL-encode the token
		decodedToken, err := url.QueryUnescape(tokenString)
		if err == nil && decodedToken != tokenString {
			tokenString = decodedToken
		}

		if len(strings.Split(tokenString, ".")) != 3 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid token format",
				"message": "JWT token must have 3 parts separated by dots",
			})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if cfg.JWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))

		if err != nil {
			// Parser errors echo token internals, so only fixed text goes out.
			var errorMsg string
			switch {
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				errorMsg = "token signature is invalid"
			case errors.Is(err, jwt.ErrTokenExpired):
				errorMsg = "token has expired"
			case errors.Is(err, jwt.ErrTokenMalformed):
				errorMsg = "token is malformed"
			default:
				errorMsg = "token is invalid"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "message": errorMsg})
			c.Abort()
			return
		}

		if !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		// Extract user_id from "sub" claim
		sub, ok := claims["sub"].(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user id in token"})
			c.Abort()
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user id in token is not a uuid"})
			c.Abort()
			return
		}

		// A missing or unknown role claim gets the least privileged role
		role, _ := claims["role"].(string)

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, models.ParseRole(role))
		c.Next()
	}
}

// CallerFromContext returns the identity stored by AuthMiddleware.
func CallerFromContext(c *gin.Context) (models.Caller, bool) {
	userID, ok := c.Get(UserIDKey)
	if !ok {
		return models.Caller{}, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return models.Caller{}, false
	}
	role, _ := c.Get(RoleKey)
	r, _ := role.(models.Role)
	if r == "" {
		r = models.RoleFieldExecutive
	}
	return models.Caller{UserID: id, Role: r}, true
}
