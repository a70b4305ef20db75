package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kaskecil/internal/config"
	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/pkg/lifecycle"
)

const (
	// ActorKey is the gin context key holding the authenticated services.Actor.
	ActorKey = "actor"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	issuer           = "kaskecil-api"
)

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the JWT. Role and scope travel in the
// token so requests can be authorized without a user lookup.
type JWTClaims struct {
	UserID    string         `json:"user_id"`
	Email     string         `json:"email"`
	Role      lifecycle.Role `json:"role"`
	BranchID  string         `json:"branch_id,omitempty"`
	UnitID    string         `json:"unit_id,omitempty"`
	TokenType string         `json:"token_type"`
	jwt.RegisteredClaims
}

// Actor returns the services.Actor the claims describe.
func (c *JWTClaims) Actor() services.Actor {
	return services.Actor{
		UserID:   c.UserID,
		Role:     c.Role,
		BranchID: c.BranchID,
		UnitID:   c.UnitID,
	}
}

func newClaims(user *models.User, tokenType string, ttl time.Duration) *JWTClaims {
	now := time.Now()
	actor := services.ActorFromUser(user)
	return &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		BranchID:  actor.BranchID,
		UnitID:    actor.UnitID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
func GenerateAccessToken(user *models.User) (string, error) {
	claims := newClaims(user, tokenTypeAccess, config.Get().AccessTokenExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// GenerateRefreshToken generates a long-lived JWT refresh token for a user.
func GenerateRefreshToken(user *models.User) (string, error) {
	claims := newClaims(user, tokenTypeRefresh, config.Get().RefreshTokenExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// parseToken verifies the signature and expiry of a token.
func parseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token JWT.
// Returns the claims if valid, or an error if the token is invalid,
// expired, or not a refresh token.
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := parseToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer access token and stores the actor in
// the context.
func AuthMiddleware() gin.HandlerFunc {
	return authenticate(false)
}

// QueryTokenAuthMiddleware is AuthMiddleware that also accepts the access
// token as a `token` query parameter, so a report link can be opened
// directly in a browser.
func QueryTokenAuthMiddleware() gin.HandlerFunc {
	return authenticate(true)
}

func authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			tokenString = c.Query("token")
			ok = tokenString != ""
		}
		if !ok {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Token akses wajib disertakan"))
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil || claims.TokenType != tokenTypeAccess || !claims.Role.Valid() {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		c.Set(ActorKey, claims.Actor())
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// abortWithError stops the chain with the standard error envelope.
func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
