package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tenantIDKey = "tenantID"
	userIDKey   = "userID"
)

// Claims is the token payload: sub is the user, tenant_id the tenant every
// query is scoped to.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Identity is what a verified token grants.
type Identity struct {
	TenantID uuid.UUID
	UserID   *uuid.UUID
}

var errMissingTenant = errors.New("tenant_id claim is missing")

// ParseToken verifies an HS256 token and extracts the identity.
func ParseToken(secret []byte, tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	if claims.TenantID == "" {
		return Identity{}, errMissingTenant
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Identity{}, fmt.Errorf("tenant_id claim: %w", err)
	}

	id := Identity{TenantID: tenantID}
	if claims.Subject != "" {
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return Identity{}, fmt.Errorf("sub claim: %w", err)
		}
		id.UserID = &userID
	}
	return id, nil
}

// IssueToken signs a token for the identity. Used by the CLI and tests.
func IssueToken(secret []byte, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: id.TenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.UserID != nil {
		claims.Subject = id.UserID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// bearerToken reads the access_token cookie, falling back to the
// Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// RequireTenant validates the JWT and stores the caller's tenant and user
// on the context.
func RequireTenant(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		id, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		c.Set(tenantIDKey, id.TenantID)
		if id.UserID != nil {
			c.Set(userIDKey, *id.UserID)
		}
		c.Next()
	}
}

// IdentityFrom returns what RequireTenant stored. ok is false when the
// middleware did not run.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(tenantIDKey)
	if !exists {
		return Identity{}, false
	}
	tenantID, ok := v.(uuid.UUID)
	if !ok {
		return Identity{}, false
	}
	id := Identity{TenantID: tenantID}
	if u, exists := c.Get(userIDKey); exists {
		if userID, ok := u.(uuid.UUID); ok {
			id.UserID = &userID
		}
	}
	return id, true
}
