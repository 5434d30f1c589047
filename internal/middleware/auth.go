package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/imyashkale/geoconnect/internal/logger"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrMissingUserID     = errors.New("missing user ID in token")
	ErrPrincipalSync     = errors.New("failed to record principal")
)

const bearerPrefix = "Bearer "

// Auth0Config holds Auth0 configuration
type Auth0Config struct {
	Domain   string
	Audience string
	// JWKSURL overrides the key set location derived from Domain
	JWKSURL string
	// KeyTTL bounds how long fetched signing keys are reused
	KeyTTL time.Duration
}

// NewAuth0Config creates a new Auth0 configuration
func NewAuth0Config(domain, audience string) *Auth0Config {
	return &Auth0Config{
		Domain:   domain,
		Audience: audience,
		KeyTTL:   10 * time.Minute,
	}
}

// Issuer is the expected "iss" claim
func (c *Auth0Config) Issuer() string {
	return fmt.Sprintf("https://%s/", c.Domain)
}

func (c *Auth0Config) jwksURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return fmt.Sprintf("https://%s/.well-known/jwks.json", c.Domain)
}

// bearerToken extracts the token from the Authorization header
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidAuthHeader
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

func unauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   code,
		"message": message,
	})
}

// Authentication parses bearer tokens without verifying the signature.
// Only the expiry is checked and the is_admin claim is ignored, so such
// tokens never carry administrator rights. Use AuthenticationWithAuth0 when
// a domain is configured.
func Authentication(sync PrincipalSync) gin.HandlerFunc {
	parser := jwt.NewParser()

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			logger.WithField("path", c.Request.URL.Path).Warnf("Authentication failed: %v", err)
			unauthorized(c, "unauthorized", "Missing or invalid authorization header")
			return
		}

		if parts := strings.Count(tokenString, ".") + 1; parts != 3 {
			logger.WithFields(map[string]interface{}{
				"path":        c.Request.URL.Path,
				"parts_count": parts,
			}).Warn("Authentication failed: malformed token")
			unauthorized(c, "malformed_token", fmt.Sprintf("JWT token must have 3 parts (header.payload.signature), got %d part(s)", parts))
			return
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			logger.Debugf("Token parse error: %v", err)
			unauthorized(c, "invalid_token", fmt.Sprintf("Failed to parse token: %v", err))
			return
		}

		exp, err := claims.GetExpirationTime()
		if err != nil {
			unauthorized(c, "invalid_token", "Invalid exp claim")
			return
		}
		if exp != nil && time.Now().After(exp.Time) {
			logger.WithField("path", c.Request.URL.Path).Warn("Authentication failed: token expired")
			unauthorized(c, "token_expired", ErrTokenExpired.Error())
			return
		}

		if !authorizeClaims(c, claims, sync, false) {
			return
		}
		c.Next()
	}
}

// AuthenticationWithAuth0 verifies RS256 tokens against the tenant's JWKS,
// checking issuer, audience and expiry
func AuthenticationWithAuth0(config *Auth0Config, sync PrincipalSync) gin.HandlerFunc {
	keys := newKeySet(config.jwksURL(), config.KeyTTL)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(config.Issuer()),
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			logger.WithField("path", c.Request.URL.Path).Warnf("Auth0 authentication failed: %v", err)
			unauthorized(c, "unauthorized", "Missing or invalid authorization header")
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			return keys.Key(c.Request.Context(), kid)
		})
		if err != nil || !token.Valid {
			code := "invalid_token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = "token_expired"
			}
			logger.WithFields(map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": fmt.Sprint(err),
			}).Warn("Auth0 authentication failed: token validation error")
			unauthorized(c, code, fmt.Sprintf("%v: %v", ErrInvalidToken, err))
			return
		}

		if !authorizeClaims(c, claims, sync, true) {
			return
		}
		c.Next()
	}
}

// authorizeClaims decodes the claims into the request context. Privilege
// claims are honored only when verified is true. It aborts the request and
// returns false on failure.
func authorizeClaims(c *gin.Context, raw jwt.MapClaims, sync PrincipalSync, verified bool) bool {
	claims, err := decodeClaims(raw)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Warn("Authentication failed: unusable token claims")
		unauthorized(c, "invalid_token", "Missing user ID in token")
		return false
	}
	if !verified && claims.IsAdmin {
		logger.WithField("user_id", claims.Subject).Warn("Ignoring is_admin claim on unverified token")
		claims.IsAdmin = false
	}

	if err := setPrincipal(c, raw, claims, sync); err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id": claims.Subject,
			"error":   err.Error(),
		}).Error("Failed to record principal")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to record principal",
		})
		return false
	}

	logger.WithFields(map[string]interface{}{
		"user_id": claims.Subject,
		"path":    c.Request.URL.Path,
	}).Debug("Authentication successful")
	return true
}
