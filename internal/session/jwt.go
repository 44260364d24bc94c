package session

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Claims represents the portal session token claims
type Claims struct {
	UID      int    `json:"uid"`
	Username string `json:"sub"`
	jwt.RegisteredClaims
}

// JWTChecker accepts a session only when the token cookie holds an
// HS256 token signed with secret, unexpired, and from issuer (if set).
type JWTChecker struct {
	cookie string
	secret []byte
	issuer string
	logger *logrus.Entry
}

// NewJWTChecker creates a verifying checker
func NewJWTChecker(cookie, secret, issuer string, logger *logrus.Entry) (*JWTChecker, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not initialized")
	}
	if cookie == "" {
		cookie = DefaultCookie
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &JWTChecker{
		cookie: cookie,
		secret: []byte(secret),
		issuer: issuer,
		logger: logger.WithField("component", "session"),
	}, nil
}

// HasValidSession implements Checker
func (c *JWTChecker) HasValidSession(r *http.Request) bool {
	token := Token(r, c.cookie)
	if token == "" {
		return false
	}
	if _, err := c.ParseToken(token); err != nil {
		c.logger.WithError(err).Debug("Rejected session token")
		return false
	}
	return true
}

// ParseToken parses and validates a session token
func (c *JWTChecker) ParseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
