package session

import (
	"errors"
	"time"

	"portal_gateway/internal/httpx"
	"portal_gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenParser validates a token before it is stored
type TokenParser interface {
	ParseToken(token string) (*session.Claims, error)
}

// CreateRequest is the body of POST /_gateway/session
type CreateRequest struct {
	Token            string `json:"token" binding:"required"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
	CallbackURL      string `json:"callbackUrl"`
}

// CreateResponse tells the client where to go after login
type CreateResponse struct {
	Redirect string `json:"redirect"`
	ExpireAt string `json:"expireAt"`
}

// Handler stores and clears the portal auth cookie
type Handler struct {
	cookie string
	maxAge time.Duration
	secure bool
	parser TokenParser
}

// NewHandler creates a session handler. parser may be nil, in which case
// tokens are stored unverified.
func NewHandler(cookie string, maxAge time.Duration, secure bool, parser TokenParser) *Handler {
	if cookie == "" {
		cookie = session.DefaultCookie
	}
	if maxAge <= 0 {
		maxAge = session.DefaultMaxAge
	}
	return &Handler{cookie: cookie, maxAge: maxAge, secure: secure, parser: parser}
}

// Create handles POST /_gateway/session
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("token is required"))
		return
	}
	if req.ExpiresInMinutes < 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("expiresInMinutes must not be negative"))
		return
	}

	maxAge := h.maxAge
	if req.ExpiresInMinutes > 0 {
		maxAge = time.Duration(req.ExpiresInMinutes) * time.Minute
	}

	if h.parser != nil {
		claims, err := h.parser.ParseToken(req.Token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrInvalidToken("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			return
		}
		// The cookie never outlives the token. Max-Age has whole-second
		// resolution, so a token with less than a second left is refused.
		if claims.ExpiresAt != nil {
			remaining := time.Until(claims.ExpiresAt.Time)
			if remaining < time.Second {
				httpx.FailErr(c, httpx.ErrInvalidToken("token expired"))
				return
			}
			if remaining < maxAge {
				maxAge = remaining.Truncate(time.Second)
			}
		}
	}

	session.SetToken(c.Writer, h.cookie, req.Token, maxAge, h.secure)
	httpx.OK(c, CreateResponse{
		Redirect: session.SafeRedirect(req.CallbackURL, "/"),
		ExpireAt: time.Now().Add(maxAge).Format(time.RFC3339),
	})
}

// Delete handles DELETE /_gateway/session
func (h *Handler) Delete(c *gin.Context) {
	session.ClearToken(c.Writer, h.cookie)
	httpx.OK(c, nil)
}
