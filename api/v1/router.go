package v1

import (
	"strings"

	"portal_gateway/api/v1/middleware"
	"portal_gateway/api/v1/session"
	"portal_gateway/internal/config"
	"portal_gateway/internal/httpx"
	"portal_gateway/internal/metrics"
	"portal_gateway/internal/portal"
	"portal_gateway/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// GatewayPrefix mounts the gateway's own endpoints
const GatewayPrefix = "/_gateway"

// Deps are the components the HTTP surface is wired from
type Deps struct {
	Config *config.Config
	Router *portal.Router
	Render *upstream.Proxy
	// API is nil when no backend upstream is configured
	API *upstream.Proxy
	// Tokens validates tokens on login; nil stores them unverified
	Tokens   session.TokenParser
	Gatherer prometheus.Gatherer
	Logger   *logrus.Entry
}

// SetupRouter sets up the gateway routes. Everything not matched here goes
// through the page router to the renderer.
func SetupRouter(r *gin.Engine, deps Deps) {
	r.Use(middleware.RequestID(), middleware.AccessLog(deps.Logger), gin.Recovery())

	gw := r.Group(GatewayPrefix)
	{
		gw.GET("/ping", pingHandler)
		if deps.Gatherer != nil {
			gw.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
		}

		sessionHandler := session.NewHandler(
			deps.Config.Session.Cookie,
			deps.Config.SessionMaxAge(),
			deps.Config.IsProduction(),
			deps.Tokens,
		)
		gw.POST("/session", sessionHandler.Create)
		gw.DELETE("/session", sessionHandler.Delete)
	}

	if deps.API != nil {
		r.Any(strings.TrimSuffix(deps.Config.Upstream.APIPrefix, "/")+"/*path", deps.API.Handler())
	}

	r.NoRoute(deps.Router.Middleware(), deps.Render.Handler())
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
