// Package api exposes cycle status, manual triggers and the article display read API over HTTP.
package api

import (
	"net/http"
	"time"

	"ainewsbot/config"
	"ainewsbot/store"
	"ainewsbot/types"

	"github.com/gin-gonic/gin"
)

// StatusProvider reports the coordinator state.
type StatusProvider interface {
	Status() types.StatusResponse
}

// Deps are the services behind the routes.
type Deps struct {
	Status  StatusProvider
	Trigger func(reason string) bool
	Reader  store.Reader
	Sources []config.SourceConfig
	// NextRun returns the next scheduled cycle; optional.
	NextRun func() time.Time
}

type handlers struct {
	deps Deps
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	h := &handlers{deps: deps}
	RegisterHealthRoutes(r)
	RegisterCycleRoutes(r, h)
	RegisterArticleRoutes(r, h)
	RegisterSourceRoutes(r, h)
	return r
}

// RegisterHealthRoutes registers the liveness probe.
func RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
