// Package server exposes citation conversion over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matsen/apa2tex/internal/convert"
	"github.com/matsen/apa2tex/internal/match"
	"github.com/matsen/apa2tex/internal/storage"
)

// Config controls the HTTP API.
type Config struct {
	RequestsPerSecond float64 // Per client IP; 0 disables limiting
	Burst             int
	MaxBodyBytes      int64 // 0 means unlimited
	Version           string
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	ConvertOptions []convert.Option
	Tiers          []match.Tier
	Logger         zerolog.Logger
	History        *storage.DB // Optional; when set every conversion is recorded
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestLogger
//	API:     RateLimit → BodyLimit
//
// The health endpoint is outside the rate limit. Background work started
// by the middleware stops when ctx is done.
func NewRouter(ctx context.Context, cfg Config, deps Deps, startTime time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Logger))

	v1 := r.Group("/api/v1")
	v1.GET("/health", Health(cfg.Version, startTime))

	limited := v1.Group("")
	limited.Use(RateLimit(ctx, cfg.RequestsPerSecond, cfg.Burst))
	limited.Use(BodyLimit(cfg.MaxBodyBytes))

	limited.POST("/convert", Convert(deps))
	limited.POST("/resolve", Resolve(deps))
	limited.POST("/cited", Cited())

	return r
}
