package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/OctaveLauby/olanalytics/internal/detect"
	"github.com/OctaveLauby/olanalytics/internal/series"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultMaxSamples      = 100000
	defaultMaxElbowSamples = 10000
)

// Options tune the router. Zero values fall back to defaults.
type Options struct {
	Logger     *zap.Logger
	MaxSamples int
	// MaxElbowSamples caps doubleline elbow requests separately.
	MaxElbowSamples int
	DefaultDeltaR   float64
}

func NewRouter(environment string, store *series.Store, opts Options) (*gin.Engine, error) {
	if store == nil {
		return nil, errors.New("series store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = defaultMaxSamples
	}
	if opts.MaxElbowSamples <= 0 {
		opts.MaxElbowSamples = defaultMaxElbowSamples
	}
	if opts.DefaultDeltaR <= 0 {
		opts.DefaultDeltaR = detect.DefaultDeltaR
	}

	EnableStrictJSONDecoding()
	RegisterValidations()
	gin.SetMode(ginMode(environment))

	m := newMetrics()

	router := gin.New()
	router.Use(gin.Recovery(), instrument(opts.Logger, m))
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", m.handler())

	detector := newDetectHandler(opts, m)
	seriesHandler := newSeriesHandler(store, detector)

	v1 := router.Group("/v1")
	v1.POST("/group", detector.group)
	v1.POST("/bounds", detector.bounds)
	v1.POST("/linearize", detector.linearize)
	v1.POST("/elbow", detector.elbow)
	v1.POST("/iso", detector.iso)
	v1.POST("/leap", detector.leap)

	v1.POST("/series", seriesHandler.create)
	v1.GET("/series", seriesHandler.list)
	v1.GET("/series/:series_id", seriesHandler.get)
	v1.POST("/series/:series_id/context", seriesHandler.context)
	v1.POST("/series/:series_id/bounds", seriesHandler.bounds)
	v1.POST("/series/:series_id/elbow", seriesHandler.elbow)
	v1.POST("/series/:series_id/iso", seriesHandler.iso)
	v1.POST("/series/:series_id/leap", seriesHandler.leap)

	return router, nil
}

func ginMode(environment string) string {
	switch environment {
	case "development":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
