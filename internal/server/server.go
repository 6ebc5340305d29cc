// Package server is the HTTP surface of the CMS: JSON handlers over the
// lookup and page services, with form-level validation errors passed through
// to the client for re-display.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rdu/measures/internal/cache"
	"github.com/rdu/measures/internal/service"
	"github.com/rdu/measures/internal/store"
	"github.com/rdu/measures/internal/uploads"
	"github.com/sirupsen/logrus"
)

type Server struct {
	engine *gin.Engine
}

func NewServer(
	st store.Store,
	pages *service.PageService,
	lookup *service.LookupService,
	files *uploads.Service,
	listings cache.MeasureCache,
) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	h := &handler{
		store:    st,
		pages:    pages,
		lookup:   lookup,
		files:    files,
		listings: listings,
		log:      logrus.WithField("component", "server"),
	}
	h.registerRoutes(engine)

	return &Server{engine: engine}
}

// Start blocks serving HTTP on the given address.
func (s *Server) Start(addr string) error {
	logrus.Infof("starting http server on %s", addr)
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}
