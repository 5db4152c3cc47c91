package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidprefetch/cache/internal/state"
)

// Server wires the shared state into a gin engine exposing the cache's
// full HTTP surface.
type Server struct {
	state  *state.SharedState
	engine *gin.Engine
}

// NewServer builds a Server and registers every route.
func NewServer(st *state.SharedState) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(SecurityHeadersMiddleware())

	s := &Server{state: st, engine: r}

	r.GET("/video.mp4", s.VideoMP4)
	r.GET("/thumbnail", s.Thumbnail)
	r.GET("/status", s.Status)
	r.POST("/set_index", s.SetIndex)
	r.GET("/dashboard", s.Dashboard)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Engine returns the underlying gin engine for http.Server wiring.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
