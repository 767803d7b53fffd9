package devserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/devserver/store"
	"github.com/tasjeel-app/tasjeel/pkg/config"
	"github.com/tasjeel-app/tasjeel/pkg/logger"
	corsmiddleware "github.com/tasjeel-app/tasjeel/pkg/middleware/cors"
	reqidmiddleware "github.com/tasjeel-app/tasjeel/pkg/middleware/requestid"
)

// Server is the development backend. It speaks the same auth and row
// protocol the client binds to remotely, with the role policy enforced
// again at this boundary.
type Server struct {
	engine  *gin.Engine
	auth    *AuthService
	store   *store.Store
	metrics *Metrics
	logger  *zap.Logger
	env     string
	port    int
}

// New assembles the server around the given store.
func New(cfg *config.Config, logr *zap.Logger, st *store.Store) *Server {
	if logr == nil {
		logr = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		auth:    NewAuthService(st, cfg.DevServer, logr),
		store:   st,
		metrics: NewMetrics(),
		logger:  logr,
		env:     cfg.Env,
		port:    cfg.DevServer.Port,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.DevServer.AllowedOrigins))
	r.Use(s.metrics.Middleware())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	auth := r.Group("/auth/v1")
	{
		auth.POST("/signup", s.handleSignUp)
		auth.POST("/token", s.handleToken)
		auth.POST("/logout", requireAuth(s.auth), s.handleLogout)
		auth.GET("/user", requireAuth(s.auth), s.handleCurrentUser)
	}

	rest := r.Group("/rest/v1", requireAuth(s.auth))
	{
		rest.GET("/:collection", s.handleSelect)
		rest.POST("/:collection", s.handleInsert)
		rest.PATCH("/:collection", s.handleUpdate)
		rest.DELETE("/:collection", s.handleDelete)
	}

	s.engine = r
	return s
}

// Auth exposes the auth service, mainly so the seed step can run
// before the server starts accepting requests.
func (s *Server) Auth() *AuthService {
	return s.auth
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Sugar().Infow("development server starting", "addr", addr, "env", s.env)
	return s.engine.Run(addr)
}
