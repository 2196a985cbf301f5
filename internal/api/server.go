package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ServiceName = "tattty"

type Options struct {
	Addr           string
	Version        string
	Debug          bool
	RequestTimeout time.Duration
	AllowedOrigins []string

	Generator Generator
	Limiter   *RateLimiter
	// PreviewLimiter guards POST /api/ar-preview.
	PreviewLimiter *RateLimiter
	// IndexPage is served at "/" when set.
	IndexPage []byte

	Logger *zap.Logger
}

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Generator == nil {
		return nil, errors.New("generator is nil")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(0, 1)
	}
	previewLimiter := opts.PreviewLimiter
	if previewLimiter == nil {
		previewLimiter = NewRateLimiter(0, 1)
	}

	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(RequestID(log))
	router.Use(CORS(opts.AllowedOrigins))

	h := NewHandler(opts.Generator, opts.RequestTimeout, log)

	NewHealthHandler(ServiceName, opts.Version).RegisterRoutes(router)
	if len(opts.IndexPage) > 0 {
		page := opts.IndexPage
		router.GET("/", func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		})
	}

	api := router.Group("/api")
	{
		api.POST("/generate-tattoo", limiter.Middleware(), h.GenerateTattoo)
		api.GET("/questionnaire", h.Questionnaire)
		api.POST("/ar-preview", previewLimiter.Middleware(), h.ARPreview)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      opts.RequestTimeout + 30*time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		log: log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
