package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solatis/rulekeeper/internal/core/api"
	"github.com/solatis/rulekeeper/internal/core/auth"
	"github.com/solatis/rulekeeper/internal/core/config"
)

// ErrorResponse is the body of every failed HTTP call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPServer serves the JSON API, health and metrics over gin.
type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	config *config.ServerConfig
}

// NewHTTPServer builds the router. Routes under /v1 require an API key when
// authenticator is non-nil; /healthz and /metrics never do.
func NewHTTPServer(cfg *config.ServerConfig, service *api.Service, authenticator *auth.Authenticator, logger *slog.Logger) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{service: service}
	v1 := router.Group("/v1", authenticator.GinMiddleware())
	v1.POST("/transform", h.transform)
	v1.POST("/encode", h.encode)
	v1.POST("/decode", h.decode)
	v1.POST("/analyze", h.analyze)
	v1.POST("/fix", h.fix)
	v1.POST("/fix-all", h.fixAll)
	v1.GET("/rule-sets", h.listRuleSets)
	v1.GET("/rule-sets/:name", h.getRuleSet)
	v1.PUT("/rule-sets/:name", h.saveRuleSet)
	v1.DELETE("/rule-sets/:name", h.deleteRuleSet)

	return &HTTPServer{
		router: router,
		config: cfg,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start binds and serves until Shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.server.Addr, err)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

type handlers struct {
	service *api.Service
}

func (h *handlers) fail(c *gin.Context, err error) {
	c.JSON(api.HTTPStatus(err), ErrorResponse{Error: err.Error()})
}

// bind decodes the JSON body into req, answering 400 on failure.
func (h *handlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", api.ErrInvalidRequest, err))
		return false
	}
	return true
}

func (h *handlers) transform(c *gin.Context) {
	var req api.TransformRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.Transform(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) encode(c *gin.Context) {
	var req api.EncodeTrackedRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.EncodeTracked(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) decode(c *gin.Context) {
	var req api.DecodeTrackedRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.DecodeTracked(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) analyze(c *gin.Context) {
	var req api.AnalyzeRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) fix(c *gin.Context) {
	var req api.ApplyFixRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.ApplyFix(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) fixAll(c *gin.Context) {
	var req api.ApplyFixAllRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.service.ApplyFixAll(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) listRuleSets(c *gin.Context) {
	resp, err := h.service.ListRuleSets(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) getRuleSet(c *gin.Context) {
	resp, err := h.service.GetRuleSet(c.Request.Context(), api.RuleSetRequest{Name: c.Param("name")})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) saveRuleSet(c *gin.Context) {
	var body struct {
		Rules any `json:"rules"`
	}
	if !h.bind(c, &body) {
		return
	}
	resp, err := h.service.SaveRuleSet(c.Request.Context(), api.SaveRuleSetRequest{Name: c.Param("name"), Rules: body.Rules})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) deleteRuleSet(c *gin.Context) {
	if err := h.service.DeleteRuleSet(c.Request.Context(), api.RuleSetRequest{Name: c.Param("name")}); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
