// Package server exposes the chat service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/config"
	"github.com/Yates-Labs/beacon/internal/dialogue"
)

const shutdownTimeout = 10 * time.Second

// Chatter answers one chat request.
type Chatter interface {
	Chat(ctx context.Context, req dialogue.Request) (dialogue.Response, error)
}

// Server serves POST /chat and GET /health.
type Server struct {
	chat    Chatter
	cfg     config.ServerConfig
	version string
	engine  *gin.Engine
}

// New builds the router. The gin mode is left to the caller.
func New(chat Chatter, cfg config.ServerConfig, version string) *Server {
	s := &Server{chat: chat, cfg: cfg, version: version}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors(cfg.AllowedOrigin))
	r.GET("/health", s.handleHealth)
	r.POST("/chat", s.handleChat)
	s.engine = r
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("component", "server").Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Str("component", "server").Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": s.version})
}

func (s *Server) handleChat(c *gin.Context) {
	var req dialogue.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	// Failures already carry the apology text; clients always get a
	// displayable answer.
	resp, err := s.chat.Chat(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("component", "server").Msg("chat request failed")
	}
	c.JSON(http.StatusOK, resp)
}

// cors allows browser calls from origin. "*" allows any origin.
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqOrigin := c.GetHeader("Origin")
		if reqOrigin != "" && (origin == "*" || reqOrigin == origin) {
			c.Header("Access-Control-Allow-Origin", reqOrigin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("component", "server").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
