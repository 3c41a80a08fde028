// Package api exposes the reminder job over HTTP for external cron
// services, plus health and Prometheus endpoints.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/reminder"
)

// Runner runs the reminder job for a calendar day.
type Runner interface {
	Run(ctx context.Context, today time.Time) (*reminder.Result, error)
}

type Server struct {
	runner     Runner
	today      func() time.Time
	cronSecret string
	gatherer   prometheus.Gatherer
}

// NewServer builds the API. today supplies the default date when a request
// does not pass one. An empty cronSecret leaves the trigger open.
func NewServer(runner Runner, today func() time.Time, cronSecret string, gatherer prometheus.Gatherer) *Server {
	return &Server{runner: runner, today: today, cronSecret: cronSecret, gatherer: gatherer}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	{
		api.GET("/health", s.health)

		cron := api.Group("/cron", s.requireCronSecret())
		cron.GET("/check-bills", s.checkBills)
		cron.POST("/check-bills", s.checkBills)
	}

	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// NewHTTPServer wraps handler with the server timeouts. A full reminder run
// happens inside the check-bills request, so writeTimeout has to cover the
// paced chat fan-out; zero leaves writes unbounded.
func NewHTTPServer(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) checkBills(c *gin.Context) {
	today := s.today()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid date",
				"message": "date must be formatted as YYYY-MM-DD",
			})
			return
		}
		today = d
	}

	result, err := s.runner.Run(c.Request.Context(), today)
	if err != nil {
		slog.Error("Cron job failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check bills",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) requireCronSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cronSecret == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			slog.Error("HTTP request", attrs...)
		case status >= 400:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	}
}
