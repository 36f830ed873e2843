package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fursaver-site/internal/config"
	"fursaver-site/internal/conversation"
	apperrors "fursaver-site/internal/errors"
	"fursaver-site/internal/logger"
	"fursaver-site/internal/observer"
	"fursaver-site/internal/screening"
	"fursaver-site/internal/site"
	"fursaver-site/internal/workerpool"
)

// multipartOverhead is headroom for form boundaries and fields around the
// uploaded photo.
const multipartOverhead = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// Dependencies are the services the HTTP layer dispatches to
type Dependencies struct {
	Screenings    *screening.Service
	Conversations *conversation.Service
	Metrics       *observer.MetricsObserver
	ArchivePool   *workerpool.WorkerPool
	Content       *site.Content
}

type handler struct {
	deps Dependencies
	cfg  *config.Config
}

func NewHandler(deps Dependencies, cfg *config.Config) (http.Handler, error) {
	tmpl, err := site.Templates()
	if err != nil {
		return nil, err
	}

	h := &handler{deps: deps, cfg: cfg}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(
		gin.Recovery(),
		requestLogger(),
		corsMiddleware(cfg.CORSOrigins),
		requestSizeLimiter(cfg.MaxUploadSize+multipartOverhead),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", h.metrics)

	r.GET("/", h.page)
	r.POST("/upload", h.uploadImage)
	r.POST("/upload/analyze", h.analyzeImage)
	r.POST("/upload/reset", h.resetUpload)
	r.POST("/upload/chat", h.chatAboutResults)
	r.POST("/chat", h.sendChat)

	api := r.Group("/api")
	{
		screenings := api.Group("/screenings")
		screenings.POST("", h.createScreening)
		screenings.GET("/:id", h.getScreening)
		screenings.DELETE("/:id", h.closeScreening)
		screenings.PUT("/:id/image", h.putScreeningImage)
		screenings.DELETE("/:id/image", h.deleteScreeningImage)
		screenings.POST("/:id/analyze", h.analyzeScreening)
		screenings.POST("/:id/chat", h.chatAboutScreening)

		conversations := api.Group("/conversations")
		conversations.POST("", h.createConversation)
		conversations.GET("/:id", h.getConversation)
		conversations.DELETE("/:id", h.closeConversation)
		conversations.POST("/:id/messages", h.postMessage)
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) metrics(c *gin.Context) {
	body := gin.H{
		"events": h.deps.Metrics.GetMetrics(),
		"sessions": gin.H{
			"screenings":    h.deps.Screenings.Active(),
			"conversations": h.deps.Conversations.Active(),
		},
	}
	if h.deps.ArchivePool != nil {
		body["archive_pool"] = h.deps.ArchivePool.GetStats()
	}
	c.JSON(http.StatusOK, body)
}

// requestContext bounds a handler's work by the configured request timeout
func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.WithFields(fields).Warn("Request completed with server error")
			return
		}
		logger.WithFields(fields).Debug("Request completed")
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	apply := cors.New(cfg)

	// HTML form posts from the site itself are not subject to the API policy
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}
		apply(c)
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the JSON error body. Only the AppError's user-facing
// message is exposed; causes go to the log.
func respondError(c *gin.Context, code int, message string, err error) {
	logFailure(c, code, message, err)
	c.AbortWithStatusJSON(code, errorBody(code, message, err))
}

func errorBody(code int, message string, err error) ErrorResponse {
	resp := ErrorResponse{Error: http.StatusText(code), Message: message}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
		resp.Message = appErr.Message
	}
	return resp
}

func logFailure(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
}

// respondAppError hands err to errorHandler, which writes the response
func respondAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
