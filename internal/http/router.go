// Package httpapi wires the HTTP transport (Gin) to the bot's handlers and
// middleware. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging/redaction, panic recovery, metrics, CORS,
// security headers and rate limiting.
//
// Surfaces:
//   - POST /webhook/{secret}     Telegram deliveries (MODE=webhook)
//   - {API_BASE_PATH}/...        admin API (ADMIN_TOKEN set)
//   - POST /v1/evaluate          evaluation API (EVAL_SERVE=true)
//   - GET  /health, /metrics     always
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-tutor-bot/docs"
	"github.com/tbourn/go-tutor-bot/internal/config"
	"github.com/tbourn/go-tutor-bot/internal/http/handlers"
	"github.com/tbourn/go-tutor-bot/internal/http/middleware"
)

// maxBodyBytes caps request bodies. Telegram updates are far smaller.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID + ScopedLogger: correlate requests and logs
//  3. RedactingLogger: access logs without secrets or PII
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//
// Authentication and rate limiting are attached per surface so the limiter
// sees who authenticated.
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())
	r.Use(middleware.ScopedLogger())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		SecretPaths: []string{"/webhook/"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPrincipalOrIP())

	// Telegram webhook. Authenticated deliveries bypass the limiter.
	if cfg.Bot.Mode == config.ModeWebhook {
		wh := r.Group("/webhook")
		wh.Use(
			middleware.WebhookAuth(middleware.WebhookOptions{
				PathSecret:  cfg.Bot.WebhookSecret,
				HeaderToken: cfg.Bot.WebhookHeader,
			}),
			rl.Handler(),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true, CSP: "default-src 'none'"}),
		)
		wh.POST("/:secret", h.Webhook)
	}

	// Admin API
	if cfg.AdminToken != "" {
		admin := groupWithPrefix(r, cfg.APIBasePath)
		admin.Use(
			middleware.AdminAuth(cfg.AdminToken),
			rl.Handler(),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true, CSP: "default-src 'none'"}),
		)
		{
			admin.GET("/pending", h.ListPending)
			admin.POST("/chats/:chat_id/ask", h.TriggerAsk)
			admin.GET("/stats", h.Stats)
			admin.GET("/questions/:qid/events", h.QuestionEvents)
		}
	}

	// Evaluation API
	if cfg.Eval.Serve {
		r.POST("/v1/evaluate", rl.Handler(), h.Evaluate)
	}
}

// corsMiddleware reproduces the CORS posture: allow all origins when none are
// configured, otherwise echo allow-listed origins.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. Reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
