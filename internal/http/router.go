package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"premium-estimator/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas. Si tokens esta
// habilitado, las rutas /v1/quotes exigen un token de operador.
func NewRouter(
	logger *zap.Logger,
	quoteH *QuoteHandler,
	authH *AuthHandler,
	tokens *service.TokenService,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", jsonContentTypeMiddleware())
	v1.GET("/model", quoteH.GetModel)
	v1.GET("/profile", quoteH.GetProfile)
	v1.POST("/features", quoteH.DeriveFeatures)

	quotes := v1.Group("/quotes")
	if tokens.Enabled() {
		quotes.Use(JWTAuthMiddleware(tokens))
	}
	quotes.POST("", quoteH.CreateQuote)
	quotes.GET("", quoteH.ListQuotes)
	quotes.GET("/:id", quoteH.GetQuote)

	auth := r.Group("/auth", jsonContentTypeMiddleware())
	auth.POST("/token", authH.IssueToken)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
