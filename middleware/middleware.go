package middleware

import (
	"net/http"
	"strconv"
	"time"

	"sistema-contabil/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimit limita a frequência de requisições por IP na API
func RateLimit(limiter *utils.RateLimiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !limiter.Allow(clientIP) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"erro":  "Muitas requisições",
				"reset": limiter.ResetAt(clientIP),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(clientIP)))
		c.Header("X-RateLimit-Reset", limiter.ResetAt(clientIP).Format(time.RFC3339))

		c.Next()
	}
}

// Logger registra cada requisição da API com o request_id
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := RequestIDFromContext(c.Request.Context())
		if requestID == "" {
			requestID = c.GetHeader(RequestIDHeader)
		}
		if requestID == "" {
			requestID = uuid.NewString()
			c.Header(RequestIDHeader, requestID)
		}
		c.Set(string(requestIDKey), requestID)

		c.Next()

		duration := time.Since(startTime)
		utils.Logger().Info("requisição api",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
		)

		for _, e := range c.Errors {
			utils.LogError("Erro na requisição %s: %v", requestID, e)
		}
	}
}

// Recovery transforma pânicos em respostas 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				utils.LogError("Pânico recuperado em %s %s: %v", c.Request.Method, c.Request.URL.Path, err)

				c.JSON(http.StatusInternalServerError, gin.H{
					"erro": "Erro interno do servidor",
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}

// Auth exige um JWT válido e coloca o operador no contexto da requisição
func Auth(jwtKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"erro": errMissingAuthorization.Error()})
			return
		}

		operadorID, email, err := ParseToken(token, jwtKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"erro": err.Error()})
			return
		}

		c.Request = c.Request.WithContext(WithOperator(c.Request.Context(), operadorID, email))
		c.Next()
	}
}

// CORS libera as origens configuradas
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
