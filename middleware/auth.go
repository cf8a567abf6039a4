package middleware

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sistema-contabil/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	operadorIDKey contextKey = "operador_id"
	emailKey      contextKey = "email"
	requestIDKey  contextKey = "request_id"
)

// RequestIDHeader propaga o identificador da requisição
const RequestIDHeader = "X-Request-ID"

var (
	errMissingAuthorization = utils.NewUnauthorizedError("Cabeçalho Authorization é obrigatório")
	errInvalidToken         = utils.NewUnauthorizedError("Token inválido")
	errInvalidClaims        = utils.NewUnauthorizedError("Token com claims inválidas")
)

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Hijack permite o upgrade para websocket através do wrapper
func (lrw *LoggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("ResponseWriter não suporta hijack")
	}
	return hijacker.Hijack()
}

// LoggingMiddleware registra método, caminho, status e duração de cada requisição
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		utils.GetMetrics().RecordRequest(duration, lrw.statusCode >= http.StatusInternalServerError)
		utils.Logger().Info("requisição",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID),
		)
	})
}

// ParseToken valida um JWT HS256 e retorna o operador e o email das claims
func ParseToken(tokenString string, jwtKey []byte) (uint, string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})
	if err != nil || !token.Valid {
		return 0, "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidClaims
	}
	operadorID, ok := claims["operador_id"].(float64)
	if !ok || operadorID <= 0 {
		return 0, "", errInvalidClaims
	}
	email, _ := claims["email"].(string)

	return uint(operadorID), email, nil
}

// AuthMiddleware exige um JWT válido e coloca o operador no contexto da requisição
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondError(w, errMissingAuthorization)
				return
			}

			operadorID, email, err := ParseToken(tokenString, jwtKey)
			if err != nil {
				utils.RespondError(w, err)
				return
			}

			r.Header.Set("X-Operador-ID", strconv.FormatUint(uint64(operadorID), 10))
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operadorID, email)))
		})
	}
}

// RateLimitMiddleware recusa com 429 as requisições acima do limite por IP
func RateLimitMiddleware(limiter *utils.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(limiter.ResetAt(ip)).Seconds())+1))
				utils.RespondJSON(w, http.StatusTooManyRequests, map[string]string{
					"erro": "Muitas requisições. Tente novamente mais tarde.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithOperator retorna um contexto com o operador autenticado
func WithOperator(ctx context.Context, operadorID uint, email string) context.Context {
	ctx = context.WithValue(ctx, operadorIDKey, operadorID)
	return context.WithValue(ctx, emailKey, email)
}

// OperatorFromContext obtém o operador autenticado do contexto
func OperatorFromContext(ctx context.Context) (uint, string, error) {
	operadorID, ok := ctx.Value(operadorIDKey).(uint)
	if !ok {
		return 0, "", fmt.Errorf("operador_id não encontrado no contexto")
	}
	email, _ := ctx.Value(emailKey).(string)
	return operadorID, email, nil
}

// RequestIDFromContext obtém o identificador da requisição, vazio se ausente
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
