package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sistema-contabil/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("chave-de-teste")

func signToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"operador_id": 7,
		"email":       "ana@escritorio.com",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
}

func TestParseToken(t *testing.T) {
	token := signToken(t, testKey, validClaims())

	operadorID, email, err := ParseToken("Bearer "+token, testKey)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if operadorID != 7 || email != "ana@escritorio.com" {
		t.Errorf("unexpected claims: %d %q", operadorID, email)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noOperator := validClaims()
	delete(noOperator, "operador_id")

	tests := []struct {
		name  string
		token string
	}{
		{"assinatura errada", signToken(t, []byte("outra-chave"), validClaims())},
		{"expirado", signToken(t, testKey, expired)},
		{"sem operador", signToken(t, testKey, noOperator)},
		{"malformado", "abc.def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseToken(tt.token, testKey); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	var gotID uint
	handler := AuthMiddleware(testKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _, _ = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/automacao/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["erro"] == "" {
		t.Errorf("expected an erro field, got %v (%v)", body, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/automacao/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testKey, validClaims()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with a valid token, got %d", rec.Code)
	}
	if gotID != 7 {
		t.Errorf("expected operador 7 in context, got %d", gotID)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(utils.NewRateLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/automacao/testar-email", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("request id not propagated: context %q header %q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestGinAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(), Auth(testKey))
	engine.GET("/clientes", func(c *gin.Context) {
		operadorID, _, err := OperatorFromContext(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"operador_id": operadorID})
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clientes", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testKey, validClaims()))
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with a valid token, got %d", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery())
	engine.GET("/panico", func(c *gin.Context) { panic("falha") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panico", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after a panic, got %d", rec.Code)
	}
}
