package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"sistema-contabil/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
)

const testJWTKey = "chave-de-teste"

func newTestOperatorService(t *testing.T) *OperatorService {
	t.Helper()
	service := NewOperatorService(newTestDB(t), testJWTKey, 24*time.Hour)
	_, err := service.Register(context.Background(), RegistroRequest{
		Nome:  "Ana Operadora",
		Email: "Ana@Escritorio.com ",
		Senha: "senha-forte-123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return service
}

func TestOperatorRegister(t *testing.T) {
	service := newTestOperatorService(t)
	ctx := context.Background()

	operador, err := service.FindByEmail(ctx, "ana@escritorio.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if operador.Email != "ana@escritorio.com" {
		t.Errorf("expected normalized email, got %q", operador.Email)
	}
	if operador.SenhaHash == "senha-forte-123" {
		t.Error("password stored in plain text")
	}

	_, err = service.Register(ctx, RegistroRequest{Nome: "Outra", Email: "ana@escritorio.com", Senha: "outra-senha-123"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	_, err = service.Register(ctx, RegistroRequest{Nome: "Curta", Email: "curta@escritorio.com", Senha: "123"})
	if utils.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for a short password, got %v", err)
	}
}

func TestOperatorLoginIssuesToken(t *testing.T) {
	service := newTestOperatorService(t)

	token, err := service.Login(context.Background(), LoginRequest{Email: " Ana@Escritorio.com", Senha: "senha-forte-123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token.Token, claims, func(tk *jwt.Token) (interface{}, error) {
		return []byte(testJWTKey), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims["email"] != "ana@escritorio.com" {
		t.Errorf("unexpected email claim: %v", claims["email"])
	}
	if uint(claims["operador_id"].(float64)) != token.OperadorID {
		t.Errorf("unexpected operador_id claim: %v", claims["operador_id"])
	}
}

func TestOperatorLoginWrongPassword(t *testing.T) {
	service := newTestOperatorService(t)
	ctx := context.Background()

	if _, err := service.Login(ctx, LoginRequest{Email: "ana@escritorio.com", Senha: "errada"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(ctx, LoginRequest{Email: "ninguem@escritorio.com", Senha: "qualquer"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for an unknown email, got %v", err)
	}
}

func TestOperatorTwoFactor(t *testing.T) {
	service := newTestOperatorService(t)
	ctx := context.Background()

	operador, err := service.FindByEmail(ctx, "ana@escritorio.com")
	if err != nil {
		t.Fatal(err)
	}
	setup, err := service.Setup2FA(ctx, operador.ID)
	if err != nil {
		t.Fatalf("Setup2FA returned error: %v", err)
	}
	if setup.Secret == "" || setup.URL == "" {
		t.Fatalf("unexpected setup: %+v", setup)
	}

	_, err = service.Login(ctx, LoginRequest{Email: "ana@escritorio.com", Senha: "senha-forte-123"})
	if !errors.Is(err, ErrInvalidTOTP) {
		t.Errorf("expected ErrInvalidTOTP without a code, got %v", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.Login(ctx, LoginRequest{Email: "ana@escritorio.com", Senha: "senha-forte-123", Codigo: code}); err != nil {
		t.Errorf("expected login with a valid code, got %v", err)
	}
}
