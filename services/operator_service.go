package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"
)

// totpIssuer aparece no aplicativo autenticador do operador
const totpIssuer = "Sistema Contábil"

// RegistroRequest representa os dados de cadastro de um operador
type RegistroRequest struct {
	Nome  string `json:"nome" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=100"`
	Senha string `json:"senha" validate:"required,min=8,max=72"`
}

// LoginRequest representa as credenciais de um operador
type LoginRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Senha  string `json:"senha" validate:"required"`
	Codigo string `json:"codigo" validate:"omitempty,len=6,numeric"`
}

// Token é o JWT emitido para um operador
type Token struct {
	Token      string    `json:"token"`
	Email      string    `json:"email"`
	OperadorID uint      `json:"operador_id"`
	ExpiraEm   time.Time `json:"expira_em"`
}

// TwoFactorSetup contém o segredo TOTP recém gerado
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// OperatorService cadastra e autentica os operadores do escritório
type OperatorService struct {
	db        *gorm.DB
	validator *validator.Validate
	jwtKey    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewOperatorService cria uma nova instância de OperatorService. expiresIn é o tempo de vida do token.
func NewOperatorService(db *gorm.DB, jwtKey string, expiresIn time.Duration) *OperatorService {
	return &OperatorService{
		db:        db,
		validator: newValidator(),
		jwtKey:    []byte(jwtKey),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// Register cria um novo operador com a senha protegida por bcrypt
func (s *OperatorService) Register(ctx context.Context, req RegistroRequest) (*models.Operador, error) {
	req.Nome = strings.TrimSpace(req.Nome)
	req.Email = normalizeEmail(req.Email)
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	// Verifica se já existe operador com este email
	if _, err := s.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Senha)
	if err != nil {
		return nil, err
	}

	operador := &models.Operador{
		Nome:      req.Nome,
		Email:     req.Email,
		SenhaHash: hashedPassword,
		Ativo:     true,
	}
	if err := s.db.WithContext(ctx).Create(operador).Error; err != nil {
		return nil, fmt.Errorf("erro ao criar operador: %w", err)
	}

	utils.LogInfo("Operador %d cadastrado", operador.ID)
	return operador, nil
}

// Login valida as credenciais e, se ativo, o segundo fator, e emite um JWT
func (s *OperatorService) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	req.Email = normalizeEmail(req.Email)
	req.Codigo = strings.TrimSpace(req.Codigo)
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	operador, err := s.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !operador.Ativo {
		return nil, ErrInvalidCredentials
	}

	if !utils.VerifyPassword(req.Senha, operador.SenhaHash) {
		return nil, ErrInvalidCredentials
	}

	if operador.TOTPEnabled() && !totp.Validate(req.Codigo, *operador.TOTPSecret) {
		return nil, ErrInvalidTOTP
	}

	return s.GenerateToken(operador.ID, operador.Email)
}

// Setup2FA gera um novo segredo TOTP para o operador e retorna a URL otpauth
func (s *OperatorService) Setup2FA(ctx context.Context, operadorID uint) (*TwoFactorSetup, error) {
	var operador models.Operador
	if err := s.db.WithContext(ctx).First(&operador, operadorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Operador não encontrado")
		}
		return nil, fmt.Errorf("erro ao buscar operador: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: operador.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar segredo TOTP: %w", err)
	}

	secret := key.Secret()
	if err := s.db.WithContext(ctx).Model(&operador).Update("totp_secret", secret).Error; err != nil {
		return nil, fmt.Errorf("erro ao salvar segredo TOTP: %w", err)
	}

	return &TwoFactorSetup{Secret: secret, URL: key.URL()}, nil
}

// FindByEmail busca um operador pelo email, ignorando maiúsculas e espaços
func (s *OperatorService) FindByEmail(ctx context.Context, email string) (*models.Operador, error) {
	var operador models.Operador
	if err := s.db.WithContext(ctx).Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&operador).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("erro ao buscar operador: %w", err)
	}
	return &operador, nil
}

// GenerateToken cria um JWT HS256 com as claims operador_id e email
func (s *OperatorService) GenerateToken(operadorID uint, email string) (*Token, error) {
	expirationTime := s.now().Add(s.expiresIn)
	claims := jwt.MapClaims{
		"operador_id": operadorID,
		"email":       email,
		"iat":         s.now().Unix(),
		"exp":         expirationTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar token: %w", err)
	}

	return &Token{
		Token:      tokenString,
		Email:      email,
		OperadorID: operadorID,
		ExpiraEm:   expirationTime,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
