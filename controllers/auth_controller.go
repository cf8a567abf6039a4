package controllers

import (
	"encoding/json"
	"net/http"

	"sistema-contabil/middleware"
	"sistema-contabil/services"
	"sistema-contabil/utils"
)

// AuthController cadastra e autentica operadores
type AuthController struct {
	operators *services.OperatorService
}

// NewAuthController cria um novo AuthController
func NewAuthController(operators *services.OperatorService) *AuthController {
	return &AuthController{operators: operators}
}

// OperadorResponse é o operador devolvido no cadastro
type OperadorResponse struct {
	ID    uint   `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

// AuthResponse reúne o token e os dados do operador
type AuthResponse struct {
	Token    services.Token   `json:"token"`
	Operador OperadorResponse `json:"operador"`
}

// Registrar cadastra um operador e já devolve um token
func (c *AuthController) Registrar(w http.ResponseWriter, r *http.Request) {
	var req services.RegistroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, errInvalidBody)
		return
	}

	operador, err := c.operators.Register(r.Context(), req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	token, err := c.operators.GenerateToken(operador.ID, operador.Email)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, AuthResponse{
		Token: *token,
		Operador: OperadorResponse{
			ID:    operador.ID,
			Nome:  operador.Nome,
			Email: operador.Email,
		},
	})
}

// Entrar valida as credenciais e devolve um token
func (c *AuthController) Entrar(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, errInvalidBody)
		return
	}

	token, err := c.operators.Login(r.Context(), req)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, token)
}

// Configurar2FA gera o segredo TOTP do operador autenticado
func (c *AuthController) Configurar2FA(w http.ResponseWriter, r *http.Request) {
	operadorID, _, err := middleware.OperatorFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, utils.NewUnauthorizedError("Não autenticado"))
		return
	}

	setup, err := c.operators.Setup2FA(r.Context(), operadorID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, setup)
}
