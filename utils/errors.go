package utils

import (
	"encoding/json"
	"errors"
	"net/http"
)

// AppError representa um erro com o status HTTP correspondente
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewBadRequestError cria um erro 400
func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

// NewUnauthorizedError cria um erro 401
func NewUnauthorizedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message}
}

// NewNotFoundError cria um erro 404
func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

// NewConflictError cria um erro 409
func NewConflictError(message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message}
}

// StatusOf retorna o status HTTP de err, 500 quando não for um AppError
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// RespondJSON escreve payload como JSON com o status informado
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		LogError("erro ao codificar resposta: %v", err)
	}
}

// RespondError escreve {"erro": mensagem} com o status derivado de err
func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, StatusOf(err), map[string]string{"erro": err.Error()})
}
