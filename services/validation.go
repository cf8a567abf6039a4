package services

import (
	"errors"
	"reflect"
	"strings"

	"sistema-contabil/utils"

	"github.com/go-playground/validator/v10"
)

// newValidator cria o validador usado pelos DTOs, com nomes de campo vindos da tag json
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateDTO valida o DTO e converte os erros em uma mensagem 400
func validateDTO(v *validator.Validate, dto interface{}) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return utils.NewBadRequestError(err.Error())
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "campo "+e.Field()+" é obrigatório")
		case "min":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ter no mínimo "+e.Param()+" caracteres")
		case "max":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ter no máximo "+e.Param()+" caracteres")
		case "email":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser um email válido")
		case "oneof":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser um de: "+e.Param())
		case "gt", "gte":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser maior que "+e.Param())
		case "datetime":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve estar no formato "+e.Param())
		default:
			errorMessages = append(errorMessages, "campo "+e.Field()+" é inválido")
		}
	}
	return utils.NewBadRequestError(strings.Join(errorMessages, "; "))
}
