package services

import "sistema-contabil/utils"

// Erros de domínio com o status HTTP correspondente
var (
	ErrClientNotFound       = utils.NewNotFoundError("Cliente não encontrado")
	ErrObligationNotFound   = utils.NewNotFoundError("Obrigação não encontrada")
	ErrFeeNotFound          = utils.NewNotFoundError("Mensalidade não encontrada")
	ErrDocumentNotFound     = utils.NewNotFoundError("Documento não encontrado")
	ErrNotificationNotFound = utils.NewNotFoundError("Notificação não encontrada")
	ErrDuplicateCNPJ        = utils.NewConflictError("Já existe um cliente com este CNPJ")
	ErrDuplicateEmail       = utils.NewConflictError("Já existe um operador com este email")
	ErrInvalidCredentials   = utils.NewUnauthorizedError("Email ou senha inválidos")
	ErrInvalidTOTP          = utils.NewUnauthorizedError("Código de verificação inválido")
	ErrInvalidDate          = utils.NewBadRequestError("Formato de data inválido. Use YYYY-MM-DD")
)
