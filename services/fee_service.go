package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MensalidadeRequest representa os dados para criar uma mensalidade
type MensalidadeRequest struct {
	ClienteID      uint            `json:"cliente_id" validate:"required"`
	MesReferencia  string          `json:"mes_referencia" validate:"required,len=7"`
	Valor          decimal.Decimal `json:"valor"`
	DataVencimento string          `json:"data_vencimento" validate:"required"`
	FormaPagamento *string         `json:"forma_pagamento" validate:"omitempty,max=50"`
	Observacoes    *string         `json:"observacoes"`
}

// MensalidadeUpdateRequest representa uma atualização parcial de mensalidade
type MensalidadeUpdateRequest struct {
	MesReferencia  *string                   `json:"mes_referencia" validate:"omitempty,len=7"`
	Valor          decimal.NullDecimal       `json:"valor"`
	DataVencimento *string                   `json:"data_vencimento"`
	Status         *models.MensalidadeStatus `json:"status" validate:"omitempty,oneof=pendente pago vencido cancelado"`
	DataPagamento  *string                   `json:"data_pagamento"`
	FormaPagamento *string                   `json:"forma_pagamento" validate:"omitempty,max=50"`
	Observacoes    *string                   `json:"observacoes"`
}

// PagamentoRequest registra o pagamento de uma mensalidade
type PagamentoRequest struct {
	DataPagamento  string  `json:"data_pagamento"`
	FormaPagamento *string `json:"forma_pagamento" validate:"omitempty,max=50"`
}

// MensalidadeFilter filtra a listagem de mensalidades
type MensalidadeFilter struct {
	ClienteID     *uint
	Status        string
	MesReferencia string
}

// MensalidadeView é uma mensalidade acompanhada do nome do cliente
type MensalidadeView struct {
	models.Mensalidade
	ClienteNome string `json:"cliente_nome"`
}

// FeeService fornece métodos para trabalhar com mensalidades
type FeeService struct {
	db        *gorm.DB
	validator *validator.Validate
	now       func() time.Time
}

// NewFeeService cria uma nova instância de FeeService
func NewFeeService(db *gorm.DB) *FeeService {
	return &FeeService{
		db:        db,
		validator: newValidator(),
		now:       time.Now,
	}
}

// List retorna as mensalidades filtradas, das mais recentes para as mais antigas
func (s *FeeService) List(ctx context.Context, filter MensalidadeFilter) ([]MensalidadeView, error) {
	query := s.db.WithContext(ctx).Preload("Cliente")
	if filter.ClienteID != nil {
		query = query.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MesReferencia != "" {
		query = query.Where("mes_referencia = ?", filter.MesReferencia)
	}

	var mensalidades []models.Mensalidade
	if err := query.Order("data_vencimento DESC, id DESC").Find(&mensalidades).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar mensalidades: %w", err)
	}

	views := make([]MensalidadeView, 0, len(mensalidades))
	for _, m := range mensalidades {
		views = append(views, MensalidadeView{Mensalidade: m, ClienteNome: clientName(m.Cliente)})
	}
	return views, nil
}

// GetByID retorna uma mensalidade pelo ID
func (s *FeeService) GetByID(ctx context.Context, id uint) (*models.Mensalidade, error) {
	var mensalidade models.Mensalidade
	if err := s.db.WithContext(ctx).First(&mensalidade, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeNotFound
		}
		return nil, fmt.Errorf("erro ao buscar mensalidade: %w", err)
	}
	return &mensalidade, nil
}

// Create cria uma nova mensalidade pendente
func (s *FeeService) Create(ctx context.Context, req MensalidadeRequest) (*models.Mensalidade, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}
	if !req.Valor.IsPositive() {
		return nil, utils.NewBadRequestError("valor deve ser maior que zero")
	}

	dataVencimento, err := models.ParseDate(req.DataVencimento)
	if err != nil {
		return nil, ErrInvalidDate
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Cliente{}).Where("id = ?", req.ClienteID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar cliente: %w", err)
	}
	if count == 0 {
		return nil, ErrClientNotFound
	}

	mensalidade := &models.Mensalidade{
		ClienteID:      req.ClienteID,
		MesReferencia:  req.MesReferencia,
		Valor:          req.Valor,
		DataVencimento: dataVencimento,
		Status:         models.MensalidadeStatusPendente,
		FormaPagamento: req.FormaPagamento,
		Observacoes:    req.Observacoes,
	}
	if err := s.db.WithContext(ctx).Create(mensalidade).Error; err != nil {
		return nil, fmt.Errorf("erro ao criar mensalidade: %w", err)
	}
	return mensalidade, nil
}

// Update atualiza os campos informados de uma mensalidade
func (s *FeeService) Update(ctx context.Context, id uint, req MensalidadeUpdateRequest) (*models.Mensalidade, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	mensalidade, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DataVencimento != nil && *req.DataVencimento != "" {
		d, err := models.ParseDate(*req.DataVencimento)
		if err != nil {
			return nil, ErrInvalidDate
		}
		mensalidade.DataVencimento = d
	}
	if req.DataPagamento != nil && *req.DataPagamento != "" {
		d, err := models.ParseDate(*req.DataPagamento)
		if err != nil {
			return nil, ErrInvalidDate
		}
		mensalidade.DataPagamento = &d
	}
	if req.MesReferencia != nil {
		mensalidade.MesReferencia = *req.MesReferencia
	}
	if req.Valor.Valid {
		if !req.Valor.Decimal.IsPositive() {
			return nil, utils.NewBadRequestError("valor deve ser maior que zero")
		}
		mensalidade.Valor = req.Valor.Decimal
	}
	if req.Status != nil {
		mensalidade.Status = *req.Status
	}
	if req.FormaPagamento != nil {
		mensalidade.FormaPagamento = req.FormaPagamento
	}
	if req.Observacoes != nil {
		mensalidade.Observacoes = req.Observacoes
	}

	if err := s.db.WithContext(ctx).Save(mensalidade).Error; err != nil {
		return nil, fmt.Errorf("erro ao atualizar mensalidade: %w", err)
	}
	return mensalidade, nil
}

// Pay marca a mensalidade como paga. Sem data informada, usa a data de hoje.
func (s *FeeService) Pay(ctx context.Context, id uint, req PagamentoRequest) (*models.Mensalidade, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	mensalidade, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mensalidade.Status == models.MensalidadeStatusPago {
		return nil, utils.NewConflictError("Mensalidade já está paga")
	}

	dataPagamento := models.NewDate(s.now())
	if req.DataPagamento != "" {
		if dataPagamento, err = models.ParseDate(req.DataPagamento); err != nil {
			return nil, ErrInvalidDate
		}
	}

	mensalidade.Status = models.MensalidadeStatusPago
	mensalidade.DataPagamento = &dataPagamento
	if req.FormaPagamento != nil {
		mensalidade.FormaPagamento = req.FormaPagamento
	}

	if err := s.db.WithContext(ctx).Save(mensalidade).Error; err != nil {
		return nil, fmt.Errorf("erro ao registrar pagamento: %w", err)
	}
	utils.LogInfo("Mensalidade %d do cliente %d paga em %s", mensalidade.ID, mensalidade.ClienteID, dataPagamento)
	return mensalidade, nil
}

// Delete remove uma mensalidade
func (s *FeeService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Mensalidade{}, id)
	if result.Error != nil {
		return fmt.Errorf("erro ao remover mensalidade: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFeeNotFound
	}
	return nil
}
