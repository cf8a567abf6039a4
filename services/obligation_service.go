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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ObrigacaoRequest representa os dados para criar uma obrigação
type ObrigacaoRequest struct {
	ClienteID      uint                `json:"cliente_id"`
	Tipo           string              `json:"tipo" validate:"max=50"`
	Descricao      string              `json:"descricao" validate:"max=255"`
	DataVencimento string              `json:"data_vencimento"`
	Valor          decimal.NullDecimal `json:"valor"`
	MesReferencia  string              `json:"mes_referencia" validate:"omitempty,len=7"`
	CodigoReceita  *string             `json:"codigo_receita" validate:"omitempty,max=20"`
	Observacoes    *string             `json:"observacoes"`
}

// ObrigacaoUpdateRequest representa uma atualização parcial de obrigação
type ObrigacaoUpdateRequest struct {
	Tipo           *string                 `json:"tipo" validate:"omitempty,max=50"`
	Descricao      *string                 `json:"descricao" validate:"omitempty,max=255"`
	DataVencimento *string                 `json:"data_vencimento"`
	Valor          decimal.NullDecimal     `json:"valor"`
	Status         *models.ObrigacaoStatus `json:"status" validate:"omitempty,oneof=pendente pago"`
	MesReferencia  *string                 `json:"mes_referencia" validate:"omitempty,len=7"`
	CodigoReceita  *string                 `json:"codigo_receita" validate:"omitempty,max=20"`
	Observacoes    *string                 `json:"observacoes"`
	DataPagamento  *string                 `json:"data_pagamento"`
}

// ObrigacaoFilter filtra a listagem de obrigações
type ObrigacaoFilter struct {
	ClienteID     *uint
	Status        string
	MesReferencia string
	DataInicio    string
	DataFim       string
}

// ObrigacaoView é uma obrigação acompanhada do nome do cliente
type ObrigacaoView struct {
	models.Obrigacao
	ClienteNome   string `json:"cliente_nome"`
	DiasRestantes *int   `json:"dias_restantes,omitempty"`
}

// ObrigacaoDashboard conta as obrigações pendentes por situação
type ObrigacaoDashboard struct {
	Pendentes     int64 `json:"pendentes"`
	Vencidas      int64 `json:"vencidas"`
	VencendoHoje  int64 `json:"vencendo_hoje"`
	Proximos7Dias int64 `json:"proximos_7_dias"`
}

// ObligationService fornece métodos para trabalhar com obrigações
type ObligationService struct {
	db        *gorm.DB
	validator *validator.Validate
	now       func() time.Time
}

// NewObligationService cria uma nova instância de ObligationService
func NewObligationService(db *gorm.DB) *ObligationService {
	return &ObligationService{
		db:        db,
		validator: newValidator(),
		now:       time.Now,
	}
}

// List retorna as obrigações filtradas, ordenadas pelo vencimento
func (s *ObligationService) List(ctx context.Context, filter ObrigacaoFilter) ([]ObrigacaoView, error) {
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
	if filter.DataInicio != "" {
		d, err := models.ParseDate(filter.DataInicio)
		if err != nil {
			return nil, ErrInvalidDate
		}
		query = query.Where("data_vencimento >= ?", d)
	}
	if filter.DataFim != "" {
		d, err := models.ParseDate(filter.DataFim)
		if err != nil {
			return nil, ErrInvalidDate
		}
		query = query.Where("data_vencimento <= ?", d)
	}

	var obrigacoes []models.Obrigacao
	if err := query.Order("data_vencimento ASC, id ASC").Find(&obrigacoes).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar obrigações: %w", err)
	}
	return toObrigacaoViews(obrigacoes, nil), nil
}

// GetByID retorna uma obrigação pelo ID
func (s *ObligationService) GetByID(ctx context.Context, id uint) (*ObrigacaoView, error) {
	obrigacao, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ObrigacaoView{Obrigacao: *obrigacao, ClienteNome: clientName(obrigacao.Cliente)}, nil
}

// Create cria uma nova obrigação
func (s *ObligationService) Create(ctx context.Context, req ObrigacaoRequest) (*models.Obrigacao, error) {
	if req.ClienteID == 0 || strings.TrimSpace(req.Tipo) == "" || strings.TrimSpace(req.Descricao) == "" ||
		req.DataVencimento == "" || req.MesReferencia == "" {
		return nil, utils.NewBadRequestError("Campos obrigatórios: cliente_id, tipo, descricao, data_vencimento, mes_referencia")
	}
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	dataVencimento, err := models.ParseDate(req.DataVencimento)
	if err != nil {
		return nil, ErrInvalidDate
	}

	if err := s.ensureClient(ctx, req.ClienteID); err != nil {
		return nil, err
	}

	obrigacao := &models.Obrigacao{
		ClienteID:      req.ClienteID,
		Tipo:           strings.TrimSpace(req.Tipo),
		Descricao:      strings.TrimSpace(req.Descricao),
		DataVencimento: dataVencimento,
		Valor:          req.Valor,
		Status:         models.ObrigacaoStatusPendente,
		MesReferencia:  req.MesReferencia,
		CodigoReceita:  req.CodigoReceita,
		Observacoes:    req.Observacoes,
	}

	if err := s.db.WithContext(ctx).Create(obrigacao).Error; err != nil {
		return nil, fmt.Errorf("erro ao criar obrigação: %w", err)
	}
	return obrigacao, nil
}

// Update atualiza os campos informados de uma obrigação
func (s *ObligationService) Update(ctx context.Context, id uint, req ObrigacaoUpdateRequest) (*models.Obrigacao, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	obrigacao, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DataVencimento != nil && *req.DataVencimento != "" {
		d, err := models.ParseDate(*req.DataVencimento)
		if err != nil {
			return nil, ErrInvalidDate
		}
		obrigacao.DataVencimento = d
	}
	if req.DataPagamento != nil && *req.DataPagamento != "" {
		d, err := models.ParseDate(*req.DataPagamento)
		if err != nil {
			return nil, ErrInvalidDate
		}
		obrigacao.DataPagamento = &d
	}
	if req.Tipo != nil {
		obrigacao.Tipo = *req.Tipo
	}
	if req.Descricao != nil {
		obrigacao.Descricao = *req.Descricao
	}
	if req.Valor.Valid {
		obrigacao.Valor = req.Valor
	}
	if req.Status != nil {
		obrigacao.Status = *req.Status
	}
	if req.MesReferencia != nil {
		obrigacao.MesReferencia = *req.MesReferencia
	}
	if req.CodigoReceita != nil {
		obrigacao.CodigoReceita = req.CodigoReceita
	}
	if req.Observacoes != nil {
		obrigacao.Observacoes = req.Observacoes
	}

	obrigacao.Cliente = nil
	if err := s.db.WithContext(ctx).Save(obrigacao).Error; err != nil {
		return nil, fmt.Errorf("erro ao atualizar obrigação: %w", err)
	}
	return obrigacao, nil
}

// Delete remove uma obrigação
func (s *ObligationService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Obrigacao{}, id)
	if result.Error != nil {
		return fmt.Errorf("erro ao remover obrigação: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrObligationNotFound
	}
	return nil
}

// Upcoming retorna as obrigações pendentes com vencimento até hoje+dias, incluindo as vencidas
func (s *ObligationService) Upcoming(ctx context.Context, dias int) ([]ObrigacaoView, error) {
	today := models.NewDate(s.now())

	var obrigacoes []models.Obrigacao
	if err := s.db.WithContext(ctx).
		Preload("Cliente").
		Where("status = ? AND data_vencimento <= ?", models.ObrigacaoStatusPendente, today.AddDays(dias)).
		Order("data_vencimento ASC, id ASC").
		Find(&obrigacoes).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar vencimentos: %w", err)
	}
	return toObrigacaoViews(obrigacoes, &today), nil
}

// Dashboard conta as obrigações pendentes, vencidas, vencendo hoje e nos próximos 7 dias
func (s *ObligationService) Dashboard(ctx context.Context) (*ObrigacaoDashboard, error) {
	today := models.NewDate(s.now())
	pending := s.db.WithContext(ctx).Model(&models.Obrigacao{}).Where("status = ?", models.ObrigacaoStatusPendente)

	dashboard := &ObrigacaoDashboard{}
	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&dashboard.Pendentes, pending.Session(&gorm.Session{})},
		{&dashboard.Vencidas, pending.Session(&gorm.Session{}).Where("data_vencimento < ?", today)},
		{&dashboard.VencendoHoje, pending.Session(&gorm.Session{}).Where("data_vencimento = ?", today)},
		{&dashboard.Proximos7Dias, pending.Session(&gorm.Session{}).
			Where("data_vencimento > ? AND data_vencimento <= ?", today, today.AddDays(7))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("erro ao contar obrigações: %w", err)
		}
	}
	return dashboard, nil
}

func (s *ObligationService) find(ctx context.Context, id uint) (*models.Obrigacao, error) {
	var obrigacao models.Obrigacao
	if err := s.db.WithContext(ctx).Preload("Cliente").First(&obrigacao, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObligationNotFound
		}
		return nil, fmt.Errorf("erro ao buscar obrigação: %w", err)
	}
	return &obrigacao, nil
}

func (s *ObligationService) ensureClient(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Cliente{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("erro ao buscar cliente: %w", err)
	}
	if count == 0 {
		return ErrClientNotFound
	}
	return nil
}

func toObrigacaoViews(obrigacoes []models.Obrigacao, today *models.Date) []ObrigacaoView {
	views := make([]ObrigacaoView, 0, len(obrigacoes))
	for _, o := range obrigacoes {
		view := ObrigacaoView{Obrigacao: o, ClienteNome: clientName(o.Cliente)}
		if today != nil {
			dias := today.DaysUntil(o.DataVencimento)
			view.DiasRestantes = &dias
		}
		views = append(views, view)
	}
	return views
}
