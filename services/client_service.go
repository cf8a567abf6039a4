package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sistema-contabil/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ClienteRequest representa os dados para criar um cliente
type ClienteRequest struct {
	Nome             string  `json:"nome" validate:"required,min=2,max=200"`
	CNPJ             string  `json:"cnpj" validate:"required,min=11,max=18"`
	RegimeTributario string  `json:"regime_tributario" validate:"required,max=50"`
	ResponsavelLegal string  `json:"responsavel_legal" validate:"required,max=200"`
	Email            string  `json:"email" validate:"required,email,max=120"`
	Telefone         *string `json:"telefone" validate:"omitempty,max=20"`
	Endereco         *string `json:"endereco"`
	Ativo            *bool   `json:"ativo"`
}

// ClienteUpdateRequest representa uma atualização parcial de cliente
type ClienteUpdateRequest struct {
	Nome             *string `json:"nome" validate:"omitempty,min=2,max=200"`
	CNPJ             *string `json:"cnpj" validate:"omitempty,min=11,max=18"`
	RegimeTributario *string `json:"regime_tributario" validate:"omitempty,max=50"`
	ResponsavelLegal *string `json:"responsavel_legal" validate:"omitempty,max=200"`
	Email            *string `json:"email" validate:"omitempty,email,max=120"`
	Telefone         *string `json:"telefone" validate:"omitempty,max=20"`
	Endereco         *string `json:"endereco"`
	Ativo            *bool   `json:"ativo"`
}

// ClienteFilter filtra a listagem de clientes
type ClienteFilter struct {
	Ativo *bool
	Busca string
}

// ClientService fornece métodos para trabalhar com clientes
type ClientService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewClientService cria uma nova instância de ClientService
func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{
		db:        db,
		validator: newValidator(),
	}
}

// List retorna os clientes ordenados por nome
func (s *ClientService) List(ctx context.Context, filter ClienteFilter) ([]models.Cliente, error) {
	query := s.db.WithContext(ctx).Model(&models.Cliente{})
	if filter.Ativo != nil {
		query = query.Where("ativo = ?", *filter.Ativo)
	}
	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		like := "%" + strings.ToLower(busca) + "%"
		query = query.Where("LOWER(nome) LIKE ? OR cnpj LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	clientes := []models.Cliente{}
	if err := query.Order("nome ASC").Find(&clientes).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar clientes: %w", err)
	}
	return clientes, nil
}

// GetByID retorna um cliente pelo ID
func (s *ClientService) GetByID(ctx context.Context, id uint) (*models.Cliente, error) {
	var cliente models.Cliente
	if err := s.db.WithContext(ctx).First(&cliente, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("erro ao buscar cliente: %w", err)
	}
	return &cliente, nil
}

// Create cria um novo cliente
func (s *ClientService) Create(ctx context.Context, req ClienteRequest) (*models.Cliente, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	cnpj := strings.TrimSpace(req.CNPJ)
	if err := s.ensureUniqueCNPJ(ctx, cnpj, 0); err != nil {
		return nil, err
	}

	cliente := &models.Cliente{
		Nome:             strings.TrimSpace(req.Nome),
		CNPJ:             cnpj,
		RegimeTributario: req.RegimeTributario,
		ResponsavelLegal: req.ResponsavelLegal,
		Email:            strings.TrimSpace(req.Email),
		Telefone:         req.Telefone,
		Endereco:         req.Endereco,
		Ativo:            true,
	}
	if req.Ativo != nil {
		cliente.Ativo = *req.Ativo
	}

	if err := s.db.WithContext(ctx).Create(cliente).Error; err != nil {
		return nil, fmt.Errorf("erro ao criar cliente: %w", err)
	}
	return cliente, nil
}

// Update atualiza os campos informados de um cliente
func (s *ClientService) Update(ctx context.Context, id uint, req ClienteUpdateRequest) (*models.Cliente, error) {
	if err := validateDTO(s.validator, req); err != nil {
		return nil, err
	}

	cliente, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CNPJ != nil && strings.TrimSpace(*req.CNPJ) != cliente.CNPJ {
		cnpj := strings.TrimSpace(*req.CNPJ)
		if err := s.ensureUniqueCNPJ(ctx, cnpj, cliente.ID); err != nil {
			return nil, err
		}
		cliente.CNPJ = cnpj
	}
	if req.Nome != nil {
		cliente.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.RegimeTributario != nil {
		cliente.RegimeTributario = *req.RegimeTributario
	}
	if req.ResponsavelLegal != nil {
		cliente.ResponsavelLegal = *req.ResponsavelLegal
	}
	if req.Email != nil {
		cliente.Email = strings.TrimSpace(*req.Email)
	}
	if req.Telefone != nil {
		cliente.Telefone = req.Telefone
	}
	if req.Endereco != nil {
		cliente.Endereco = req.Endereco
	}
	if req.Ativo != nil {
		cliente.Ativo = *req.Ativo
	}

	if err := s.db.WithContext(ctx).Save(cliente).Error; err != nil {
		return nil, fmt.Errorf("erro ao atualizar cliente: %w", err)
	}
	return cliente, nil
}

// Delete remove o cliente e todos os registros vinculados a ele
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	// Começa a transação
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", tx.Error)
	}

	for _, child := range []interface{}{&models.Obrigacao{}, &models.Documento{}, &models.Mensalidade{}} {
		if err := tx.Where("cliente_id = ?", id).Delete(child).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("erro ao remover registros do cliente: %w", err)
		}
	}
	if err := tx.Model(&models.Notificacao{}).Where("cliente_id = ?", id).Update("cliente_id", nil).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("erro ao desvincular notificações: %w", err)
	}
	if err := tx.Delete(&models.Cliente{}, id).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("erro ao remover cliente: %w", err)
	}

	// Confirma a transação
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("erro ao confirmar transação: %w", err)
	}
	return nil
}

func (s *ClientService) ensureUniqueCNPJ(ctx context.Context, cnpj string, exceptID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Cliente{}).
		Where("cnpj = ? AND id <> ?", cnpj, exceptID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("erro ao verificar CNPJ: %w", err)
	}
	if count > 0 {
		return ErrDuplicateCNPJ
	}
	return nil
}
