package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sistema-contabil/models"

	"gorm.io/gorm"
)

// NotificacaoFilter filtra a listagem de notificações
type NotificacaoFilter struct {
	ClienteID *uint
	Status    string
}

// NotificationService fornece métodos para consultar notificações
type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationService cria uma nova instância de NotificationService
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

// List retorna as notificações filtradas, das mais recentes para as mais antigas
func (s *NotificationService) List(ctx context.Context, filter NotificacaoFilter) ([]models.Notificacao, error) {
	query := s.db.WithContext(ctx).Model(&models.Notificacao{})
	if filter.ClienteID != nil {
		query = query.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	notificacoes := []models.Notificacao{}
	if err := query.Order("data_criacao DESC, id DESC").Find(&notificacoes).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar notificações: %w", err)
	}
	return notificacoes, nil
}

// MarkRead marca a notificação como lida
func (s *NotificationService) MarkRead(ctx context.Context, id uint) (*models.Notificacao, error) {
	var notificacao models.Notificacao
	if err := s.db.WithContext(ctx).First(&notificacao, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("erro ao buscar notificação: %w", err)
	}

	now := s.now().UTC()
	notificacao.Status = models.NotificacaoStatusLido
	notificacao.DataLeitura = &now
	if err := s.db.WithContext(ctx).Save(&notificacao).Error; err != nil {
		return nil, fmt.Errorf("erro ao atualizar notificação: %w", err)
	}
	return &notificacao, nil
}
