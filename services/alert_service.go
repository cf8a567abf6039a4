package services

import (
	"context"
	"fmt"
	"time"

	"sistema-contabil/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de alerta
const (
	AlertTypeUpcomingObligation = "vencimento_proximo"
	AlertTypePendingDocument    = "documento_pendente"
	AlertTypeOverdueFee         = "mensalidade_atrasada"
)

// PriorityPolicy define os limiares que derivam a prioridade de um alerta
type PriorityPolicy struct {
	ObligationHighDays int // dias restantes <= limiar: alta
	DocumentHighDays   int // dias pendente > limiar: alta
	FeeCriticalDays    int // dias de atraso > limiar: crítica
}

// DefaultPriorityPolicy retorna os limiares padrão
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{
		ObligationHighDays: 1,
		DocumentHighDays:   10,
		FeeCriticalDays:    30,
	}
}

// ObligationPriority calcula a prioridade de uma obrigação a vencer
func (p PriorityPolicy) ObligationPriority(daysRemaining int) models.Prioridade {
	if daysRemaining <= p.ObligationHighDays {
		return models.PrioridadeAlta
	}
	return models.PrioridadeMedia
}

// DocumentPriority calcula a prioridade de um documento parado
func (p PriorityPolicy) DocumentPriority(daysPending int) models.Prioridade {
	if daysPending > p.DocumentHighDays {
		return models.PrioridadeAlta
	}
	return models.PrioridadeMedia
}

// FeePriority calcula a prioridade de uma mensalidade em atraso
func (p PriorityPolicy) FeePriority(daysOverdue int) models.Prioridade {
	if daysOverdue > p.FeeCriticalDays {
		return models.PrioridadeCritica
	}
	return models.PrioridadeAlta
}

// ObligationAlert sinaliza uma obrigação pendente perto do vencimento
type ObligationAlert struct {
	Tipo               string              `json:"tipo"`
	ObrigacaoID        uint                `json:"obrigacao_id"`
	ClienteID          uint                `json:"cliente_id"`
	ClienteNome        string              `json:"cliente_nome"`
	ObrigacaoTipo      string              `json:"obrigacao_tipo"`
	ObrigacaoDescricao string              `json:"obrigacao_descricao"`
	DataVencimento     models.Date         `json:"data_vencimento"`
	DiasRestantes      int                 `json:"dias_restantes"`
	Valor              decimal.NullDecimal `json:"valor"`
	Prioridade         models.Prioridade   `json:"prioridade"`
}

// DocumentAlert sinaliza um documento pendente de processamento há muito tempo
type DocumentAlert struct {
	Tipo          string            `json:"tipo"`
	DocumentoID   uint              `json:"documento_id"`
	ClienteID     uint              `json:"cliente_id"`
	ClienteNome   string            `json:"cliente_nome"`
	NomeArquivo   string            `json:"nome_arquivo"`
	Categoria     string            `json:"categoria"`
	MesReferencia string            `json:"mes_referencia"`
	DiasPendente  int               `json:"dias_pendente"`
	DataUpload    time.Time         `json:"data_upload"`
	Prioridade    models.Prioridade `json:"prioridade"`
}

// FeeAlert sinaliza uma mensalidade vencida e não paga
type FeeAlert struct {
	Tipo           string            `json:"tipo"`
	MensalidadeID  uint              `json:"mensalidade_id"`
	ClienteID      uint              `json:"cliente_id"`
	ClienteNome    string            `json:"cliente_nome"`
	MesReferencia  string            `json:"mes_referencia"`
	Valor          decimal.Decimal   `json:"valor"`
	DataVencimento models.Date       `json:"data_vencimento"`
	DiasAtraso     int               `json:"dias_atraso"`
	Prioridade     models.Prioridade `json:"prioridade"`
}

// AlertService executa as consultas de limiar e monta os alertas
type AlertService struct {
	db     *gorm.DB
	policy PriorityPolicy
	now    func() time.Time
}

// NewAlertService cria uma nova instância de AlertService
func NewAlertService(db *gorm.DB, policy PriorityPolicy) *AlertService {
	return &AlertService{
		db:     db,
		policy: policy,
		now:    time.Now,
	}
}

// UpcomingObligations retorna as obrigações pendentes com vencimento entre hoje e hoje+days
func (s *AlertService) UpcomingObligations(ctx context.Context, days int) ([]ObligationAlert, error) {
	today := models.NewDate(s.now())
	limit := today.AddDays(days)

	var obrigacoes []models.Obrigacao
	err := s.db.WithContext(ctx).
		Preload("Cliente").
		Where("status = ? AND data_vencimento >= ? AND data_vencimento <= ?",
			models.ObrigacaoStatusPendente, today, limit).
		Order("data_vencimento ASC, id ASC").
		Find(&obrigacoes).Error
	if err != nil {
		return nil, fmt.Errorf("erro ao verificar vencimentos: %w", err)
	}

	alerts := make([]ObligationAlert, 0, len(obrigacoes))
	for _, o := range obrigacoes {
		daysRemaining := today.DaysUntil(o.DataVencimento)
		alerts = append(alerts, ObligationAlert{
			Tipo:               AlertTypeUpcomingObligation,
			ObrigacaoID:        o.ID,
			ClienteID:          o.ClienteID,
			ClienteNome:        clientName(o.Cliente),
			ObrigacaoTipo:      o.Tipo,
			ObrigacaoDescricao: o.Descricao,
			DataVencimento:     o.DataVencimento,
			DiasRestantes:      daysRemaining,
			Valor:              o.Valor,
			Prioridade:         s.policy.ObligationPriority(daysRemaining),
		})
	}
	return alerts, nil
}

// StaleDocuments retorna os documentos pendentes enviados há pelo menos days dias
func (s *AlertService) StaleDocuments(ctx context.Context, days int) ([]DocumentAlert, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -days)

	var documentos []models.Documento
	err := s.db.WithContext(ctx).
		Preload("Cliente").
		Where("status_processamento = ? AND data_upload <= ?", models.DocumentoStatusPendente, cutoff).
		Order("data_upload ASC, id ASC").
		Find(&documentos).Error
	if err != nil {
		return nil, fmt.Errorf("erro ao verificar documentos pendentes: %w", err)
	}

	alerts := make([]DocumentAlert, 0, len(documentos))
	for _, d := range documentos {
		daysPending := int(now.Sub(d.DataUpload).Hours() / 24)
		alerts = append(alerts, DocumentAlert{
			Tipo:          AlertTypePendingDocument,
			DocumentoID:   d.ID,
			ClienteID:     d.ClienteID,
			ClienteNome:   clientName(d.Cliente),
			NomeArquivo:   d.NomeArquivo,
			Categoria:     d.Categoria,
			MesReferencia: d.MesReferencia,
			DiasPendente:  daysPending,
			DataUpload:    d.DataUpload,
			Prioridade:    s.policy.DocumentPriority(daysPending),
		})
	}
	return alerts, nil
}

// OverdueFees retorna as mensalidades pendentes com vencimento anterior a hoje
func (s *AlertService) OverdueFees(ctx context.Context) ([]FeeAlert, error) {
	today := models.NewDate(s.now())

	var mensalidades []models.Mensalidade
	err := s.db.WithContext(ctx).
		Preload("Cliente").
		Where("status = ? AND data_vencimento < ?", models.MensalidadeStatusPendente, today).
		Order("data_vencimento ASC, id ASC").
		Find(&mensalidades).Error
	if err != nil {
		return nil, fmt.Errorf("erro ao verificar mensalidades atrasadas: %w", err)
	}

	alerts := make([]FeeAlert, 0, len(mensalidades))
	for _, m := range mensalidades {
		daysOverdue := m.DataVencimento.DaysUntil(today)
		alerts = append(alerts, FeeAlert{
			Tipo:           AlertTypeOverdueFee,
			MensalidadeID:  m.ID,
			ClienteID:      m.ClienteID,
			ClienteNome:    clientName(m.Cliente),
			MesReferencia:  m.MesReferencia,
			Valor:          m.Valor,
			DataVencimento: m.DataVencimento,
			DiasAtraso:     daysOverdue,
			Prioridade:     s.policy.FeePriority(daysOverdue),
		})
	}
	return alerts, nil
}

func clientName(c *models.Cliente) string {
	if c == nil {
		return ""
	}
	return c.Nome
}
