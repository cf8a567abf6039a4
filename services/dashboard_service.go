package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sistema-contabil/models"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// staleUploadDays é a idade a partir da qual um documento pendente vira alerta no painel
const staleUploadDays = 3

// ResumoDashboard traz os contadores gerais do escritório
type ResumoDashboard struct {
	Clientes struct {
		Total int64 `json:"total"`
	} `json:"clientes"`
	Obrigacoes struct {
		Pendentes    int64 `json:"pendentes"`
		Vencidas     int64 `json:"vencidas"`
		VencendoHoje int64 `json:"vencendo_hoje"`
	} `json:"obrigacoes"`
	Documentos struct {
		PendentesProcessamento int64 `json:"pendentes_processamento"`
	} `json:"documentos"`
	Mensalidades struct {
		Atrasadas int64 `json:"atrasadas"`
	} `json:"mensalidades"`
	Notificacoes struct {
		NaoLidas int64 `json:"nao_lidas"`
	} `json:"notificacoes"`
}

// Tarefa é uma obrigação ou mensalidade com vencimento hoje
type Tarefa struct {
	Tipo           string            `json:"tipo"`
	ID             uint              `json:"id"`
	Titulo         string            `json:"titulo"`
	Descricao      string            `json:"descricao"`
	Prioridade     models.Prioridade `json:"prioridade"`
	DataVencimento models.Date       `json:"data_vencimento"`
	ClienteNome    string            `json:"cliente_nome"`
	Valor          *decimal.Decimal  `json:"valor,omitempty"`
}

// Vencimento é uma obrigação ou mensalidade com vencimento próximo
type Vencimento struct {
	Tipo           string              `json:"tipo"`
	ID             uint                `json:"id"`
	Titulo         string              `json:"titulo"`
	DataVencimento models.Date         `json:"data_vencimento"`
	DiasRestantes  int                 `json:"dias_restantes"`
	ClienteNome    string              `json:"cliente_nome"`
	Valor          decimal.NullDecimal `json:"valor"`
}

// EstatisticasMensais resume o cumprimento das obrigações, documentos e mensalidades do mês
type EstatisticasMensais struct {
	Obrigacoes struct {
		Total           int64   `json:"total"`
		Pagas           int64   `json:"pagas"`
		Pendentes       int64   `json:"pendentes"`
		Vencidas        int64   `json:"vencidas"`
		TaxaCumprimento float64 `json:"taxa_cumprimento"`
	} `json:"obrigacoes"`
	Documentos struct {
		Total             int64   `json:"total"`
		Processados       int64   `json:"processados"`
		TaxaProcessamento float64 `json:"taxa_processamento"`
	} `json:"documentos"`
	Mensalidades struct {
		Total           int64           `json:"total"`
		Pagas           int64           `json:"pagas"`
		ValorTotal      decimal.Decimal `json:"valor_total"`
		ValorRecebido   decimal.Decimal `json:"valor_recebido"`
		TaxaRecebimento float64         `json:"taxa_recebimento"`
	} `json:"mensalidades"`
}

// AlertaPainel é um aviso exibido no topo do painel
type AlertaPainel struct {
	Tipo     string `json:"tipo"`
	Titulo   string `json:"titulo"`
	Mensagem string `json:"mensagem"`
	Acao     string `json:"acao"`
}

// DashboardService monta as visões do painel principal
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService cria uma nova instância de DashboardService
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// Resumo conta clientes ativos, obrigações, documentos, mensalidades e notificações pendentes
func (s *DashboardService) Resumo(ctx context.Context) (*ResumoDashboard, error) {
	today := models.NewDate(s.now())
	db := s.db.WithContext(ctx)
	resumo := &ResumoDashboard{}

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&resumo.Clientes.Total, db.Model(&models.Cliente{}).Where("ativo = ?", true)},
		{&resumo.Obrigacoes.Pendentes, db.Model(&models.Obrigacao{}).Where("status = ?", models.ObrigacaoStatusPendente)},
		{&resumo.Obrigacoes.Vencidas, db.Model(&models.Obrigacao{}).
			Where("status = ? AND data_vencimento < ?", models.ObrigacaoStatusPendente, today)},
		{&resumo.Obrigacoes.VencendoHoje, db.Model(&models.Obrigacao{}).
			Where("status = ? AND data_vencimento = ?", models.ObrigacaoStatusPendente, today)},
		{&resumo.Documentos.PendentesProcessamento, db.Model(&models.Documento{}).
			Where("status_processamento = ?", models.DocumentoStatusPendente)},
		{&resumo.Mensalidades.Atrasadas, db.Model(&models.Mensalidade{}).
			Where("status = ? AND data_vencimento < ?", models.MensalidadeStatusPendente, today)},
		{&resumo.Notificacoes.NaoLidas, db.Model(&models.Notificacao{}).
			Where("status = ?", models.NotificacaoStatusPendente)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("erro ao montar resumo: %w", err)
		}
	}
	return resumo, nil
}

// TarefasHoje lista as obrigações e mensalidades pendentes que vencem hoje, obrigações primeiro
func (s *DashboardService) TarefasHoje(ctx context.Context) ([]Tarefa, error) {
	today := models.NewDate(s.now())

	var obrigacoes []models.Obrigacao
	if err := s.db.WithContext(ctx).Preload("Cliente").
		Where("status = ? AND data_vencimento = ?", models.ObrigacaoStatusPendente, today).
		Order("id ASC").
		Find(&obrigacoes).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar obrigações do dia: %w", err)
	}

	var mensalidades []models.Mensalidade
	if err := s.db.WithContext(ctx).Preload("Cliente").
		Where("status = ? AND data_vencimento = ?", models.MensalidadeStatusPendente, today).
		Order("id ASC").
		Find(&mensalidades).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar mensalidades do dia: %w", err)
	}

	tarefas := make([]Tarefa, 0, len(obrigacoes)+len(mensalidades))
	for _, o := range obrigacoes {
		nome := clientName(o.Cliente)
		tarefas = append(tarefas, Tarefa{
			Tipo:           "obrigacao",
			ID:             o.ID,
			Titulo:         fmt.Sprintf("%s - %s", o.Tipo, nome),
			Descricao:      o.Descricao,
			Prioridade:     models.PrioridadeAlta,
			DataVencimento: o.DataVencimento,
			ClienteNome:    nome,
		})
	}
	for _, m := range mensalidades {
		nome := clientName(m.Cliente)
		valor := m.Valor
		tarefas = append(tarefas, Tarefa{
			Tipo:           "mensalidade",
			ID:             m.ID,
			Titulo:         fmt.Sprintf("Mensalidade - %s", nome),
			Descricao:      fmt.Sprintf("Mensalidade referente a %s", m.MesReferencia),
			Prioridade:     models.PrioridadeMedia,
			DataVencimento: m.DataVencimento,
			ClienteNome:    nome,
			Valor:          &valor,
		})
	}

	sort.SliceStable(tarefas, func(i, j int) bool {
		return priorityRank(tarefas[i].Prioridade) < priorityRank(tarefas[j].Prioridade)
	})
	return tarefas, nil
}

// VencimentosProximos lista obrigações e mensalidades pendentes que vencem em (hoje, hoje+dias]
func (s *DashboardService) VencimentosProximos(ctx context.Context, dias int) ([]Vencimento, error) {
	today := models.NewDate(s.now())
	limit := today.AddDays(dias)

	var obrigacoes []models.Obrigacao
	if err := s.db.WithContext(ctx).Preload("Cliente").
		Where("status = ? AND data_vencimento > ? AND data_vencimento <= ?", models.ObrigacaoStatusPendente, today, limit).
		Order("data_vencimento ASC, id ASC").
		Find(&obrigacoes).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar obrigações próximas: %w", err)
	}

	var mensalidades []models.Mensalidade
	if err := s.db.WithContext(ctx).Preload("Cliente").
		Where("status = ? AND data_vencimento > ? AND data_vencimento <= ?", models.MensalidadeStatusPendente, today, limit).
		Order("data_vencimento ASC, id ASC").
		Find(&mensalidades).Error; err != nil {
		return nil, fmt.Errorf("erro ao buscar mensalidades próximas: %w", err)
	}

	vencimentos := make([]Vencimento, 0, len(obrigacoes)+len(mensalidades))
	for _, o := range obrigacoes {
		nome := clientName(o.Cliente)
		vencimentos = append(vencimentos, Vencimento{
			Tipo:           "obrigacao",
			ID:             o.ID,
			Titulo:         fmt.Sprintf("%s - %s", o.Tipo, nome),
			DataVencimento: o.DataVencimento,
			DiasRestantes:  today.DaysUntil(o.DataVencimento),
			ClienteNome:    nome,
			Valor:          o.Valor,
		})
	}
	for _, m := range mensalidades {
		nome := clientName(m.Cliente)
		vencimentos = append(vencimentos, Vencimento{
			Tipo:           "mensalidade",
			ID:             m.ID,
			Titulo:         fmt.Sprintf("Mensalidade - %s", nome),
			DataVencimento: m.DataVencimento,
			DiasRestantes:  today.DaysUntil(m.DataVencimento),
			ClienteNome:    nome,
			Valor:          decimal.NewNullDecimal(m.Valor),
		})
	}

	sort.SliceStable(vencimentos, func(i, j int) bool {
		return vencimentos[i].DataVencimento.Before(vencimentos[j].DataVencimento)
	})
	return vencimentos, nil
}

// EstatisticasMensais calcula as taxas de cumprimento, processamento e recebimento do mês corrente
func (s *DashboardService) EstatisticasMensais(ctx context.Context) (*EstatisticasMensais, error) {
	today := models.NewDate(s.now())
	start := today.FirstOfMonth()
	stats := &EstatisticasMensais{}

	// Obrigações com vencimento entre o início do mês e hoje
	var obrigacoes []statusCount
	if err := s.groupByStatus(ctx, squirrel.Select("status", "COUNT(*) AS quantidade", "0 AS valor").
		From("obrigacoes").
		Where(squirrel.GtOrEq{"data_vencimento": start}).
		Where(squirrel.LtOrEq{"data_vencimento": today}).
		GroupBy("status"), &obrigacoes); err != nil {
		return nil, err
	}
	for _, r := range obrigacoes {
		stats.Obrigacoes.Total += r.Quantidade
		switch models.ObrigacaoStatus(r.Status) {
		case models.ObrigacaoStatusPago:
			stats.Obrigacoes.Pagas += r.Quantidade
		case models.ObrigacaoStatusPendente:
			stats.Obrigacoes.Pendentes += r.Quantidade
		}
	}
	if err := s.db.WithContext(ctx).Model(&models.Obrigacao{}).
		Where("status = ? AND data_vencimento >= ? AND data_vencimento < ?", models.ObrigacaoStatusPendente, start, today).
		Count(&stats.Obrigacoes.Vencidas).Error; err != nil {
		return nil, fmt.Errorf("erro ao contar obrigações vencidas: %w", err)
	}
	stats.Obrigacoes.TaxaCumprimento = percentage(decimal.NewFromInt(stats.Obrigacoes.Pagas), decimal.NewFromInt(stats.Obrigacoes.Total))

	// Documentos enviados desde o início do mês
	var documentos []statusCount
	if err := s.groupByStatus(ctx, squirrel.Select("status_processamento AS status", "COUNT(*) AS quantidade", "0 AS valor").
		From("documentos").
		Where(squirrel.GtOrEq{"data_upload": start.Time}).
		GroupBy("status_processamento"), &documentos); err != nil {
		return nil, err
	}
	for _, r := range documentos {
		stats.Documentos.Total += r.Quantidade
		if models.DocumentoStatus(r.Status) == models.DocumentoStatusProcessado {
			stats.Documentos.Processados += r.Quantidade
		}
	}
	stats.Documentos.TaxaProcessamento = percentage(decimal.NewFromInt(stats.Documentos.Processados), decimal.NewFromInt(stats.Documentos.Total))

	// Mensalidades do mês de referência corrente
	var mensalidades []statusCount
	if err := s.groupByStatus(ctx, squirrel.Select("status", "COUNT(*) AS quantidade", "COALESCE(SUM(valor), 0) AS valor").
		From("mensalidades").
		Where(squirrel.Eq{"mes_referencia": today.MonthRef()}).
		GroupBy("status"), &mensalidades); err != nil {
		return nil, err
	}
	stats.Mensalidades.ValorTotal = decimal.Zero
	stats.Mensalidades.ValorRecebido = decimal.Zero
	for _, r := range mensalidades {
		stats.Mensalidades.Total += r.Quantidade
		stats.Mensalidades.ValorTotal = stats.Mensalidades.ValorTotal.Add(r.Valor)
		if models.MensalidadeStatus(r.Status) == models.MensalidadeStatusPago {
			stats.Mensalidades.Pagas += r.Quantidade
			stats.Mensalidades.ValorRecebido = stats.Mensalidades.ValorRecebido.Add(r.Valor)
		}
	}
	stats.Mensalidades.TaxaRecebimento = percentage(stats.Mensalidades.ValorRecebido, stats.Mensalidades.ValorTotal)

	return stats, nil
}

// Alertas lista os avisos do painel: obrigações vencidas, documentos parados,
// mensalidades atrasadas e clientes sem documentos no mês
func (s *DashboardService) Alertas(ctx context.Context) ([]AlertaPainel, error) {
	now := s.now()
	today := models.NewDate(now)
	db := s.db.WithContext(ctx)

	var vencidas, antigos, atrasadas, semDocumentos int64
	if err := db.Model(&models.Obrigacao{}).
		Where("status = ? AND data_vencimento < ?", models.ObrigacaoStatusPendente, today).
		Count(&vencidas).Error; err != nil {
		return nil, fmt.Errorf("erro ao contar obrigações vencidas: %w", err)
	}
	if err := db.Model(&models.Documento{}).
		Where("status_processamento = ? AND data_upload < ?", models.DocumentoStatusPendente, now.AddDate(0, 0, -staleUploadDays).UTC()).
		Count(&antigos).Error; err != nil {
		return nil, fmt.Errorf("erro ao contar documentos pendentes: %w", err)
	}
	if err := db.Model(&models.Mensalidade{}).
		Where("status = ? AND data_vencimento < ?", models.MensalidadeStatusPendente, today).
		Count(&atrasadas).Error; err != nil {
		return nil, fmt.Errorf("erro ao contar mensalidades atrasadas: %w", err)
	}
	enviados := db.Model(&models.Documento{}).Select("cliente_id").Where("mes_referencia = ?", today.MonthRef())
	if err := db.Model(&models.Cliente{}).
		Where("ativo = ? AND id NOT IN (?)", true, enviados).
		Count(&semDocumentos).Error; err != nil {
		return nil, fmt.Errorf("erro ao contar clientes sem documentos: %w", err)
	}

	alertas := []AlertaPainel{}
	if vencidas > 0 {
		alertas = append(alertas, AlertaPainel{
			Tipo:     "erro",
			Titulo:   "Obrigações Vencidas",
			Mensagem: fmt.Sprintf("%d obrigação(ões) em atraso", vencidas),
			Acao:     "/obrigacoes?status=pendente&vencidas=true",
		})
	}
	if antigos > 0 {
		alertas = append(alertas, AlertaPainel{
			Tipo:     "aviso",
			Titulo:   "Documentos Pendentes",
			Mensagem: fmt.Sprintf("%d documento(s) aguardando processamento há mais de %d dias", antigos, staleUploadDays),
			Acao:     "/documentos?status_processamento=pendente",
		})
	}
	if atrasadas > 0 {
		alertas = append(alertas, AlertaPainel{
			Tipo:     "aviso",
			Titulo:   "Mensalidades em Atraso",
			Mensagem: fmt.Sprintf("%d mensalidade(s) em atraso", atrasadas),
			Acao:     "/mensalidades?status=pendente&atrasadas=true",
		})
	}
	if semDocumentos > 0 {
		alertas = append(alertas, AlertaPainel{
			Tipo:     "info",
			Titulo:   "Documentos Pendentes",
			Mensagem: fmt.Sprintf("%d cliente(s) ainda não enviaram documentos este mês", semDocumentos),
			Acao:     "/clientes?sem_documentos_mes=true",
		})
	}
	return alertas, nil
}

type statusCount struct {
	Status     string
	Quantidade int64
	Valor      decimal.Decimal
}

func (s *DashboardService) groupByStatus(ctx context.Context, builder squirrel.SelectBuilder, rows *[]statusCount) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("erro ao montar consulta: %w", err)
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(rows).Error; err != nil {
		return fmt.Errorf("erro ao calcular estatísticas: %w", err)
	}
	return nil
}

// percentage retorna part/total*100 arredondado em 2 casas, zero quando total é zero
func percentage(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func priorityRank(p models.Prioridade) int {
	switch p {
	case models.PrioridadeCritica:
		return 0
	case models.PrioridadeAlta:
		return 1
	case models.PrioridadeMedia:
		return 2
	default:
		return 3
	}
}
