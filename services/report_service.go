package services

import (
	"context"
	"fmt"
	"time"

	"sistema-contabil/models"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de relatório
const (
	ReportObligations = "obrigacoes"
	ReportDocuments   = "documentos"
)

// Report é um relatório agregado de um período
type Report struct {
	Tipo       string                 `json:"tipo"`
	Periodo    string                 `json:"periodo"`
	DataInicio models.Date            `json:"data_inicio"`
	DataFim    models.Date            `json:"data_fim"`
	Dados      map[string]interface{} `json:"dados"`
}

// TypeTotal agrega quantidade e valor de um tipo de obrigação
type TypeTotal struct {
	Quantidade int64           `json:"quantidade"`
	Valor      decimal.Decimal `json:"valor"`
}

// ReportService gera relatórios agregados
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReportService cria uma nova instância de ReportService
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{
		db:  db,
		now: time.Now,
	}
}

// PeriodStart retorna o início do período: mês corrente, últimos 7 ou últimos 30 dias
func PeriodStart(today models.Date, periodo string) models.Date {
	switch periodo {
	case "mensal":
		return today.FirstOfMonth()
	case "semanal":
		return today.AddDays(-7)
	default:
		return today.AddDays(-30)
	}
}

// Generate gera o relatório do tipo e período informados
func (s *ReportService) Generate(ctx context.Context, tipo, periodo string) (*Report, error) {
	today := models.NewDate(s.now())
	start := PeriodStart(today, periodo)

	report := &Report{
		Tipo:       tipo,
		Periodo:    periodo,
		DataInicio: start,
		DataFim:    today,
		Dados:      map[string]interface{}{},
	}

	var err error
	switch tipo {
	case ReportObligations:
		report.Dados, err = s.obligations(ctx, start, today)
	case ReportDocuments:
		report.Dados, err = s.documents(ctx, start)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) obligations(ctx context.Context, start, end models.Date) (map[string]interface{}, error) {
	query, args, err := squirrel.Select("tipo", "status", "COUNT(*) AS quantidade", "COALESCE(SUM(valor), 0) AS valor").
		From("obrigacoes").
		Where(squirrel.GtOrEq{"data_vencimento": start}).
		Where(squirrel.LtOrEq{"data_vencimento": end}).
		GroupBy("tipo", "status").
		OrderBy("tipo").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao montar consulta: %w", err)
	}

	var rows []struct {
		Tipo       string
		Status     string
		Quantidade int64
		Valor      decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("erro ao gerar relatório de obrigações: %w", err)
	}

	var total, pagas, pendentes int64
	valorTotal := decimal.Zero
	porTipo := map[string]*TypeTotal{}
	for _, r := range rows {
		total += r.Quantidade
		switch models.ObrigacaoStatus(r.Status) {
		case models.ObrigacaoStatusPago:
			pagas += r.Quantidade
		case models.ObrigacaoStatusPendente:
			pendentes += r.Quantidade
		}
		valorTotal = valorTotal.Add(r.Valor)

		t, ok := porTipo[r.Tipo]
		if !ok {
			t = &TypeTotal{Valor: decimal.Zero}
			porTipo[r.Tipo] = t
		}
		t.Quantidade += r.Quantidade
		t.Valor = t.Valor.Add(r.Valor)
	}

	return map[string]interface{}{
		"total_obrigacoes": total,
		"pagas":            pagas,
		"pendentes":        pendentes,
		"valor_total":      valorTotal.Round(2),
		"por_tipo":         porTipo,
	}, nil
}

func (s *ReportService) documents(ctx context.Context, start models.Date) (map[string]interface{}, error) {
	query, args, err := squirrel.Select("categoria", "status_processamento", "COUNT(*) AS quantidade").
		From("documentos").
		Where(squirrel.GtOrEq{"data_upload": start.Time}).
		GroupBy("categoria", "status_processamento").
		OrderBy("categoria").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao montar consulta: %w", err)
	}

	var rows []struct {
		Categoria           string
		StatusProcessamento string
		Quantidade          int64
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("erro ao gerar relatório de documentos: %w", err)
	}

	var total, processados, pendentes int64
	porCategoria := map[string]int64{}
	for _, r := range rows {
		total += r.Quantidade
		switch models.DocumentoStatus(r.StatusProcessamento) {
		case models.DocumentoStatusProcessado:
			processados += r.Quantidade
		case models.DocumentoStatusPendente:
			pendentes += r.Quantidade
		}
		porCategoria[r.Categoria] += r.Quantidade
	}

	return map[string]interface{}{
		"total_documentos": total,
		"processados":      processados,
		"pendentes":        pendentes,
		"por_categoria":    porCategoria,
	}, nil
}
