package services

import (
	"context"
	"fmt"
	"time"

	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/google/uuid"
)

// Eventos transmitidos aos painéis
const (
	EventDashboardAlerts = "alertas_dashboard"
	EventDocumentUpload  = "documento_recebido"
)

// dashboardDetailLimit é o número de alertas detalhados por categoria no dashboard
const dashboardDetailLimit = 5

// DashboardWindows define as janelas usadas pelo dashboard de alertas
type DashboardWindows struct {
	UpcomingDays      int
	StaleDocumentDays int
}

// PriorityCount conta os alertas por prioridade
type PriorityCount struct {
	Critica int `json:"critica"`
	Alta    int `json:"alta"`
	Media   int `json:"media"`
}

func (c *PriorityCount) add(p models.Prioridade) {
	switch p {
	case models.PrioridadeCritica:
		c.Critica++
	case models.PrioridadeAlta:
		c.Alta++
	case models.PrioridadeMedia:
		c.Media++
	}
}

// DashboardSummary resume os alertas ativos
type DashboardSummary struct {
	TotalAlertas          int           `json:"total_alertas"`
	VencimentosProximos   int           `json:"vencimentos_proximos"`
	DocumentosPendentes   int           `json:"documentos_pendentes"`
	MensalidadesAtrasadas int           `json:"mensalidades_atrasadas"`
	PorPrioridade         PriorityCount `json:"por_prioridade"`
}

// DashboardDetails traz os primeiros alertas de cada categoria
type DashboardDetails struct {
	Vencimentos  []ObligationAlert `json:"vencimentos"`
	Documentos   []DocumentAlert   `json:"documentos"`
	Mensalidades []FeeAlert        `json:"mensalidades"`
}

// DashboardAlerts é o painel de alertas ativos
type DashboardAlerts struct {
	Resumo   DashboardSummary `json:"resumo"`
	Detalhes DashboardDetails `json:"detalhes"`
}

// ReportOutcome é um relatório da rotina diária ou o erro que impediu sua geração
type ReportOutcome struct {
	*Report
	Erro string `json:"erro,omitempty"`
}

// DailyRoutineResult resume uma execução da rotina diária
type DailyRoutineResult struct {
	DataExecucao  time.Time                `json:"data_execucao"`
	ExecucaoID    string                   `json:"execucao_id"`
	Lembretes     ReminderResult           `json:"lembretes"`
	Documentos    DocumentBatchResult      `json:"documentos"`
	Relatorios    map[string]ReportOutcome `json:"relatorios"`
	TempoExecucao float64                  `json:"tempo_execucao"`
}

// AutomationService coordena as rotinas automáticas
type AutomationService struct {
	alerts    *AlertService
	reminders *ReminderService
	documents *DocumentProcessingService
	reports   *ReportService
	hub       *AlertHub
	windows   DashboardWindows
}

// NewAutomationService cria uma nova instância de AutomationService
func NewAutomationService(alerts *AlertService, reminders *ReminderService, documents *DocumentProcessingService, reports *ReportService, hub *AlertHub, windows DashboardWindows) *AutomationService {
	return &AutomationService{
		alerts:    alerts,
		reminders: reminders,
		documents: documents,
		reports:   reports,
		hub:       hub,
		windows:   windows,
	}
}

// ProcessReminders executa o lote de lembretes e atualiza os painéis
func (s *AutomationService) ProcessReminders(ctx context.Context) ReminderResult {
	result := s.reminders.ProcessReminders(ctx)
	s.PublishDashboard(ctx)
	return result
}

// ProcessDocuments executa o lote de documentos e atualiza os painéis
func (s *AutomationService) ProcessDocuments(ctx context.Context) DocumentBatchResult {
	result := s.documents.ProcessPending(ctx)
	s.PublishDashboard(ctx)
	return result
}

// RunDailyRoutine executa lembretes, processamento de documentos e relatórios mensais
func (s *AutomationService) RunDailyRoutine(ctx context.Context) DailyRoutineResult {
	startTime := time.Now()
	result := DailyRoutineResult{
		DataExecucao: startTime,
		ExecucaoID:   uuid.NewString(),
		Relatorios:   map[string]ReportOutcome{},
	}

	utils.LogInfo("Iniciando rotina diária %s", result.ExecucaoID)

	result.Lembretes = s.reminders.ProcessReminders(ctx)
	result.Documentos = s.documents.ProcessPending(ctx)

	for _, tipo := range []string{ReportObligations, ReportDocuments} {
		report, err := s.reports.Generate(ctx, tipo, "mensal")
		if err != nil {
			result.Relatorios[tipo] = ReportOutcome{Erro: err.Error()}
			continue
		}
		result.Relatorios[tipo] = ReportOutcome{Report: report}
	}

	result.TempoExecucao = time.Since(startTime).Seconds()
	utils.LogOperation(fmt.Sprintf("rotina_diaria %s", result.ExecucaoID), startTime, errorOrNil(result.Lembretes.ErroGeral))

	s.PublishDashboard(ctx)
	return result
}

// DashboardAlerts monta o painel de alertas ativos
func (s *AutomationService) DashboardAlerts(ctx context.Context) (*DashboardAlerts, error) {
	obligations, err := s.alerts.UpcomingObligations(ctx, s.windows.UpcomingDays)
	if err != nil {
		return nil, err
	}
	documents, err := s.alerts.StaleDocuments(ctx, s.windows.StaleDocumentDays)
	if err != nil {
		return nil, err
	}
	fees, err := s.alerts.OverdueFees(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &DashboardAlerts{
		Resumo: DashboardSummary{
			TotalAlertas:          len(obligations) + len(documents) + len(fees),
			VencimentosProximos:   len(obligations),
			DocumentosPendentes:   len(documents),
			MensalidadesAtrasadas: len(fees),
		},
		Detalhes: DashboardDetails{
			Vencimentos:  obligations[:min(len(obligations), dashboardDetailLimit)],
			Documentos:   documents[:min(len(documents), dashboardDetailLimit)],
			Mensalidades: fees[:min(len(fees), dashboardDetailLimit)],
		},
	}

	for _, a := range obligations {
		dashboard.Resumo.PorPrioridade.add(a.Prioridade)
	}
	for _, a := range documents {
		dashboard.Resumo.PorPrioridade.add(a.Prioridade)
	}
	for _, a := range fees {
		dashboard.Resumo.PorPrioridade.add(a.Prioridade)
	}

	return dashboard, nil
}

// PublishDashboard transmite o resumo de alertas aos painéis conectados
func (s *AutomationService) PublishDashboard(ctx context.Context) {
	if s.hub == nil || s.hub.Sessions() == 0 {
		return
	}

	dashboard, err := s.DashboardAlerts(context.WithoutCancel(ctx))
	if err != nil {
		utils.LogWarn("Erro ao montar alertas para os painéis: %v", err)
		return
	}
	s.hub.Broadcast(EventDashboardAlerts, dashboard.Resumo)
}
