package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sistema-contabil/services"
	"sistema-contabil/utils"
)

const whatsAppTestMessage = "Teste do Sistema Contábil Inteligente. Se você recebeu esta mensagem, a integração com WhatsApp está funcionando!"

var errInvalidBody = utils.NewBadRequestError("Corpo da requisição inválido")

// AutomationWindows define os padrões das consultas de verificação
type AutomationWindows struct {
	UpcomingDays      int
	StaleDocumentDays int
}

// AutomationController expõe as rotinas automáticas em /automacao
type AutomationController struct {
	baseCtx    context.Context
	automation *services.AutomationService
	alerts     *services.AlertService
	reports    *services.ReportService
	scheduler  *services.SchedulerService
	email      *services.EmailService
	whatsapp   *services.WhatsAppService
	windows    AutomationWindows
}

// NewAutomationController cria um novo AutomationController. baseCtx limita a vida do agendador.
func NewAutomationController(
	baseCtx context.Context,
	automation *services.AutomationService,
	alerts *services.AlertService,
	reports *services.ReportService,
	scheduler *services.SchedulerService,
	email *services.EmailService,
	whatsapp *services.WhatsAppService,
	windows AutomationWindows,
) *AutomationController {
	return &AutomationController{
		baseCtx:    baseCtx,
		automation: automation,
		alerts:     alerts,
		reports:    reports,
		scheduler:  scheduler,
		email:      email,
		whatsapp:   whatsapp,
		windows:    windows,
	}
}

type gerarRelatorioRequest struct {
	Tipo    string `json:"tipo"`
	Periodo string `json:"periodo"`
}

type testarEmailRequest struct {
	Destinatario string `json:"destinatario"`
}

type testarWhatsAppRequest struct {
	Numero string `json:"numero"`
}

type configurarEmailRequest struct {
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
}

type configurarWhatsAppRequest struct {
	APIURL string `json:"api_url"`
	Token  string `json:"token"`
}

// VerificarVencimentos lista as obrigações que vencem nos próximos dias
func (c *AutomationController) VerificarVencimentos(w http.ResponseWriter, r *http.Request) {
	dias, err := queryInt(r, "dias", c.windows.UpcomingDays)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	vencimentos, err := c.alerts.UpcomingObligations(r.Context(), dias)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":           true,
		"total_vencimentos": len(vencimentos),
		"dias_antecedencia": dias,
		"vencimentos":       vencimentos,
	})
}

// VerificarDocumentosPendentes lista os documentos pendentes há mais dias que o limite
func (c *AutomationController) VerificarDocumentosPendentes(w http.ResponseWriter, r *http.Request) {
	dias, err := queryInt(r, "dias", c.windows.StaleDocumentDays)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	documentos, err := c.alerts.StaleDocuments(r.Context(), dias)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":          true,
		"total_documentos": len(documentos),
		"dias_limite":      dias,
		"documentos":       documentos,
	})
}

// VerificarMensalidadesAtrasadas lista as mensalidades vencidas e não pagas
func (c *AutomationController) VerificarMensalidadesAtrasadas(w http.ResponseWriter, r *http.Request) {
	mensalidades, err := c.alerts.OverdueFees(r.Context())
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":         true,
		"total_atrasadas": len(mensalidades),
		"mensalidades":    mensalidades,
	})
}

// EnviarLembretes executa o lote de lembretes
func (c *AutomationController) EnviarLembretes(w http.ResponseWriter, r *http.Request) {
	resultado := c.automation.ProcessReminders(r.Context())

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"resultado": resultado,
		"timestamp": time.Now().UTC(),
	})
}

// ProcessarDocumentos executa o lote de análise de documentos
func (c *AutomationController) ProcessarDocumentos(w http.ResponseWriter, r *http.Request) {
	resultado := c.automation.ProcessDocuments(r.Context())

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"resultado": resultado,
		"timestamp": time.Now().UTC(),
	})
}

// GerarRelatorio gera um relatório agregado; tipo e período são opcionais
func (c *AutomationController) GerarRelatorio(w http.ResponseWriter, r *http.Request) {
	req := gerarRelatorioRequest{Tipo: services.ReportObligations, Periodo: "mensal"}
	if err := decodeOptionalJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}
	if req.Tipo == "" {
		req.Tipo = services.ReportObligations
	}
	if req.Periodo == "" {
		req.Periodo = "mensal"
	}

	relatorio, err := c.reports.Generate(r.Context(), req.Tipo, req.Periodo)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"relatorio": relatorio,
		"timestamp": time.Now().UTC(),
	})
}

// ExecutarRotinaDiaria executa lembretes, documentos e relatórios em sequência
func (c *AutomationController) ExecutarRotinaDiaria(w http.ResponseWriter, r *http.Request) {
	resultado := c.automation.RunDailyRoutine(r.Context())

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"resultado": resultado,
	})
}

// IniciarAgendamento liga o agendador da rotina diária
func (c *AutomationController) IniciarAgendamento(w http.ResponseWriter, r *http.Request) {
	if !c.scheduler.Start(c.baseCtx) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"sucesso":  false,
			"mensagem": "Agendamento já está ativo",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"mensagem":  "Agendamento automático iniciado",
		"intervalo": c.scheduler.Status().Intervalo,
	})
}

// PararAgendamento desliga o agendador
func (c *AutomationController) PararAgendamento(w http.ResponseWriter, r *http.Request) {
	c.scheduler.Stop()

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Agendamento automático parado",
	})
}

// StatusAgendamento informa se o agendador está ativo
func (c *AutomationController) StatusAgendamento(w http.ResponseWriter, r *http.Request) {
	status := c.scheduler.Status()

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":           true,
		"agendamento_ativo": status.Ativo,
		"intervalo":         status.Intervalo,
		"proxima_execucao":  status.ProximaExecucao,
		"ultima_execucao":   status.UltimaExecucao,
	})
}

// DashboardAlertas resume os alertas ativos por categoria e prioridade
func (c *AutomationController) DashboardAlertas(w http.ResponseWriter, r *http.Request) {
	dashboard, err := c.automation.DashboardAlerts(r.Context())
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"resumo":   dashboard.Resumo,
		"detalhes": dashboard.Detalhes,
	})
}

// TestarEmail envia um email de teste ao destinatário informado
func (c *AutomationController) TestarEmail(w http.ResponseWriter, r *http.Request) {
	var req testarEmailRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}
	destinatario := strings.TrimSpace(req.Destinatario)
	if destinatario == "" {
		utils.RespondError(w, utils.NewBadRequestError("Destinatário é obrigatório"))
		return
	}

	err := c.email.SendTestEmail(r.Context(), destinatario)
	if err != nil {
		utils.LogWarn("Falha no email de teste para %s: %v", destinatario, err)
	}

	mensagem := "Email de teste enviado com sucesso"
	if err != nil {
		mensagem = "Falha ao enviar email de teste"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":      err == nil,
		"mensagem":     mensagem,
		"destinatario": destinatario,
	})
}

// TestarWhatsApp envia uma mensagem de teste ao número informado
func (c *AutomationController) TestarWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req testarWhatsAppRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		utils.RespondError(w, err)
		return
	}
	numero := strings.TrimSpace(req.Numero)
	if numero == "" {
		utils.RespondError(w, utils.NewBadRequestError("Número é obrigatório"))
		return
	}

	err := c.whatsapp.SendWhatsApp(r.Context(), numero, whatsAppTestMessage)
	if err != nil {
		utils.LogWarn("Falha no WhatsApp de teste para %s: %v", numero, err)
	}

	mensagem := "WhatsApp de teste enviado com sucesso"
	if err != nil {
		mensagem = "Falha ao enviar WhatsApp de teste"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  err == nil,
		"mensagem": mensagem,
		"numero":   numero,
		"simulado": c.whatsapp.Simulated(),
	})
}

// ConfigurarEmail aplica novos parâmetros SMTP ao serviço em execução
func (c *AutomationController) ConfigurarEmail(w http.ResponseWriter, r *http.Request) {
	var req configurarEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, errInvalidBody)
		return
	}

	settings := c.email.Settings()
	if req.SMTPHost != "" {
		settings.Host = req.SMTPHost
	}
	if req.SMTPPort != 0 {
		settings.Port = req.SMTPPort
	}
	if req.SMTPUser != "" {
		settings.Username = req.SMTPUser
		settings.From = req.SMTPUser
	}
	if req.SMTPPassword != "" {
		settings.Password = req.SMTPPassword
	}
	c.email.Configure(settings)
	utils.LogInfo("Configuração de email atualizada: %s:%d", settings.Host, settings.Port)

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":      true,
		"mensagem":     "Configuração de email salva com sucesso",
		"configuracao": c.email.Settings(),
	})
}

// ConfigurarWhatsApp aplica novos parâmetros do gateway ao serviço em execução
func (c *AutomationController) ConfigurarWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req configurarWhatsAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, errInvalidBody)
		return
	}

	settings := c.whatsapp.Settings()
	if req.APIURL != "" {
		settings.APIURL = req.APIURL
	}
	if req.Token != "" {
		settings.Token = req.Token
	}
	c.whatsapp.Configure(settings)
	utils.LogInfo("Configuração do WhatsApp atualizada: %s", settings.APIURL)

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":      true,
		"mensagem":     "Configuração do WhatsApp salva com sucesso",
		"configuracao": c.whatsapp.Settings(),
	})
}

// maxQueryDays limita as janelas em dias aceitas pela query string
const maxQueryDays = 3650

// queryInt lê um parâmetro inteiro não negativo da URL, com valor padrão
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, utils.NewBadRequestError("Parâmetro '" + name + "' deve ser um inteiro não negativo")
	}
	if n > maxQueryDays {
		return 0, utils.NewBadRequestError(fmt.Sprintf("Parâmetro '%s' deve ser no máximo %d", name, maxQueryDays))
	}
	return n, nil
}

// decodeOptionalJSON decodifica o corpo quando presente; corpo vazio mantém os padrões
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}
