package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"sistema-contabil/services"
	"sistema-contabil/utils"

	"github.com/gin-gonic/gin"
)

// maxUploadSize limita o tamanho do formulário de upload
const maxUploadSize = 16 << 20

// APIController atende a API de recursos servida pelo gin
type APIController struct {
	clients       *services.ClientService
	obligations   *services.ObligationService
	fees          *services.FeeService
	documents     *services.DocumentService
	notifications *services.NotificationService
	dashboard     *services.DashboardService
	ingestion     *services.IngestionService
	processing    *services.DocumentProcessingService
	ai            *services.AIService
}

// APIServices reúne os serviços usados pela API de recursos
type APIServices struct {
	Clients       *services.ClientService
	Obligations   *services.ObligationService
	Fees          *services.FeeService
	Documents     *services.DocumentService
	Notifications *services.NotificationService
	Dashboard     *services.DashboardService
	Ingestion     *services.IngestionService
	Processing    *services.DocumentProcessingService
	AI            *services.AIService
}

// NewAPIController cria um novo APIController
func NewAPIController(s APIServices) *APIController {
	return &APIController{
		clients:       s.Clients,
		obligations:   s.Obligations,
		fees:          s.Fees,
		documents:     s.Documents,
		notifications: s.Notifications,
		dashboard:     s.Dashboard,
		ingestion:     s.Ingestion,
		processing:    s.Processing,
		ai:            s.AI,
	}
}

// RegisterRoutes registra as rotas da API no grupo informado
func (a *APIController) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/clientes", a.ListClientes)
	rg.POST("/clientes", a.CreateCliente)
	rg.GET("/clientes/:id", a.GetCliente)
	rg.PUT("/clientes/:id", a.UpdateCliente)
	rg.DELETE("/clientes/:id", a.DeleteCliente)

	rg.GET("/obrigacoes", a.ListObrigacoes)
	rg.POST("/obrigacoes", a.CreateObrigacao)
	rg.GET("/obrigacoes/vencimentos", a.VencimentosObrigacoes)
	rg.GET("/obrigacoes/dashboard", a.DashboardObrigacoes)
	rg.GET("/obrigacoes/:id", a.GetObrigacao)
	rg.PUT("/obrigacoes/:id", a.UpdateObrigacao)
	rg.DELETE("/obrigacoes/:id", a.DeleteObrigacao)

	rg.GET("/mensalidades", a.ListMensalidades)
	rg.POST("/mensalidades", a.CreateMensalidade)
	rg.GET("/mensalidades/:id", a.GetMensalidade)
	rg.PUT("/mensalidades/:id", a.UpdateMensalidade)
	rg.DELETE("/mensalidades/:id", a.DeleteMensalidade)
	rg.POST("/mensalidades/:id/pagar", a.PagarMensalidade)

	rg.POST("/upload-documento", a.UploadDocumento)
	rg.GET("/documentos", a.ListDocumentos)
	rg.GET("/documentos/:id", a.GetDocumento)
	rg.DELETE("/documentos/:id", a.DeleteDocumento)

	rg.GET("/notificacoes", a.ListNotificacoes)
	rg.PUT("/notificacoes/:id/lida", a.MarcarNotificacaoLida)

	rg.GET("/dashboard/resumo", a.DashboardResumo)
	rg.GET("/dashboard/tarefas-hoje", a.TarefasHoje)
	rg.GET("/dashboard/vencimentos-proximos", a.VencimentosProximos)
	rg.GET("/dashboard/estatisticas-mensais", a.EstatisticasMensais)
	rg.GET("/dashboard/alertas", a.AlertasPainel)

	rg.POST("/ia/processar-documento/:id", a.ProcessarDocumentoIA)
	rg.POST("/ia/gerar-mensagem", a.GerarMensagem)
	rg.POST("/ia/sugerir-obrigacoes/:cliente_id", a.SugerirObrigacoes)
	rg.GET("/ia/status", a.StatusIA)
}

// respondError escreve {"erro": ...} com o status do erro; erros inesperados são registrados
func respondError(c *gin.Context, err error) {
	status := utils.StatusOf(err)
	if errors.Is(err, services.ErrAINotConfigured) {
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		utils.GetMetrics().RecordError(err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"erro": err.Error()})
}

// bindJSON decodifica o corpo da requisição, respondendo 400 quando inválido
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, errInvalidBody)
		return false
	}
	return true
}

// pathID lê um identificador numérico da rota
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, utils.NewBadRequestError("ID inválido"))
		return 0, false
	}
	return uint(id), true
}

// queryUint lê um filtro numérico opcional da query string
func queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondError(c, utils.NewBadRequestError("Parâmetro '"+name+"' inválido"))
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// queryDays lê o parâmetro dias, com valor padrão
func queryDays(c *gin.Context, def int) (int, bool) {
	dias, err := queryInt(c.Request, "dias", def)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return dias, true
}
