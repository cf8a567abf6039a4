package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"sistema-contabil/services"
	"sistema-contabil/utils"

	"github.com/gin-gonic/gin"
)

type gerarMensagemRequest struct {
	TipoMensagem string                 `json:"tipo_mensagem"`
	Tipo         string                 `json:"tipo"`
	Contexto     map[string]interface{} `json:"contexto"`
}

type sugerirObrigacoesRequest struct {
	MesReferencia string `json:"mes_referencia"`
}

// UploadDocumento recebe o arquivo do formulário e cria o documento pendente
func (a *APIController) UploadDocumento(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	req := services.UploadRequest{ClienteID: c.PostForm("cliente_id")}
	if strings.TrimSpace(req.ClienteID) != "" {
		fileHeader, err := c.FormFile("documento")
		if err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				respondError(c, utils.NewBadRequestError("Erro ao ler o arquivo enviado"))
				return
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				respondError(c, utils.NewBadRequestError("Erro ao ler o arquivo enviado"))
				return
			}
			req.Filename = fileHeader.Filename
			req.Data = data
		} else if !errors.Is(err, http.ErrMissingFile) {
			respondError(c, utils.NewBadRequestError("Formulário de upload inválido"))
			return
		}
	}

	resp, err := a.ingestion.Upload(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DashboardResumo retorna os contadores gerais do painel
func (a *APIController) DashboardResumo(c *gin.Context) {
	resumo, err := a.dashboard.Resumo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resumo)
}

// TarefasHoje lista as tarefas com vencimento hoje
func (a *APIController) TarefasHoje(c *gin.Context) {
	tarefas, err := a.dashboard.TarefasHoje(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tarefas)
}

// VencimentosProximos lista os vencimentos dos próximos dias
func (a *APIController) VencimentosProximos(c *gin.Context) {
	dias, ok := queryDays(c, 7)
	if !ok {
		return
	}

	vencimentos, err := a.dashboard.VencimentosProximos(c.Request.Context(), dias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vencimentos)
}

// EstatisticasMensais retorna as taxas do mês corrente
func (a *APIController) EstatisticasMensais(c *gin.Context) {
	stats, err := a.dashboard.EstatisticasMensais(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AlertasPainel lista os avisos do painel
func (a *APIController) AlertasPainel(c *gin.Context) {
	alertas, err := a.dashboard.Alertas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertas)
}

// ProcessarDocumentoIA analisa um único documento com a IA
func (a *APIController) ProcessarDocumentoIA(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	documento, analise, err := a.processing.ProcessDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sucesso":   true,
		"documento": documento,
		"analise":   analise,
	})
}

// GerarMensagem compõe uma mensagem para o cliente a partir do contexto informado
func (a *APIController) GerarMensagem(c *gin.Context) {
	var req gerarMensagemRequest
	if !bindJSON(c, &req) {
		return
	}
	tipo := req.TipoMensagem
	if tipo == "" {
		tipo = req.Tipo
	}
	if tipo == "" {
		respondError(c, utils.NewBadRequestError("Tipo de mensagem é obrigatório"))
		return
	}
	if req.Contexto == nil {
		req.Contexto = map[string]interface{}{}
	}

	mensagem, err := a.ai.ComposeMessage(c.Request.Context(), tipo, req.Contexto)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sucesso":       true,
		"tipo_mensagem": tipo,
		"mensagem":      mensagem,
		"contexto":      req.Contexto,
	})
}

// SugerirObrigacoes sugere as obrigações do mês para o perfil do cliente
func (a *APIController) SugerirObrigacoes(c *gin.Context) {
	clienteID, ok := pathID(c, "cliente_id")
	if !ok {
		return
	}
	var req sugerirObrigacoesRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.MesReferencia == "" {
		req.MesReferencia = time.Now().Format("2006-01")
	}

	cliente, err := a.clients.GetByID(c.Request.Context(), clienteID)
	if err != nil {
		respondError(c, err)
		return
	}

	sugestoes, err := a.ai.SuggestObligations(c.Request.Context(), cliente.Nome, cliente.CNPJ, cliente.RegimeTributario, req.MesReferencia)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sucesso":        true,
		"cliente":        cliente,
		"mes_referencia": req.MesReferencia,
		"sugestoes":      sugestoes,
	})
}

// StatusIA informa se a API de IA está configurada
func (a *APIController) StatusIA(c *gin.Context) {
	status := "ativo"
	if !a.ai.Configured() {
		status = "desativado"
	}
	c.JSON(http.StatusOK, gin.H{
		"sucesso":         true,
		"status":          status,
		"api_configurada": a.ai.Configured(),
		"timestamp":       time.Now().UTC(),
	})
}
