package controllers

import (
	"net/http"
	"strconv"

	"sistema-contabil/services"
	"sistema-contabil/utils"

	"github.com/gin-gonic/gin"
)

// ListClientes lista os clientes, com filtros ativo e busca
func (a *APIController) ListClientes(c *gin.Context) {
	filter := services.ClienteFilter{Busca: c.Query("busca")}
	if raw := c.Query("ativo"); raw != "" {
		ativo, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, utils.NewBadRequestError("Parâmetro 'ativo' inválido"))
			return
		}
		filter.Ativo = &ativo
	}

	clientes, err := a.clients.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clientes)
}

// CreateCliente cadastra um cliente
func (a *APIController) CreateCliente(c *gin.Context) {
	var req services.ClienteRequest
	if !bindJSON(c, &req) {
		return
	}

	cliente, err := a.clients.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cliente)
}

// GetCliente retorna um cliente
func (a *APIController) GetCliente(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cliente, err := a.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cliente)
}

// UpdateCliente atualiza um cliente
func (a *APIController) UpdateCliente(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ClienteUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	cliente, err := a.clients.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cliente)
}

// DeleteCliente remove um cliente e seus registros
func (a *APIController) DeleteCliente(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.clients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListObrigacoes lista as obrigações filtradas
func (a *APIController) ListObrigacoes(c *gin.Context) {
	clienteID, ok := queryUint(c, "cliente_id")
	if !ok {
		return
	}

	obrigacoes, err := a.obligations.List(c.Request.Context(), services.ObrigacaoFilter{
		ClienteID:     clienteID,
		Status:        c.Query("status"),
		MesReferencia: c.Query("mes_referencia"),
		DataInicio:    c.Query("data_inicio"),
		DataFim:       c.Query("data_fim"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obrigacoes)
}

// CreateObrigacao cadastra uma obrigação
func (a *APIController) CreateObrigacao(c *gin.Context) {
	var req services.ObrigacaoRequest
	if !bindJSON(c, &req) {
		return
	}

	obrigacao, err := a.obligations.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, obrigacao)
}

// GetObrigacao retorna uma obrigação
func (a *APIController) GetObrigacao(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	obrigacao, err := a.obligations.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obrigacao)
}

// UpdateObrigacao atualiza uma obrigação
func (a *APIController) UpdateObrigacao(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ObrigacaoUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	obrigacao, err := a.obligations.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obrigacao)
}

// DeleteObrigacao remove uma obrigação
func (a *APIController) DeleteObrigacao(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.obligations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VencimentosObrigacoes lista as obrigações pendentes que vencem até hoje+dias
func (a *APIController) VencimentosObrigacoes(c *gin.Context) {
	dias, ok := queryDays(c, 7)
	if !ok {
		return
	}

	obrigacoes, err := a.obligations.Upcoming(c.Request.Context(), dias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obrigacoes)
}

// DashboardObrigacoes conta as obrigações pendentes por situação
func (a *APIController) DashboardObrigacoes(c *gin.Context) {
	dashboard, err := a.obligations.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListMensalidades lista as mensalidades filtradas
func (a *APIController) ListMensalidades(c *gin.Context) {
	clienteID, ok := queryUint(c, "cliente_id")
	if !ok {
		return
	}

	mensalidades, err := a.fees.List(c.Request.Context(), services.MensalidadeFilter{
		ClienteID:     clienteID,
		Status:        c.Query("status"),
		MesReferencia: c.Query("mes_referencia"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mensalidades)
}

// CreateMensalidade cadastra uma mensalidade
func (a *APIController) CreateMensalidade(c *gin.Context) {
	var req services.MensalidadeRequest
	if !bindJSON(c, &req) {
		return
	}

	mensalidade, err := a.fees.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mensalidade)
}

// GetMensalidade retorna uma mensalidade
func (a *APIController) GetMensalidade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	mensalidade, err := a.fees.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mensalidade)
}

// UpdateMensalidade atualiza uma mensalidade
func (a *APIController) UpdateMensalidade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.MensalidadeUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	mensalidade, err := a.fees.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mensalidade)
}

// DeleteMensalidade remove uma mensalidade
func (a *APIController) DeleteMensalidade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.fees.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PagarMensalidade registra o pagamento de uma mensalidade
func (a *APIController) PagarMensalidade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.PagamentoRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	mensalidade, err := a.fees.Pay(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mensalidade)
}

// ListDocumentos lista os documentos filtrados
func (a *APIController) ListDocumentos(c *gin.Context) {
	clienteID, ok := queryUint(c, "cliente_id")
	if !ok {
		return
	}
	status := c.Query("status")
	if status == "" {
		status = c.Query("status_processamento")
	}

	documentos, err := a.documents.List(c.Request.Context(), services.DocumentoFilter{
		ClienteID: clienteID,
		Status:    status,
		Categoria: c.Query("categoria"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentos)
}

// GetDocumento retorna um documento
func (a *APIController) GetDocumento(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	documento, err := a.documents.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, documento)
}

// DeleteDocumento remove um documento e o arquivo armazenado
func (a *APIController) DeleteDocumento(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := a.documents.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListNotificacoes lista as notificações filtradas
func (a *APIController) ListNotificacoes(c *gin.Context) {
	clienteID, ok := queryUint(c, "cliente_id")
	if !ok {
		return
	}

	notificacoes, err := a.notifications.List(c.Request.Context(), services.NotificacaoFilter{
		ClienteID: clienteID,
		Status:    c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notificacoes)
}

// MarcarNotificacaoLida marca uma notificação como lida
func (a *APIController) MarcarNotificacaoLida(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	notificacao, err := a.notifications.MarkRead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notificacao)
}
