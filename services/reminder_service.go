package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MessageComposer gera o texto das mensagens enviadas aos clientes
type MessageComposer interface {
	ComposeMessage(ctx context.Context, kind string, data map[string]interface{}) (string, error)
}

// EmailSender envia emails
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// WhatsAppSender envia mensagens de WhatsApp
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, number, message string) error
}

// ReminderResult resume uma execução do lote de lembretes
type ReminderResult struct {
	VencimentosProcessados  int      `json:"vencimentos_processados"`
	DocumentosProcessados   int      `json:"documentos_processados"`
	MensalidadesProcessadas int      `json:"mensalidades_processadas"`
	EmailsEnviados          int      `json:"emails_enviados"`
	WhatsAppEnviados        int      `json:"whatsapp_enviados"`
	MensagensPadrao         int      `json:"mensagens_padrao"`
	NotificacoesCriadas     int      `json:"notificacoes_criadas"`
	Erros                   []string `json:"erros"`
	ErroGeral               string   `json:"erro_geral,omitempty"`
}

// ReminderWindows define as janelas de dias usadas pelo lote
type ReminderWindows struct {
	UpcomingDays      int
	StaleDocumentDays int
}

// ReminderService envia lembretes para os alertas encontrados
type ReminderService struct {
	db       *gorm.DB
	alerts   *AlertService
	composer MessageComposer
	email    EmailSender
	whatsapp WhatsAppSender
	windows  ReminderWindows
}

// NewReminderService cria uma nova instância de ReminderService
func NewReminderService(db *gorm.DB, alerts *AlertService, composer MessageComposer, email EmailSender, whatsapp WhatsAppSender, windows ReminderWindows) *ReminderService {
	return &ReminderService{
		db:       db,
		alerts:   alerts,
		composer: composer,
		email:    email,
		whatsapp: whatsapp,
		windows:  windows,
	}
}

// reminderBatch guarda o estado de uma execução entre as fases
type reminderBatch struct {
	result        *ReminderResult
	clients       map[uint]*models.Cliente
	notifications []models.Notificacao
}

// ProcessReminders executa as consultas, envia os lembretes e registra as notificações
func (s *ReminderService) ProcessReminders(ctx context.Context) ReminderResult {
	startTime := time.Now()
	result := &ReminderResult{Erros: []string{}}

	if err := s.checkReady(ctx); err != nil {
		return failedResult(err)
	}

	// Fase de leitura
	obligations, err := s.alerts.UpcomingObligations(ctx, s.windows.UpcomingDays)
	if err != nil {
		result.Erros = append(result.Erros, err.Error())
	}
	documents, err := s.alerts.StaleDocuments(ctx, s.windows.StaleDocumentDays)
	if err != nil {
		result.Erros = append(result.Erros, err.Error())
	}
	fees, err := s.alerts.OverdueFees(ctx)
	if err != nil {
		result.Erros = append(result.Erros, err.Error())
	}

	ids := make([]uint, 0, len(obligations)+len(documents)+len(fees))
	for _, a := range obligations {
		ids = append(ids, a.ClienteID)
	}
	for _, a := range documents {
		ids = append(ids, a.ClienteID)
	}
	for _, a := range fees {
		ids = append(ids, a.ClienteID)
	}
	clients, err := s.loadClients(ctx, ids)
	if err != nil {
		return failedResult(err)
	}

	batch := &reminderBatch{result: result, clients: clients}

	// Fase de envio, fora de qualquer transação
	for i := range obligations {
		alert := obligations[i]
		s.runItem(batch, "vencimento", alert.ObrigacaoID, func() error {
			return s.remindObligation(ctx, batch, alert)
		})
	}
	for i := range documents {
		alert := documents[i]
		s.runItem(batch, "documento", alert.DocumentoID, func() error {
			return s.remindDocument(ctx, batch, alert)
		})
	}
	for i := range fees {
		alert := fees[i]
		s.runItem(batch, "mensalidade", alert.MensalidadeID, func() error {
			return s.remindFee(ctx, batch, alert)
		})
	}

	// Fase de escrita: as mensagens já saíram, então o cancelamento não descarta as notificações
	if err := s.saveNotifications(context.WithoutCancel(ctx), batch.notifications); err != nil {
		result.ErroGeral = err.Error()
		result.Erros = append(result.Erros, err.Error())
	} else {
		result.NotificacoesCriadas = len(batch.notifications)
		utils.GetMetrics().RecordNotifications(len(batch.notifications))
	}

	utils.GetMetrics().RecordBatch("lembretes", time.Since(startTime))
	utils.LogOperation("processar_lembretes", startTime, errorOrNil(result.ErroGeral))
	return *result
}

// checkReady falha quando o contexto já foi cancelado ou o banco está inacessível
func (s *ReminderService) checkReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execução cancelada: %w", err)
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("erro ao acessar o banco de dados: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("banco de dados inacessível: %w", err)
	}
	return nil
}

func (s *ReminderService) loadClients(ctx context.Context, ids []uint) (map[uint]*models.Cliente, error) {
	clients := make(map[uint]*models.Cliente)
	if len(ids) == 0 {
		return clients, nil
	}

	var rows []models.Cliente
	if err := s.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("erro ao carregar clientes: %w", err)
	}
	for i := range rows {
		clients[rows[i].ID] = &rows[i]
	}
	return clients, nil
}

// runItem isola a falha de um item para que o lote continue
func (s *ReminderService) runItem(batch *reminderBatch, kind string, id uint, fn func() error) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = fn()
	}()

	if err != nil {
		msg := fmt.Sprintf("Erro ao processar %s %d: %v", kind, id, err)
		utils.LogError("%s", msg)
		batch.result.Erros = append(batch.result.Erros, msg)
	}
}

// recipient retorna o cliente apto a receber lembretes, ou nil para pular o item
func (b *reminderBatch) recipient(clienteID uint) *models.Cliente {
	cliente, ok := b.clients[clienteID]
	if !ok || strings.TrimSpace(cliente.Email) == "" {
		return nil
	}
	return cliente
}

func (s *ReminderService) remindObligation(ctx context.Context, batch *reminderBatch, alert ObligationAlert) error {
	cliente := batch.recipient(alert.ClienteID)
	if cliente == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	valor := "0,00"
	if alert.Valor.Valid {
		valor = FormatBRL(alert.Valor.Decimal)
	}
	data := map[string]interface{}{
		"cliente_nome":        alert.ClienteNome,
		"obrigacao_tipo":      alert.ObrigacaoTipo,
		"obrigacao_descricao": alert.ObrigacaoDescricao,
		"data_vencimento":     alert.DataVencimento.String(),
		"valor":               valor,
	}
	subject := fmt.Sprintf("Lembrete: %s vence em %d dia(s)", alert.ObrigacaoTipo, alert.DiasRestantes)
	body := s.compose(ctx, batch, MessageKindDueReminder, data, func() string {
		return fmt.Sprintf("Prezado(a) %s,\n\nLembramos que a obrigação %s (%s) vence em %s, daqui a %d dia(s). Valor: R$ %s.\n\n"+
			"Em caso de dúvidas, nossa equipe está à disposição.\n\nAtenciosamente,\nEscritório Contábil",
			alert.ClienteNome, alert.ObrigacaoTipo, alert.ObrigacaoDescricao,
			alert.DataVencimento.Format("02/01/2006"), alert.DiasRestantes, valor)
	})

	s.sendEmail(ctx, batch, cliente.Email, subject, body)
	if cliente.HasPhone() {
		s.sendWhatsApp(ctx, batch, *cliente.Telefone, body)
	}

	clienteID := cliente.ID
	batch.notifications = append(batch.notifications, models.Notificacao{
		ClienteID:  &clienteID,
		Tipo:       "vencimento",
		Titulo:     subject,
		Mensagem:   body,
		Prioridade: alert.Prioridade,
		Status:     models.NotificacaoStatusPendente,
		Canal:      models.CanalSistema,
	})

	batch.result.VencimentosProcessados++
	return nil
}

func (s *ReminderService) remindDocument(ctx context.Context, batch *reminderBatch, alert DocumentAlert) error {
	cliente := batch.recipient(alert.ClienteID)
	if cliente == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := map[string]interface{}{
		"cliente_nome":         alert.ClienteNome,
		"documentos_pendentes": alert.NomeArquivo,
		"mes_referencia":       alert.MesReferencia,
		"dias_pendente":        alert.DiasPendente,
	}
	subject := fmt.Sprintf("Documento pendente de processamento há %d dias", alert.DiasPendente)
	body := s.compose(ctx, batch, MessageKindPendingDocument, data, func() string {
		return fmt.Sprintf("Prezado(a) %s,\n\nO documento %s, referente a %s, está pendente de processamento há %d dias. "+
			"Pedimos que confira o arquivo e, se necessário, envie uma nova versão.\n\nAtenciosamente,\nEscritório Contábil",
			alert.ClienteNome, alert.NomeArquivo, alert.MesReferencia, alert.DiasPendente)
	})

	s.sendEmail(ctx, batch, cliente.Email, subject, body)

	batch.result.DocumentosProcessados++
	return nil
}

func (s *ReminderService) remindFee(ctx context.Context, batch *reminderBatch, alert FeeAlert) error {
	cliente := batch.recipient(alert.ClienteID)
	if cliente == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	valor := FormatBRL(alert.Valor)
	data := map[string]interface{}{
		"cliente_nome":   alert.ClienteNome,
		"valor_atraso":   valor,
		"dias_atraso":    alert.DiasAtraso,
		"mes_referencia": alert.MesReferencia,
	}
	subject := fmt.Sprintf("Mensalidade em atraso - %d dias", alert.DiasAtraso)
	body := s.compose(ctx, batch, MessageKindOverdueFee, data, func() string {
		return fmt.Sprintf("Prezado(a) %s,\n\nIdentificamos que a mensalidade de %s, no valor de R$ %s, está em atraso há %d dias. "+
			"Entre em contato para regularizar o pagamento ou combinar uma alternativa.\n\nAtenciosamente,\nEscritório Contábil",
			alert.ClienteNome, alert.MesReferencia, valor, alert.DiasAtraso)
	})

	s.sendEmail(ctx, batch, cliente.Email, subject, body)

	batch.result.MensalidadesProcessadas++
	return nil
}

// compose gera a mensagem pela IA, usando o modelo padrão quando a geração falha
func (s *ReminderService) compose(ctx context.Context, batch *reminderBatch, kind string, data map[string]interface{}, fallback func() string) string {
	message, err := s.composer.ComposeMessage(ctx, kind, data)
	if err != nil {
		if !errors.Is(err, ErrAINotConfigured) {
			utils.LogWarn("Falha ao gerar mensagem (%s), usando modelo padrão: %v", kind, err)
		}
		batch.result.MensagensPadrao++
		return fallback()
	}
	return message
}

func (s *ReminderService) sendEmail(ctx context.Context, batch *reminderBatch, to, subject, body string) {
	err := s.email.SendEmail(ctx, to, subject, body)
	utils.GetMetrics().RecordDispatch("email", err)
	if err != nil {
		if !errors.Is(err, ErrEmailNotConfigured) {
			utils.LogError("Erro ao enviar email para %s: %v", to, err)
		}
		return
	}
	batch.result.EmailsEnviados++
}

func (s *ReminderService) sendWhatsApp(ctx context.Context, batch *reminderBatch, number, body string) {
	err := s.whatsapp.SendWhatsApp(ctx, number, body)
	utils.GetMetrics().RecordDispatch("whatsapp", err)
	if err != nil {
		utils.LogError("Erro ao enviar WhatsApp para %s: %v", number, err)
		return
	}
	batch.result.WhatsAppEnviados++
}

// saveNotifications grava as notificações do lote em uma única transação
func (s *ReminderService) saveNotifications(ctx context.Context, notifications []models.Notificacao) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", tx.Error)
	}

	if len(notifications) > 0 {
		if err := tx.Create(&notifications).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("erro ao salvar notificações: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("erro ao confirmar transação: %w", err)
	}
	return nil
}

func failedResult(err error) ReminderResult {
	utils.LogError("Erro geral no processamento de lembretes: %v", err)
	return ReminderResult{
		Erros:     []string{err.Error()},
		ErroGeral: err.Error(),
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func errorOrNil(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// FormatBRL formata um valor no padrão brasileiro, como 1.234,56
func FormatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
