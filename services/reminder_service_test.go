package services

import (
	"context"
	"testing"
	"time"

	"sistema-contabil/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestReminderService(db *gorm.DB, composer MessageComposer, email, whatsapp *fakeSender) *ReminderService {
	alerts := NewAlertService(db, DefaultPriorityPolicy())
	alerts.now = fixedClock
	return NewReminderService(db, alerts, composer, email, whatsapp, ReminderWindows{
		UpcomingDays:      3,
		StaleDocumentDays: 7,
	})
}

func countNotificacoes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Notificacao{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count notificacoes: %v", err)
	}
	return count
}

func TestProcessRemindersWithoutAlerts(t *testing.T) {
	db := newTestDB(t)
	createCliente(t, db, "Alfa", "alfa@example.com")

	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if result.ErroGeral != "" {
		t.Fatalf("unexpected erro_geral: %s", result.ErroGeral)
	}
	if result.VencimentosProcessados+result.DocumentosProcessados+result.MensalidadesProcessadas != 0 {
		t.Errorf("expected no processed items, got %+v", result)
	}
	if result.NotificacoesCriadas != 0 || len(result.Erros) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	if len(email.sent) != 0 {
		t.Errorf("expected no emails, got %v", email.sent)
	}
}

func TestProcessRemindersNotifiesOnlyObligations(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	cliente.Telefone = strPtr("+5511999990000")
	if err := db.Save(cliente).Error; err != nil {
		t.Fatal(err)
	}
	today := models.NewDate(fixedNow)

	createObrigacao(t, db, cliente.ID, "DAS", today.AddDays(1), models.ObrigacaoStatusPendente, "1234.50")
	createDocumento(t, db, cliente.ID, "extrato.pdf", fixedNow.Add(-9*24*time.Hour), models.DocumentoStatusPendente)
	createMensalidade(t, db, cliente.ID, today.AddDays(-10), models.MensalidadeStatusPendente, "300.00")

	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if result.VencimentosProcessados != 1 || result.DocumentosProcessados != 1 || result.MensalidadesProcessadas != 1 {
		t.Fatalf("expected one item of each kind, got %+v", result)
	}
	if result.EmailsEnviados != 3 {
		t.Errorf("expected 3 emails, got %d", result.EmailsEnviados)
	}
	if result.WhatsAppEnviados != 1 {
		t.Errorf("expected 1 whatsapp for the obligation, got %d", result.WhatsAppEnviados)
	}
	if result.NotificacoesCriadas != 1 {
		t.Errorf("expected 1 notification, got %d", result.NotificacoesCriadas)
	}
	if got := countNotificacoes(t, db); got != 1 {
		t.Fatalf("expected 1 stored notification, got %d", got)
	}

	var notificacao models.Notificacao
	if err := db.First(&notificacao).Error; err != nil {
		t.Fatal(err)
	}
	if notificacao.Tipo != "vencimento" || notificacao.Canal != models.CanalSistema {
		t.Errorf("unexpected notification: %+v", notificacao)
	}
	if notificacao.Prioridade != models.PrioridadeAlta {
		t.Errorf("expected alta priority, got %s", notificacao.Prioridade)
	}
	if notificacao.Mensagem != "mensagem gerada para "+MessageKindDueReminder {
		t.Errorf("unexpected message: %q", notificacao.Mensagem)
	}
}

func TestProcessRemindersSkipsClientWithoutEmail(t *testing.T) {
	db := newTestDB(t)
	semEmail := createCliente(t, db, "SemEmail", "")
	comEmail := createCliente(t, db, "ComEmail", "contato@example.com")
	today := models.NewDate(fixedNow)

	createObrigacao(t, db, semEmail.ID, "DAS", today.AddDays(1), models.ObrigacaoStatusPendente, "10.00")
	createObrigacao(t, db, comEmail.ID, "DAS", today.AddDays(2), models.ObrigacaoStatusPendente, "10.00")

	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if result.VencimentosProcessados != 1 {
		t.Errorf("expected 1 processed obligation, got %d", result.VencimentosProcessados)
	}
	if len(email.sent) != 1 || email.sent[0] != "contato@example.com" {
		t.Errorf("unexpected recipients: %v", email.sent)
	}
	if len(result.Erros) != 0 {
		t.Errorf("skipped client must not be an error: %v", result.Erros)
	}
}

func TestProcessRemindersUsesFallbackMessage(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	createMensalidade(t, db, cliente.ID, models.NewDate(fixedNow).AddDays(-3), models.MensalidadeStatusPendente, "1500.00")

	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{err: ErrAINotConfigured}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if result.MensagensPadrao != 1 {
		t.Errorf("expected 1 fallback message, got %d", result.MensagensPadrao)
	}
	if result.MensalidadesProcessadas != 1 || result.EmailsEnviados != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestProcessRemindersEmailFailureIsNotCounted(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	createObrigacao(t, db, cliente.ID, "DAS", models.NewDate(fixedNow), models.ObrigacaoStatusPendente, "10.00")

	email, whatsapp := &fakeSender{err: errGatewayDown}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if result.EmailsEnviados != 0 {
		t.Errorf("expected no emails counted, got %d", result.EmailsEnviados)
	}
	if result.VencimentosProcessados != 1 || result.NotificacoesCriadas != 1 {
		t.Errorf("a failed send must not abort the item: %+v", result)
	}
	if len(result.Erros) != 0 {
		t.Errorf("send failures are logged, not reported: %v", result.Erros)
	}
}

func TestProcessRemindersIsolatesItemErrors(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	today := models.NewDate(fixedNow)

	createObrigacao(t, db, cliente.ID, "DAS", today.AddDays(1), models.ObrigacaoStatusPendente, "10.00")
	createObrigacao(t, db, cliente.ID, "DARF", today.AddDays(2), models.ObrigacaoStatusPendente, "20.00")

	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{panic: true}, email, whatsapp)

	result := service.ProcessReminders(context.Background())

	if len(result.Erros) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Erros)
	}
	if result.VencimentosProcessados != 1 {
		t.Errorf("expected the second item to be processed, got %d", result.VencimentosProcessados)
	}
	if got := countNotificacoes(t, db); got != 1 {
		t.Errorf("expected 1 stored notification, got %d", got)
	}
}

func TestProcessRemindersCancelledContext(t *testing.T) {
	db := newTestDB(t)
	email, whatsapp := &fakeSender{}, &fakeSender{}
	service := newTestReminderService(db, &fakeComposer{}, email, whatsapp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := service.ProcessReminders(ctx)
	if result.ErroGeral == "" {
		t.Error("expected erro_geral for a cancelled context")
	}
	if result.NotificacoesCriadas != 0 {
		t.Errorf("expected no notifications, got %d", result.NotificacoesCriadas)
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"12.5", "12,50"},
		{"1234.56", "1.234,56"},
		{"1234567.891", "1.234.567,89"},
		{"-1500", "-1.500,00"},
	}

	for _, tt := range tests {
		if got := FormatBRL(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatBRL(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
