package services

import (
	"context"
	"testing"
	"time"

	"sistema-contabil/models"
)

func TestPriorityPolicyBoundaries(t *testing.T) {
	policy := DefaultPriorityPolicy()

	tests := []struct {
		name string
		got  models.Prioridade
		want models.Prioridade
	}{
		{"obrigacao vence hoje", policy.ObligationPriority(0), models.PrioridadeAlta},
		{"obrigacao vence amanha", policy.ObligationPriority(1), models.PrioridadeAlta},
		{"obrigacao em dois dias", policy.ObligationPriority(2), models.PrioridadeMedia},
		{"documento com 10 dias", policy.DocumentPriority(10), models.PrioridadeMedia},
		{"documento com 11 dias", policy.DocumentPriority(11), models.PrioridadeAlta},
		{"mensalidade com 30 dias", policy.FeePriority(30), models.PrioridadeAlta},
		{"mensalidade com 31 dias", policy.FeePriority(31), models.PrioridadeCritica},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestUpcomingObligationsWindow(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	today := models.NewDate(fixedNow)

	createObrigacao(t, db, cliente.ID, "DAS", today.AddDays(-1), models.ObrigacaoStatusPendente, "100.00")
	createObrigacao(t, db, cliente.ID, "DARF", today, models.ObrigacaoStatusPendente, "200.00")
	createObrigacao(t, db, cliente.ID, "INSS", today.AddDays(2), models.ObrigacaoStatusPendente, "")
	createObrigacao(t, db, cliente.ID, "FGTS", today.AddDays(3), models.ObrigacaoStatusPendente, "50.00")
	createObrigacao(t, db, cliente.ID, "ISS", today.AddDays(4), models.ObrigacaoStatusPendente, "10.00")
	createObrigacao(t, db, cliente.ID, "IRPJ", today.AddDays(1), models.ObrigacaoStatusPago, "10.00")

	service := NewAlertService(db, DefaultPriorityPolicy())
	service.now = fixedClock

	alerts, err := service.UpcomingObligations(context.Background(), 3)
	if err != nil {
		t.Fatalf("UpcomingObligations returned error: %v", err)
	}

	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}

	wantTypes := []string{"DARF", "INSS", "FGTS"}
	wantDays := []int{0, 2, 3}
	wantPriority := []models.Prioridade{models.PrioridadeAlta, models.PrioridadeMedia, models.PrioridadeMedia}
	for i, alert := range alerts {
		if alert.ObrigacaoTipo != wantTypes[i] {
			t.Errorf("alert %d: expected tipo %s, got %s", i, wantTypes[i], alert.ObrigacaoTipo)
		}
		if alert.DiasRestantes != wantDays[i] {
			t.Errorf("alert %d: expected %d days, got %d", i, wantDays[i], alert.DiasRestantes)
		}
		if alert.Prioridade != wantPriority[i] {
			t.Errorf("alert %d: expected priority %s, got %s", i, wantPriority[i], alert.Prioridade)
		}
		if alert.ClienteNome != "Alfa" {
			t.Errorf("alert %d: expected cliente Alfa, got %q", i, alert.ClienteNome)
		}
		if alert.Tipo != AlertTypeUpcomingObligation {
			t.Errorf("alert %d: unexpected tipo %s", i, alert.Tipo)
		}
	}
	if alerts[1].Valor.Valid {
		t.Error("expected INSS without valor")
	}
}

func TestStaleDocumentsWindow(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Beta", "beta@example.com")

	createDocumento(t, db, cliente.ID, "recente.pdf", fixedNow.Add(-2*24*time.Hour), models.DocumentoStatusPendente)
	createDocumento(t, db, cliente.ID, "antigo.pdf", fixedNow.Add(-8*24*time.Hour), models.DocumentoStatusPendente)
	createDocumento(t, db, cliente.ID, "muito-antigo.pdf", fixedNow.Add(-12*24*time.Hour), models.DocumentoStatusPendente)
	createDocumento(t, db, cliente.ID, "processado.pdf", fixedNow.Add(-20*24*time.Hour), models.DocumentoStatusProcessado)

	service := NewAlertService(db, DefaultPriorityPolicy())
	service.now = fixedClock

	alerts, err := service.StaleDocuments(context.Background(), 7)
	if err != nil {
		t.Fatalf("StaleDocuments returned error: %v", err)
	}

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].NomeArquivo != "muito-antigo.pdf" || alerts[0].DiasPendente != 12 {
		t.Errorf("unexpected first alert: %+v", alerts[0])
	}
	if alerts[0].Prioridade != models.PrioridadeAlta {
		t.Errorf("expected alta for 12 days, got %s", alerts[0].Prioridade)
	}
	if alerts[1].NomeArquivo != "antigo.pdf" || alerts[1].Prioridade != models.PrioridadeMedia {
		t.Errorf("unexpected second alert: %+v", alerts[1])
	}
}

func TestOverdueFees(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Gama", "gama@example.com")
	today := models.NewDate(fixedNow)

	createMensalidade(t, db, cliente.ID, today.AddDays(-31), models.MensalidadeStatusPendente, "500.00")
	createMensalidade(t, db, cliente.ID, today.AddDays(-5), models.MensalidadeStatusPendente, "500.00")
	createMensalidade(t, db, cliente.ID, today, models.MensalidadeStatusPendente, "500.00")
	createMensalidade(t, db, cliente.ID, today.AddDays(-40), models.MensalidadeStatusPago, "500.00")

	service := NewAlertService(db, DefaultPriorityPolicy())
	service.now = fixedClock

	alerts, err := service.OverdueFees(context.Background())
	if err != nil {
		t.Fatalf("OverdueFees returned error: %v", err)
	}

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].DiasAtraso != 31 || alerts[0].Prioridade != models.PrioridadeCritica {
		t.Errorf("unexpected first alert: %+v", alerts[0])
	}
	if alerts[1].DiasAtraso != 5 || alerts[1].Prioridade != models.PrioridadeAlta {
		t.Errorf("unexpected second alert: %+v", alerts[1])
	}
}
