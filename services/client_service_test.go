package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sistema-contabil/models"
	"sistema-contabil/utils"
)

func validClienteRequest(nome, cnpj string) ClienteRequest {
	return ClienteRequest{
		Nome:             nome,
		CNPJ:             cnpj,
		RegimeTributario: "Simples Nacional",
		ResponsavelLegal: "Maria Souza",
		Email:            "contato@example.com",
	}
}

func TestClientCreate(t *testing.T) {
	service := NewClientService(newTestDB(t))
	ctx := context.Background()

	cliente, err := service.Create(ctx, validClienteRequest(" Padaria Central ", "12.345.678/0001-90"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if cliente.ID == 0 || cliente.Nome != "Padaria Central" || !cliente.Ativo {
		t.Errorf("unexpected client: %+v", cliente)
	}

	_, err = service.Create(ctx, validClienteRequest("Outra Padaria", "12.345.678/0001-90"))
	if !errors.Is(err, ErrDuplicateCNPJ) {
		t.Errorf("expected ErrDuplicateCNPJ, got %v", err)
	}
	if utils.StatusOf(err) != http.StatusConflict {
		t.Errorf("expected 409, got %d", utils.StatusOf(err))
	}
}

func TestClientCreateValidation(t *testing.T) {
	service := NewClientService(newTestDB(t))

	req := validClienteRequest("Padaria", "12.345.678/0001-90")
	req.Email = "nao-e-email"

	_, err := service.Create(context.Background(), req)
	if utils.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid email, got %v", err)
	}

	_, err = service.Create(context.Background(), ClienteRequest{Nome: "Padaria"})
	if utils.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %v", err)
	}
}

func TestClientUpdate(t *testing.T) {
	db := newTestDB(t)
	alfa := createCliente(t, db, "Alfa", "alfa@example.com")
	beta := createCliente(t, db, "Beta", "beta@example.com")
	service := NewClientService(db)
	ctx := context.Background()

	inativo := false
	updated, err := service.Update(ctx, alfa.ID, ClienteUpdateRequest{Nome: strPtr("Alfa Ltda"), Ativo: &inativo})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Nome != "Alfa Ltda" || updated.Ativo {
		t.Errorf("unexpected updated client: %+v", updated)
	}

	if _, err := service.Update(ctx, alfa.ID, ClienteUpdateRequest{CNPJ: &beta.CNPJ}); !errors.Is(err, ErrDuplicateCNPJ) {
		t.Errorf("expected ErrDuplicateCNPJ, got %v", err)
	}
	if _, err := service.Update(ctx, 999, ClienteUpdateRequest{}); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestClientListFilters(t *testing.T) {
	db := newTestDB(t)
	createCliente(t, db, "Alfa Contabil", "alfa@example.com")
	beta := createCliente(t, db, "Beta Comercio", "beta@example.com")
	if err := db.Model(beta).Update("ativo", false).Error; err != nil {
		t.Fatal(err)
	}
	service := NewClientService(db)

	ativo := true
	clientes, err := service.List(context.Background(), ClienteFilter{Ativo: &ativo})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(clientes) != 1 || clientes[0].Nome != "Alfa Contabil" {
		t.Errorf("unexpected active list: %+v", clientes)
	}

	clientes, err = service.List(context.Background(), ClienteFilter{Busca: "comercio"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(clientes) != 1 || clientes[0].ID != beta.ID {
		t.Errorf("unexpected search result: %+v", clientes)
	}

	clientes, err = service.List(context.Background(), ClienteFilter{Busca: beta.CNPJ})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(clientes) != 1 || clientes[0].ID != beta.ID {
		t.Errorf("unexpected CNPJ search result: %+v", clientes)
	}
}

func TestClientDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	today := models.NewDate(fixedNow)
	createObrigacao(t, db, cliente.ID, "DAS", today, models.ObrigacaoStatusPendente, "")
	createDocumento(t, db, cliente.ID, "nota.pdf", fixedNow, models.DocumentoStatusPendente)
	createMensalidade(t, db, cliente.ID, today, models.MensalidadeStatusPendente, "100.00")

	notificacao := models.Notificacao{
		ClienteID:  &cliente.ID,
		Tipo:       "vencimento",
		Titulo:     "Vencimento próximo",
		Mensagem:   "DAS vence hoje",
		Prioridade: models.PrioridadeAlta,
		Status:     models.NotificacaoStatusEnviado,
		Canal:      models.CanalSistema,
	}
	if err := db.Create(&notificacao).Error; err != nil {
		t.Fatal(err)
	}

	service := NewClientService(db)
	if err := service.Delete(context.Background(), cliente.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	for _, model := range []interface{}{&models.Obrigacao{}, &models.Documento{}, &models.Mensalidade{}} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("expected %T rows to be removed, found %d", model, count)
		}
	}

	var kept models.Notificacao
	if err := db.First(&kept, notificacao.ID).Error; err != nil {
		t.Fatalf("notification must be kept: %v", err)
	}
	if kept.ClienteID != nil {
		t.Errorf("expected cliente_id to be cleared, got %v", *kept.ClienteID)
	}

	if err := service.Delete(context.Background(), cliente.ID); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}
