package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/shopspring/decimal"
)

func TestFeeCreateRejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	service := NewFeeService(db)
	ctx := context.Background()

	_, err := service.Create(ctx, MensalidadeRequest{
		ClienteID:      cliente.ID,
		MesReferencia:  "2024-03",
		Valor:          decimal.Zero,
		DataVencimento: "2024-03-10",
	})
	if utils.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for zero valor, got %v", err)
	}

	_, err = service.Create(ctx, MensalidadeRequest{
		ClienteID:      999,
		MesReferencia:  "2024-03",
		Valor:          decimal.NewFromInt(500),
		DataVencimento: "2024-03-10",
	})
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}

	_, err = service.Create(ctx, MensalidadeRequest{ClienteID: cliente.ID, Valor: decimal.NewFromInt(500)})
	if utils.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %v", err)
	}
}

func TestFeePay(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	service := NewFeeService(db)
	service.now = fixedClock
	ctx := context.Background()

	mensalidade, err := service.Create(ctx, MensalidadeRequest{
		ClienteID:      cliente.ID,
		MesReferencia:  "2024-03",
		Valor:          decimal.RequireFromString("850.00"),
		DataVencimento: "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	paga, err := service.Pay(ctx, mensalidade.ID, PagamentoRequest{FormaPagamento: strPtr("pix")})
	if err != nil {
		t.Fatalf("Pay returned error: %v", err)
	}
	if paga.Status != models.MensalidadeStatusPago {
		t.Errorf("expected status pago, got %s", paga.Status)
	}
	if paga.DataPagamento == nil || paga.DataPagamento.String() != "2024-03-15" {
		t.Errorf("expected payment date to default to today, got %v", paga.DataPagamento)
	}
	if paga.FormaPagamento == nil || *paga.FormaPagamento != "pix" {
		t.Errorf("unexpected forma_pagamento: %v", paga.FormaPagamento)
	}

	if _, err := service.Pay(ctx, mensalidade.ID, PagamentoRequest{}); utils.StatusOf(err) != http.StatusConflict {
		t.Errorf("expected 409 when paying twice, got %v", err)
	}
	if _, err := service.Pay(ctx, 999, PagamentoRequest{}); !errors.Is(err, ErrFeeNotFound) {
		t.Errorf("expected ErrFeeNotFound, got %v", err)
	}
}

func TestFeeListOrderAndFilters(t *testing.T) {
	db := newTestDB(t)
	alfa := createCliente(t, db, "Alfa", "alfa@example.com")
	beta := createCliente(t, db, "Beta", "beta@example.com")
	today := models.NewDate(fixedNow)

	createMensalidade(t, db, alfa.ID, today.AddDays(-30), models.MensalidadeStatusPago, "100.00")
	createMensalidade(t, db, alfa.ID, today, models.MensalidadeStatusPendente, "100.00")
	createMensalidade(t, db, beta.ID, today, models.MensalidadeStatusPendente, "300.00")

	service := NewFeeService(db)

	views, err := service.List(context.Background(), MensalidadeFilter{ClienteID: &alfa.ID})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 fees, got %d", len(views))
	}
	if !views[1].DataVencimento.Before(views[0].DataVencimento) {
		t.Error("expected the most recent fee first")
	}
	if views[0].ClienteNome != "Alfa" {
		t.Errorf("unexpected cliente_nome %q", views[0].ClienteNome)
	}

	views, err = service.List(context.Background(), MensalidadeFilter{Status: "pendente"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 {
		t.Errorf("expected 2 pending fees, got %d", len(views))
	}
}

func TestFeeUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	cliente := createCliente(t, db, "Alfa", "alfa@example.com")
	mensalidade := createMensalidade(t, db, cliente.ID, models.NewDate(fixedNow), models.MensalidadeStatusPendente, "100.00")
	service := NewFeeService(db)
	ctx := context.Background()

	cancelado := models.MensalidadeStatusCancelado
	updated, err := service.Update(ctx, mensalidade.ID, MensalidadeUpdateRequest{
		Status: &cancelado,
		Valor:  decimal.NewNullDecimal(decimal.RequireFromString("120.00")),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Status != models.MensalidadeStatusCancelado || !updated.Valor.Equal(decimal.NewFromInt(120)) {
		t.Errorf("unexpected updated fee: %+v", updated)
	}

	if err := service.Delete(ctx, mensalidade.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := service.GetByID(ctx, mensalidade.ID); !errors.Is(err, ErrFeeNotFound) {
		t.Errorf("expected ErrFeeNotFound after delete, got %v", err)
	}
}
