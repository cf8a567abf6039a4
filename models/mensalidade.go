package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MensalidadeStatus representa o status de cobrança de uma mensalidade
type MensalidadeStatus string

const (
	MensalidadeStatusPendente  MensalidadeStatus = "pendente"
	MensalidadeStatusPago      MensalidadeStatus = "pago"
	MensalidadeStatusVencido   MensalidadeStatus = "vencido"
	MensalidadeStatusCancelado MensalidadeStatus = "cancelado"
)

// Mensalidade representa os honorários mensais cobrados de um cliente
type Mensalidade struct {
	ID              uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	ClienteID       uint              `gorm:"column:cliente_id;not null;index" json:"cliente_id"`
	Cliente         *Cliente          `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"-"`
	MesReferencia   string            `gorm:"column:mes_referencia;size:7;not null" json:"mes_referencia"`
	Valor           decimal.Decimal   `gorm:"column:valor;type:numeric(10,2);not null" json:"valor"`
	DataVencimento  Date              `gorm:"column:data_vencimento;type:date;not null;index" json:"data_vencimento"`
	Status          MensalidadeStatus `gorm:"column:status;type:varchar(20);not null;default:'pendente';index" json:"status"`
	DataPagamento   *Date             `gorm:"column:data_pagamento;type:date" json:"data_pagamento"`
	FormaPagamento  *string           `gorm:"column:forma_pagamento;size:50" json:"forma_pagamento"`
	Observacoes     *string           `gorm:"column:observacoes;type:text" json:"observacoes"`
	DataCriacao     time.Time         `gorm:"column:data_criacao;autoCreateTime" json:"data_criacao"`
	DataAtualizacao time.Time         `gorm:"column:data_atualizacao;autoUpdateTime" json:"data_atualizacao"`
}

// TableName retorna o nome da tabela de mensalidades
func (Mensalidade) TableName() string {
	return "mensalidades"
}
