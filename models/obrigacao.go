package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObrigacaoStatus representa o status de uma obrigação fiscal
type ObrigacaoStatus string

const (
	ObrigacaoStatusPendente ObrigacaoStatus = "pendente" // Aguardando pagamento/entrega
	ObrigacaoStatusPago     ObrigacaoStatus = "pago"     // Cumprida
)

// Obrigacao representa uma obrigação tributária ou acessória de um cliente
type Obrigacao struct {
	ID              uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	ClienteID       uint                `gorm:"column:cliente_id;not null;index" json:"cliente_id"`
	Cliente         *Cliente            `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"-"`
	Tipo            string              `gorm:"column:tipo;size:50;not null" json:"tipo"`
	Descricao       string              `gorm:"column:descricao;size:255;not null" json:"descricao"`
	DataVencimento  Date                `gorm:"column:data_vencimento;type:date;not null;index" json:"data_vencimento"`
	Valor           decimal.NullDecimal `gorm:"column:valor;type:numeric(12,2)" json:"valor"`
	Status          ObrigacaoStatus     `gorm:"column:status;type:varchar(20);not null;default:'pendente';index" json:"status"`
	MesReferencia   string              `gorm:"column:mes_referencia;size:7;not null" json:"mes_referencia"`
	CodigoReceita   *string             `gorm:"column:codigo_receita;size:20" json:"codigo_receita"`
	Observacoes     *string             `gorm:"column:observacoes;type:text" json:"observacoes"`
	DataPagamento   *Date               `gorm:"column:data_pagamento;type:date" json:"data_pagamento"`
	DataCriacao     time.Time           `gorm:"column:data_criacao;autoCreateTime" json:"data_criacao"`
	DataAtualizacao time.Time           `gorm:"column:data_atualizacao;autoUpdateTime" json:"data_atualizacao"`
}

// TableName retorna o nome da tabela de obrigações
func (Obrigacao) TableName() string {
	return "obrigacoes"
}
