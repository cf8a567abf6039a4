package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Operador representa um funcionário do escritório com acesso à API
type Operador struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome            string    `gorm:"column:nome;not null;size:100" json:"nome"`
	Email           string    `gorm:"column:email;uniqueIndex;not null;size:100" json:"email"`
	SenhaHash       string    `gorm:"column:senha_hash;not null;size:100" json:"-"`
	TOTPSecret      *string   `gorm:"column:totp_secret;size:64" json:"-"`
	Ativo           bool      `gorm:"column:ativo;not null" json:"ativo"`
	DataCadastro    time.Time `gorm:"column:data_cadastro;autoCreateTime" json:"data_cadastro"`
	DataAtualizacao time.Time `gorm:"column:data_atualizacao;autoUpdateTime" json:"data_atualizacao"`
}

// TableName retorna o nome da tabela de operadores
func (Operador) TableName() string {
	return "operadores"
}

// BeforeCreate valida os campos antes da criação
func (o *Operador) BeforeCreate(tx *gorm.DB) error {
	if len(o.Nome) < 2 || len(o.Nome) > 100 {
		return errors.New("nome deve ter entre 2 e 100 caracteres")
	}
	if len(o.Email) < 3 || len(o.Email) > 100 {
		return errors.New("email deve ter entre 3 e 100 caracteres")
	}
	return nil
}

// TOTPEnabled informa se o segundo fator está ativo
func (o *Operador) TOTPEnabled() bool {
	return o.TOTPSecret != nil && *o.TOTPSecret != ""
}
