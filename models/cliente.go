package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Cliente representa uma empresa atendida pelo escritório
type Cliente struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome             string    `gorm:"column:nome;size:200;not null" json:"nome"`
	CNPJ             string    `gorm:"column:cnpj;size:18;uniqueIndex;not null" json:"cnpj"`
	RegimeTributario string    `gorm:"column:regime_tributario;size:50;not null" json:"regime_tributario"`
	ResponsavelLegal string    `gorm:"column:responsavel_legal;size:200;not null" json:"responsavel_legal"`
	Email            string    `gorm:"column:email;size:120" json:"email"`
	Telefone         *string   `gorm:"column:telefone;size:20" json:"telefone"`
	Endereco         *string   `gorm:"column:endereco;type:text" json:"endereco"`
	Ativo            bool      `gorm:"column:ativo;not null" json:"ativo"`
	DataCadastro     time.Time `gorm:"column:data_cadastro;autoCreateTime" json:"data_cadastro"`
	DataAtualizacao  time.Time `gorm:"column:data_atualizacao;autoUpdateTime" json:"data_atualizacao"`
}

// TableName retorna o nome da tabela de clientes
func (Cliente) TableName() string {
	return "clientes"
}

// BeforeSave normaliza o CNPJ e valida os campos obrigatórios
func (c *Cliente) BeforeSave(tx *gorm.DB) error {
	c.CNPJ = strings.TrimSpace(c.CNPJ)
	if c.Nome == "" || c.CNPJ == "" {
		return errors.New("nome e cnpj são obrigatórios")
	}
	return nil
}

// HasPhone informa se o cliente tem telefone para WhatsApp
func (c *Cliente) HasPhone() bool {
	return c.Telefone != nil && strings.TrimSpace(*c.Telefone) != ""
}
