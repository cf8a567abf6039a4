package models

import "time"

// Prioridade representa a urgência de um alerta ou notificação
type Prioridade string

const (
	PrioridadeBaixa   Prioridade = "baixa"
	PrioridadeMedia   Prioridade = "media"
	PrioridadeAlta    Prioridade = "alta"
	PrioridadeCritica Prioridade = "critica"
)

// NotificacaoStatus representa o ciclo de vida de uma notificação
type NotificacaoStatus string

const (
	NotificacaoStatusPendente NotificacaoStatus = "pendente"
	NotificacaoStatusEnviado  NotificacaoStatus = "enviado"
	NotificacaoStatusLido     NotificacaoStatus = "lido"
)

// Canal representa o meio pelo qual a notificação foi comunicada
type Canal string

const (
	CanalEmail    Canal = "email"
	CanalWhatsApp Canal = "whatsapp"
	CanalSistema  Canal = "sistema"
)

// Notificacao registra um alerta comunicado a um cliente
type Notificacao struct {
	ID          uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	ClienteID   *uint             `gorm:"column:cliente_id;index" json:"cliente_id"`
	Cliente     *Cliente          `gorm:"foreignKey:ClienteID;constraint:OnDelete:SET NULL" json:"-"`
	Tipo        string            `gorm:"column:tipo;size:50;not null" json:"tipo"`
	Titulo      string            `gorm:"column:titulo;size:200;not null" json:"titulo"`
	Mensagem    string            `gorm:"column:mensagem;type:text;not null" json:"mensagem"`
	Prioridade  Prioridade        `gorm:"column:prioridade;type:varchar(20);not null;default:'media'" json:"prioridade"`
	Status      NotificacaoStatus `gorm:"column:status;type:varchar(20);not null;default:'pendente';index" json:"status"`
	Canal       Canal             `gorm:"column:canal;type:varchar(20);not null" json:"canal"`
	DataEnvio   *time.Time        `gorm:"column:data_envio" json:"data_envio"`
	DataLeitura *time.Time        `gorm:"column:data_leitura" json:"data_leitura"`
	DataCriacao time.Time         `gorm:"column:data_criacao;autoCreateTime" json:"data_criacao"`
}

// TableName retorna o nome da tabela de notificações
func (Notificacao) TableName() string {
	return "notificacoes"
}
