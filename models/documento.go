package models

import "time"

// DocumentoStatus representa o estado de processamento de um documento
type DocumentoStatus string

const (
	DocumentoStatusPendente        DocumentoStatus = "pendente"         // Aguardando análise
	DocumentoStatusProcessado      DocumentoStatus = "processado"       // Analisado pela IA
	DocumentoStatusErro            DocumentoStatus = "erro"             // Falha na análise
	DocumentoStatusPendenteRevisao DocumentoStatus = "pendente_revisao" // Aguardando revisão manual
)

// CategoriaPadrao é usada quando nenhuma categoria pôde ser sugerida
const CategoriaPadrao = "Sem Categoria"

// Documento representa um arquivo enviado por um cliente
type Documento struct {
	ID                  uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ClienteID           uint            `gorm:"column:cliente_id;not null;index" json:"cliente_id"`
	Cliente             *Cliente        `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"-"`
	NomeArquivo         string          `gorm:"column:nome_arquivo;size:255;not null" json:"nome_arquivo"`
	TipoDocumento       string          `gorm:"column:tipo_documento;size:50;not null" json:"tipo_documento"`
	Categoria           string          `gorm:"column:categoria;size:50;not null" json:"categoria"`
	CaminhoArquivo      string          `gorm:"column:caminho_arquivo;size:500;not null" json:"caminho_arquivo"`
	TamanhoArquivo      int64           `gorm:"column:tamanho_arquivo;not null" json:"tamanho_arquivo"`
	MesReferencia       string          `gorm:"column:mes_referencia;size:7;not null" json:"mes_referencia"`
	ResumoIA            *string         `gorm:"column:resumo_ia;type:text" json:"resumo_ia"`
	PontosImportantes   *string         `gorm:"column:pontos_importantes;type:text" json:"pontos_importantes"`
	StatusProcessamento DocumentoStatus `gorm:"column:status_processamento;type:varchar(20);not null;default:'pendente';index" json:"status_processamento"`
	DataUpload          time.Time       `gorm:"column:data_upload;not null;index" json:"data_upload"`
	DataProcessamento   *time.Time      `gorm:"column:data_processamento" json:"data_processamento"`
}

// TableName retorna o nome da tabela de documentos
func (Documento) TableName() string {
	return "documentos"
}
