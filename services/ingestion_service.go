package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sistema-contabil/extractor"
	"sistema-contabil/models"
	"sistema-contabil/storage"
	"sistema-contabil/utils"

	"gorm.io/gorm"
)

const (
	previewSize = 200
	resumoSize  = 500
)

// UploadRequest contém o arquivo enviado e o cliente dono dele
type UploadRequest struct {
	ClienteID string
	Filename  string
	Data      []byte
}

// UploadResponse descreve o documento criado a partir de um upload
type UploadResponse struct {
	Mensagem            string                 `json:"message"`
	DocumentoID         uint                   `json:"documento_id"`
	Filename            string                 `json:"filename"`
	ExtractedValue      *float64               `json:"extracted_value"`
	ExtractedDate       *string                `json:"extracted_date"`
	SuggestedCategory   string                 `json:"suggested_category"`
	StatusProcessamento models.DocumentoStatus `json:"status_processamento"`
	PreviewText         string                 `json:"preview_text"`
}

// IngestionService recebe arquivos, extrai seus dados e cria os documentos
type IngestionService struct {
	db      *gorm.DB
	storage storage.Storage
	hub     *AlertHub
	now     func() time.Time
}

// NewIngestionService cria uma nova instância de IngestionService
func NewIngestionService(db *gorm.DB, store storage.Storage, hub *AlertHub) *IngestionService {
	return &IngestionService{
		db:      db,
		storage: store,
		hub:     hub,
		now:     time.Now,
	}
}

// Upload armazena o arquivo, extrai valor, data e categoria e cria o documento pendente
func (s *IngestionService) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	if strings.TrimSpace(req.ClienteID) == "" {
		return nil, utils.NewBadRequestError("ID do cliente é obrigatório.")
	}
	clienteID, err := strconv.ParseUint(strings.TrimSpace(req.ClienteID), 10, 32)
	if err != nil {
		return nil, utils.NewBadRequestError("ID do cliente inválido.")
	}
	if req.Filename == "" || len(req.Data) == 0 {
		return nil, utils.NewBadRequestError("Nenhum arquivo 'documento' encontrado")
	}

	var cliente models.Cliente
	if err := s.db.WithContext(ctx).First(&cliente, uint(clienteID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Cliente não encontrado")
		}
		return nil, fmt.Errorf("erro ao buscar cliente: %w", err)
	}

	filename := storage.SecureFilename(req.Filename)
	extracted, err := extractor.Extract(filename, req.Data)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupportedType) {
			return nil, utils.NewBadRequestError("Tipo de arquivo não permitido")
		}
		return nil, err
	}
	if extracted.TextErr != nil {
		utils.LogWarn("Texto de %s não extraído: %v", filename, extracted.TextErr)
	}

	key := storage.ObjectKey(cliente.ID, filename)
	if err := s.storage.Upload(ctx, key, req.Data, extractor.ContentType(filename)); err != nil {
		return nil, fmt.Errorf("erro ao armazenar arquivo: %w", err)
	}

	now := s.now().UTC()
	mesReferencia := now.Format("2006-01")
	if extracted.Date != "" {
		if d, err := models.ParseDate(extracted.Date); err == nil {
			mesReferencia = d.MonthRef()
		}
	}

	doc := &models.Documento{
		ClienteID:           cliente.ID,
		NomeArquivo:         filename,
		TipoDocumento:       extracted.Type,
		Categoria:           extracted.Category,
		CaminhoArquivo:      key,
		TamanhoArquivo:      int64(len(req.Data)),
		MesReferencia:       mesReferencia,
		StatusProcessamento: models.DocumentoStatusPendente,
		DataUpload:          now,
	}
	if extracted.Text != "" {
		preview := ellipsis(extracted.Text, resumoSize)
		doc.ResumoIA = &preview
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		// O arquivo sem registro ficaria órfão no armazenamento
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			utils.LogWarn("Erro ao remover arquivo órfão %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("erro ao salvar documento: %w", err)
	}

	resp := &UploadResponse{
		Mensagem:            "Documento enviado com sucesso!",
		DocumentoID:         doc.ID,
		Filename:            doc.NomeArquivo,
		SuggestedCategory:   extracted.Category,
		StatusProcessamento: doc.StatusProcessamento,
		PreviewText:         ellipsis(extracted.Text, previewSize),
	}
	if amount, ok := extractor.ParseAmount(extracted.Value); ok {
		f := amount.InexactFloat64()
		resp.ExtractedValue = &f
	}
	if extracted.Date != "" {
		date := extracted.Date
		resp.ExtractedDate = &date
	}

	utils.LogInfo("Documento %d recebido para o cliente %d (%s)", doc.ID, cliente.ID, doc.TipoDocumento)
	s.hub.Broadcast(EventDocumentUpload, map[string]interface{}{
		"documento_id": doc.ID,
		"cliente_id":   cliente.ID,
		"nome_arquivo": doc.NomeArquivo,
		"categoria":    doc.Categoria,
	})

	return resp, nil
}

// ellipsis corta s em n runas, acrescentando reticências quando houver corte
func ellipsis(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return truncate(s, n) + "..."
}
