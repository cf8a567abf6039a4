package services

import (
	"context"
	"errors"
	"fmt"

	"sistema-contabil/models"
	"sistema-contabil/storage"
	"sistema-contabil/utils"

	"gorm.io/gorm"
)

// DocumentoFilter filtra a listagem de documentos
type DocumentoFilter struct {
	ClienteID *uint
	Status    string
	Categoria string
}

// DocumentoView é um documento acompanhado do nome do cliente
type DocumentoView struct {
	models.Documento
	ClienteNome string `json:"cliente_nome"`
}

// DocumentService fornece métodos para consultar e remover documentos
type DocumentService struct {
	db      *gorm.DB
	storage storage.Storage
}

// NewDocumentService cria uma nova instância de DocumentService
func NewDocumentService(db *gorm.DB, store storage.Storage) *DocumentService {
	return &DocumentService{db: db, storage: store}
}

// List retorna os documentos filtrados, dos mais recentes para os mais antigos
func (s *DocumentService) List(ctx context.Context, filter DocumentoFilter) ([]DocumentoView, error) {
	query := s.db.WithContext(ctx).Preload("Cliente")
	if filter.ClienteID != nil {
		query = query.Where("cliente_id = ?", *filter.ClienteID)
	}
	if filter.Status != "" {
		query = query.Where("status_processamento = ?", filter.Status)
	}
	if filter.Categoria != "" {
		query = query.Where("categoria = ?", filter.Categoria)
	}

	var documentos []models.Documento
	if err := query.Order("data_upload DESC, id DESC").Find(&documentos).Error; err != nil {
		return nil, fmt.Errorf("erro ao listar documentos: %w", err)
	}

	views := make([]DocumentoView, 0, len(documentos))
	for _, d := range documentos {
		views = append(views, DocumentoView{Documento: d, ClienteNome: clientName(d.Cliente)})
	}
	return views, nil
}

// GetByID retorna um documento pelo ID
func (s *DocumentService) GetByID(ctx context.Context, id uint) (*DocumentoView, error) {
	var documento models.Documento
	if err := s.db.WithContext(ctx).Preload("Cliente").First(&documento, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("erro ao buscar documento: %w", err)
	}
	return &DocumentoView{Documento: documento, ClienteNome: clientName(documento.Cliente)}, nil
}

// Delete remove o documento e o arquivo armazenado
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Documento{}, doc.ID).Error; err != nil {
		return fmt.Errorf("erro ao remover documento: %w", err)
	}

	// O registro já foi removido; um arquivo remanescente só ocupa espaço
	if err := s.storage.Delete(ctx, doc.CaminhoArquivo); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		utils.LogWarn("Erro ao remover arquivo %s do documento %d: %v", doc.CaminhoArquivo, doc.ID, err)
	}
	return nil
}
