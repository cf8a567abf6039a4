package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sistema-contabil/extractor"
	"sistema-contabil/models"
	"sistema-contabil/storage"
	"sistema-contabil/utils"

	"gorm.io/gorm"
)

// DocumentAnalyzer analisa o texto de um documento
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text, tipo, categoria string) (*DocumentAnalysis, error)
}

// DocumentDetail descreve o resultado do processamento de um documento
type DocumentDetail struct {
	DocumentoID uint   `json:"documento_id"`
	NomeArquivo string `json:"nome_arquivo"`
	Status      string `json:"status"`
	Erro        string `json:"erro,omitempty"`
}

// DocumentBatchResult resume uma execução do processamento de documentos
type DocumentBatchResult struct {
	TotalProcessados int              `json:"total_processados"`
	Sucessos         int              `json:"sucessos"`
	Erros            int              `json:"erros"`
	Detalhes         []DocumentDetail `json:"detalhes"`
	ErroGeral        string           `json:"erro_geral,omitempty"`
}

// DocumentProcessingService processa documentos pendentes com a IA
type DocumentProcessingService struct {
	db        *gorm.DB
	analyzer  DocumentAnalyzer
	storage   storage.Storage
	batchSize int
	now       func() time.Time
}

// NewDocumentProcessingService cria uma nova instância de DocumentProcessingService
func NewDocumentProcessingService(db *gorm.DB, analyzer DocumentAnalyzer, store storage.Storage, batchSize int) *DocumentProcessingService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &DocumentProcessingService{
		db:        db,
		analyzer:  analyzer,
		storage:   store,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// ProcessPending analisa um lote de documentos pendentes
func (s *DocumentProcessingService) ProcessPending(ctx context.Context) DocumentBatchResult {
	startTime := time.Now()
	result := DocumentBatchResult{Detalhes: []DocumentDetail{}}

	var documentos []models.Documento
	if err := s.db.WithContext(ctx).
		Preload("Cliente").
		Where("status_processamento = ?", models.DocumentoStatusPendente).
		Order("data_upload ASC, id ASC").
		Limit(s.batchSize).
		Find(&documentos).Error; err != nil {
		result.ErroGeral = fmt.Sprintf("erro ao buscar documentos pendentes: %v", err)
		utils.LogError("%s", result.ErroGeral)
		return result
	}

	// Análises fora da transação
	for i := range documentos {
		doc := &documentos[i]
		detail := DocumentDetail{DocumentoID: doc.ID, NomeArquivo: doc.NomeArquivo}

		if _, err := s.analyze(ctx, doc); err != nil {
			detail.Status = "erro"
			detail.Erro = err.Error()
			result.Erros++
		} else {
			detail.Status = "sucesso"
			result.Sucessos++
		}

		result.TotalProcessados++
		result.Detalhes = append(result.Detalhes, detail)
	}

	if err := s.saveResults(context.WithoutCancel(ctx), documentos); err != nil {
		result.ErroGeral = err.Error()
	}

	utils.GetMetrics().RecordBatch("documentos", time.Since(startTime))
	utils.LogOperation("processar_documentos", startTime, errorOrNil(result.ErroGeral))
	return result
}

// ProcessDocument analisa um único documento, grava o resultado e devolve a análise
func (s *DocumentProcessingService) ProcessDocument(ctx context.Context, id uint) (*models.Documento, *DocumentAnalysis, error) {
	var doc models.Documento
	if err := s.db.WithContext(ctx).Preload("Cliente").First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("erro ao buscar documento: %w", err)
	}

	analysis, analyzeErr := s.analyze(ctx, &doc)
	if err := s.saveResults(ctx, []models.Documento{doc}); err != nil {
		return nil, nil, err
	}
	if analyzeErr != nil {
		return &doc, nil, analyzeErr
	}
	return &doc, analysis, nil
}

// analyze preenche os campos de processamento do documento em memória
func (s *DocumentProcessingService) analyze(ctx context.Context, doc *models.Documento) (*DocumentAnalysis, error) {
	text := s.documentText(ctx, doc)

	analysis, err := s.analyzer.AnalyzeDocument(ctx, text, doc.TipoDocumento, doc.Categoria)
	if err != nil {
		// Sem IA configurada o documento continua pendente para a próxima execução
		if !errors.Is(err, ErrAINotConfigured) {
			doc.StatusProcessamento = models.DocumentoStatusErro
		}
		utils.LogWarn("Falha ao analisar documento %d: %v", doc.ID, err)
		return nil, err
	}

	now := s.now().UTC()
	resumo := analysis.Resumo
	pontos := strings.Join(analysis.PontosImportantes, "\n")
	doc.ResumoIA = &resumo
	doc.PontosImportantes = &pontos
	doc.StatusProcessamento = models.DocumentoStatusProcessado
	doc.DataProcessamento = &now
	return analysis, nil
}

// documentText extrai o texto do arquivo armazenado, ou descreve o documento quando não há texto
func (s *DocumentProcessingService) documentText(ctx context.Context, doc *models.Documento) string {
	if s.storage != nil && doc.CaminhoArquivo != "" {
		data, err := s.storage.Download(ctx, doc.CaminhoArquivo)
		if err == nil {
			if text, err := extractor.ExtractText(doc.TipoDocumento, data); err == nil && text != "" {
				return text
			}
		} else {
			utils.LogDebug("Arquivo do documento %d indisponível: %v", doc.ID, err)
		}
	}
	return fmt.Sprintf("Documento: %s - Cliente: %s", doc.NomeArquivo, clientName(doc.Cliente))
}

// saveResults grava os campos de processamento em uma única transação
func (s *DocumentProcessingService) saveResults(ctx context.Context, documentos []models.Documento) error {
	if len(documentos) == 0 {
		return nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", tx.Error)
	}

	for _, doc := range documentos {
		if err := tx.Model(&models.Documento{}).Where("id = ?", doc.ID).Updates(map[string]interface{}{
			"resumo_ia":            doc.ResumoIA,
			"pontos_importantes":   doc.PontosImportantes,
			"status_processamento": doc.StatusProcessamento,
			"data_processamento":   doc.DataProcessamento,
		}).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("erro ao atualizar documento %d: %w", doc.ID, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("erro ao confirmar transação: %w", err)
	}
	return nil
}
