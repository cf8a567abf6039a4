package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sistema-contabil/database"
	"sistema-contabil/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow é o instante usado pelos testes que dependem da data atual
var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string {
	return &s
}

// clienteSeq gera CNPJs distintos para os clientes de teste
var clienteSeq int32

func createCliente(t *testing.T, db *gorm.DB, nome, email string) *models.Cliente {
	t.Helper()
	n := atomic.AddInt32(&clienteSeq, 1)
	cliente := &models.Cliente{
		Nome:             nome,
		CNPJ:             fmt.Sprintf("%02d.000.000/0001-00", n%100),
		RegimeTributario: "Simples Nacional",
		ResponsavelLegal: "Responsável " + nome,
		Email:            email,
		Ativo:            true,
	}
	if err := db.Create(cliente).Error; err != nil {
		t.Fatalf("failed to create cliente: %v", err)
	}
	return cliente
}

func createObrigacao(t *testing.T, db *gorm.DB, clienteID uint, tipo string, vencimento models.Date, status models.ObrigacaoStatus, valor string) *models.Obrigacao {
	t.Helper()
	obrigacao := &models.Obrigacao{
		ClienteID:      clienteID,
		Tipo:           tipo,
		Descricao:      tipo + " mensal",
		DataVencimento: vencimento,
		Status:         status,
		MesReferencia:  vencimento.MonthRef(),
	}
	if valor != "" {
		obrigacao.Valor = decimal.NewNullDecimal(decimal.RequireFromString(valor))
	}
	if err := db.Create(obrigacao).Error; err != nil {
		t.Fatalf("failed to create obrigacao: %v", err)
	}
	return obrigacao
}

func createDocumento(t *testing.T, db *gorm.DB, clienteID uint, nome string, upload time.Time, status models.DocumentoStatus) *models.Documento {
	t.Helper()
	documento := &models.Documento{
		ClienteID:           clienteID,
		NomeArquivo:         nome,
		TipoDocumento:       "PDF",
		Categoria:           "nota_fiscal",
		CaminhoArquivo:      "1/" + nome,
		TamanhoArquivo:      128,
		MesReferencia:       upload.Format("2006-01"),
		StatusProcessamento: status,
		DataUpload:          upload,
	}
	if err := db.Create(documento).Error; err != nil {
		t.Fatalf("failed to create documento: %v", err)
	}
	return documento
}

func createMensalidade(t *testing.T, db *gorm.DB, clienteID uint, vencimento models.Date, status models.MensalidadeStatus, valor string) *models.Mensalidade {
	t.Helper()
	mensalidade := &models.Mensalidade{
		ClienteID:      clienteID,
		MesReferencia:  vencimento.MonthRef(),
		Valor:          decimal.RequireFromString(valor),
		DataVencimento: vencimento,
		Status:         status,
	}
	if err := db.Create(mensalidade).Error; err != nil {
		t.Fatalf("failed to create mensalidade: %v", err)
	}
	return mensalidade
}

// fakeComposer devolve uma mensagem fixa, ou falha quando err está definido
type fakeComposer struct {
	err   error
	panic bool
	calls int
}

func (f *fakeComposer) ComposeMessage(ctx context.Context, kind string, data map[string]interface{}) (string, error) {
	f.calls++
	if f.panic && f.calls == 1 {
		panic("falha inesperada")
	}
	if f.err != nil {
		return "", f.err
	}
	return "mensagem gerada para " + kind, nil
}

// fakeSender registra os envios de email e WhatsApp
type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return f.record(to)
}

func (f *fakeSender) SendWhatsApp(ctx context.Context, number, message string) error {
	return f.record(number)
}

func (f *fakeSender) record(to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

var errGatewayDown = errors.New("gateway indisponível")
