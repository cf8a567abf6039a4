package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sistema-contabil/config"
	"sistema-contabil/database"
	"sistema-contabil/services"
	"sistema-contabil/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Model = "gpt-3.5-turbo"
	cfg.AI.Timeout = time.Second
	cfg.WhatsApp.Timeout = time.Second
	return cfg
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	db := newTestDB(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ai := services.NewAIService(newTestConfig())
	hub := services.NewAlertHub()
	t.Cleanup(func() { hub.Close() })

	api := NewAPIController(APIServices{
		Clients:       services.NewClientService(db),
		Obligations:   services.NewObligationService(db),
		Fees:          services.NewFeeService(db),
		Documents:     services.NewDocumentService(db, store),
		Notifications: services.NewNotificationService(db),
		Dashboard:     services.NewDashboardService(db),
		Ingestion:     services.NewIngestionService(db, store, hub),
		Processing:    services.NewDocumentProcessingService(db, ai, store, 10),
		AI:            ai,
	})

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api.RegisterRoutes(engine)
	return engine
}

func doJSON(engine http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
}

const clienteJSON = `{
	"nome":              "Padaria Central",
	"cnpj":              "12.345.678/0001-90",
	"regime_tributario": "Simples Nacional",
	"responsavel_legal": "Maria Souza",
	"email":             "padaria@example.com"
}`

func createTestCliente(t *testing.T, engine http.Handler) uint {
	t.Helper()
	rec := doJSON(engine, http.MethodPost, "/clientes", clienteJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cliente struct {
		ID uint `json:"id"`
	}
	decodeBody(t, rec, &cliente)
	return cliente.ID
}

func TestClientesCRUD(t *testing.T) {
	engine := newTestEngine(t)
	id := createTestCliente(t, engine)

	rec := doJSON(engine, http.MethodPost, "/clientes", clienteJSON)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a duplicate CNPJ, got %d", rec.Code)
	}

	rec = doJSON(engine, http.MethodGet, "/clientes?ativo=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var clientes []map[string]interface{}
	decodeBody(t, rec, &clientes)
	if len(clientes) != 1 {
		t.Errorf("expected 1 client, got %d", len(clientes))
	}

	rec = doJSON(engine, http.MethodPut, "/clientes/1", `{"telefone": "+5511999990000"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(engine, http.MethodDelete, "/clientes/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 on delete, got %d", rec.Code)
	}

	rec = doJSON(engine, http.MethodGet, "/clientes/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after deleting client %d, got %d", id, rec.Code)
	}
}

func TestBadRequests(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"id invalido", http.MethodGet, "/clientes/abc", ""},
		{"id zero", http.MethodGet, "/obrigacoes/0", ""},
		{"corpo invalido", http.MethodPost, "/clientes", "{"},
		{"filtro ativo invalido", http.MethodGet, "/clientes?ativo=talvez", ""},
		{"filtro cliente invalido", http.MethodGet, "/obrigacoes?cliente_id=x", ""},
		{"dias invalido", http.MethodGet, "/obrigacoes/vencimentos?dias=sete", ""},
		{"mensagem sem tipo", http.MethodPost, "/ia/gerar-mensagem", `{"contexto": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(engine, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body map[string]string
			decodeBody(t, rec, &body)
			if body["erro"] == "" {
				t.Errorf("expected an erro field, got %v", body)
			}
		})
	}
}

func TestObrigacoesRoutes(t *testing.T) {
	engine := newTestEngine(t)
	createTestCliente(t, engine)

	rec := doJSON(engine, http.MethodPost, "/obrigacoes", `{
		"cliente_id":      1,
		"tipo":            "DAS",
		"descricao":       "Simples Nacional",
		"data_vencimento": "2099-03-20",
		"mes_referencia":  "2099-03",
		"valor":           "150.00"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(engine, http.MethodGet, "/obrigacoes/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the static route, got %d", rec.Code)
	}
	var dashboard map[string]int
	decodeBody(t, rec, &dashboard)
	if dashboard["pendentes"] != 1 {
		t.Errorf("expected 1 pending obligation, got %v", dashboard)
	}

	rec = doJSON(engine, http.MethodGet, "/obrigacoes/vencimentos", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var vencimentos []map[string]interface{}
	decodeBody(t, rec, &vencimentos)
	if len(vencimentos) != 0 {
		t.Errorf("expected no obligation within 7 days, got %d", len(vencimentos))
	}
}

func TestMensalidadePagarWithoutBody(t *testing.T) {
	engine := newTestEngine(t)
	createTestCliente(t, engine)

	rec := doJSON(engine, http.MethodPost, "/mensalidades", `{
		"cliente_id":      1,
		"mes_referencia":  "2024-03",
		"valor":           "850.00",
		"data_vencimento": "2024-03-10"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(engine, http.MethodPost, "/mensalidades/1/pagar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var mensalidade map[string]interface{}
	decodeBody(t, rec, &mensalidade)
	if mensalidade["status"] != "pago" {
		t.Errorf("expected status pago, got %v", mensalidade["status"])
	}

	rec = doJSON(engine, http.MethodPost, "/mensalidades/1/pagar", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 when paying twice, got %d", rec.Code)
	}
}

func uploadRequest(t *testing.T, clienteID, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if clienteID != "" {
		writer.WriteField("cliente_id", clienteID)
	}
	if filename != "" {
		part, err := writer.CreateFormFile("documento", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-documento", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadDocumento(t *testing.T) {
	engine := newTestEngine(t)
	createTestCliente(t, engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, "1", "nota fiscal.txt",
		"NOTA FISCAL DE SERVIÇOS\nVencimento: 20/03/2024\nTotal a pagar: R$ 1.234,56"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp services.UploadResponse
	decodeBody(t, rec, &resp)
	if resp.DocumentoID == 0 || resp.StatusProcessamento != "pendente" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.SuggestedCategory != "nota_fiscal" {
		t.Errorf("expected nota_fiscal, got %q", resp.SuggestedCategory)
	}
	if resp.ExtractedValue == nil || *resp.ExtractedValue != 1234.56 {
		t.Errorf("unexpected extracted value: %v", resp.ExtractedValue)
	}
	if resp.ExtractedDate == nil || *resp.ExtractedDate != "2024-03-20" {
		t.Errorf("unexpected extracted date: %v", resp.ExtractedDate)
	}

	rec = doJSON(engine, http.MethodGet, "/documentos?cliente_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var documentos []map[string]interface{}
	decodeBody(t, rec, &documentos)
	if len(documentos) != 1 || documentos[0]["mes_referencia"] != "2024-03" {
		t.Errorf("unexpected documents: %v", documentos)
	}
}

func TestUploadDocumentoErrors(t *testing.T) {
	engine := newTestEngine(t)
	createTestCliente(t, engine)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"sem cliente", uploadRequest(t, "", "nota.txt", "texto"), http.StatusBadRequest},
		{"sem arquivo", uploadRequest(t, "1", "", ""), http.StatusBadRequest},
		{"extensao nao permitida", uploadRequest(t, "1", "planilha.xlsx", "dados"), http.StatusBadRequest},
		{"cliente inexistente", uploadRequest(t, "99", "nota.txt", "texto"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIAWithoutKey(t *testing.T) {
	engine := newTestEngine(t)

	rec := doJSON(engine, http.MethodGet, "/ia/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]interface{}
	decodeBody(t, rec, &status)
	if status["status"] != "desativado" || status["api_configurada"] != false {
		t.Errorf("unexpected status: %v", status)
	}

	rec = doJSON(engine, http.MethodPost, "/ia/gerar-mensagem", `{"tipo_mensagem": "lembrete_vencimento"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an API key, got %d", rec.Code)
	}
}

func TestDashboardRoutes(t *testing.T) {
	engine := newTestEngine(t)

	for _, path := range []string{
		"/dashboard/resumo",
		"/dashboard/tarefas-hoje",
		"/dashboard/vencimentos-proximos",
		"/dashboard/estatisticas-mensais",
		"/dashboard/alertas",
	} {
		rec := doJSON(engine, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}
