package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"sistema-contabil/config"
	"sistema-contabil/utils"
)

// ErrAINotConfigured indica que a chave da API de IA não foi configurada
var ErrAINotConfigured = errors.New("serviço de IA não configurado")

// Tipos de mensagem suportados pelo ComposeMessage
const (
	MessageKindDueReminder     = "lembrete_vencimento"
	MessageKindPendingDocument = "documento_pendente"
	MessageKindOverdueFee      = "inadimplencia"
)

const (
	maxDocumentText = 3000
	fallbackSummary = 500
)

var (
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// chatMessage representa uma mensagem da API de chat
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DocumentAnalysis é o resultado estruturado da análise de um documento
type DocumentAnalysis struct {
	Resumo            string                 `json:"resumo"`
	PontosImportantes []string               `json:"pontos_importantes"`
	ValoresExtraidos  map[string]interface{} `json:"valores_extraidos"`
	Alertas           []string               `json:"alertas"`
}

// ObligationSuggestion é uma obrigação sugerida para o perfil de um cliente
type ObligationSuggestion struct {
	Tipo           string `json:"tipo"`
	Descricao      string `json:"descricao"`
	DataVencimento string `json:"data_vencimento"`
	Observacoes    string `json:"observacoes"`
}

// AIService conversa com uma API de chat compatível com OpenAI
type AIService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewAIService cria uma nova instância de AIService
func NewAIService(cfg *config.Config) *AIService {
	return &AIService{
		apiKey:  cfg.AI.APIKey,
		baseURL: strings.TrimRight(cfg.AI.BaseURL, "/"),
		model:   cfg.AI.Model,
		client:  &http.Client{Timeout: cfg.AI.Timeout},
	}
}

// Configured informa se a chave da API está presente
func (s *AIService) Configured() bool {
	return s.apiKey != ""
}

// ComposeMessage gera o texto de uma mensagem para o cliente
func (s *AIService) ComposeMessage(ctx context.Context, kind string, data map[string]interface{}) (string, error) {
	content, err := s.complete(ctx,
		"Você é um assistente que cria mensagens profissionais para escritórios contábeis.",
		messagePrompt(kind, data), 0.5, 300)
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("resposta vazia da IA")
	}
	return content, nil
}

// AnalyzeDocument extrai resumo, pontos importantes e alertas do texto de um documento
func (s *AIService) AnalyzeDocument(ctx context.Context, text, tipo, categoria string) (*DocumentAnalysis, error) {
	content, err := s.complete(ctx,
		"Você é um assistente especializado em análise de documentos contábeis brasileiros.",
		analysisPrompt(text, tipo, categoria), 0.3, 1000)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(content), nil
}

// SuggestObligations sugere as obrigações tributárias de um cliente no mês informado
func (s *AIService) SuggestObligations(ctx context.Context, nome, cnpj, regime, mesReferencia string) ([]ObligationSuggestion, error) {
	prompt := fmt.Sprintf(`Com base nas informações do cliente abaixo, sugira as principais obrigações tributárias
que devem ser cumpridas no mês %s:

Cliente: %s
CNPJ: %s
Regime Tributário: %s

Para cada obrigação, forneça tipo (DAS, DARF, INSS, etc.), descricao, data_vencimento e observacoes.

Responda em formato JSON com uma lista de obrigações.`, mesReferencia, nome, cnpj, regime)

	content, err := s.complete(ctx,
		"Você é um especialista em obrigações tributárias brasileiras.", prompt, 0.3, 800)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(content), nil
}

// complete envia uma requisição de chat e retorna o conteúdo da primeira escolha
func (s *AIService) complete(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	if !s.Configured() {
		return "", ErrAINotConfigured
	}
	startTime := time.Now()

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("erro ao serializar requisição: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		utils.GetMetrics().RecordAIFailure(err)
		return "", fmt.Errorf("erro ao chamar a API de IA: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("API de IA retornou status %d: %s", resp.StatusCode, truncate(string(body), 200))
		utils.GetMetrics().RecordAIFailure(err)
		return "", err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("erro ao decodificar resposta: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("erro da API de IA: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("resposta da IA sem conteúdo")
	}

	utils.LogDebug("IA respondeu em %v (%d tokens máx.)", time.Since(startTime), maxTokens)
	return chatResp.Choices[0].Message.Content, nil
}

func messagePrompt(kind string, data map[string]interface{}) string {
	get := func(key, fallback string) string {
		if v, ok := data[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
		return fallback
	}

	switch kind {
	case MessageKindDueReminder:
		return fmt.Sprintf(`Crie uma mensagem profissional e cordial para lembrar o cliente sobre vencimento de obrigação:

Cliente: %s
Obrigação: %s - %s
Valor: R$ %s
Data de Vencimento: %s

A mensagem deve ser profissional e cordial, clara sobre a obrigação, incluir informações de contato e oferecer suporte.`,
			get("cliente_nome", ""), get("obrigacao_tipo", ""), get("obrigacao_descricao", ""),
			get("valor", "0,00"), get("data_vencimento", ""))
	case MessageKindPendingDocument:
		return fmt.Sprintf(`Crie uma mensagem para solicitar documentos pendentes:

Cliente: %s
Documentos Pendentes: %s
Mês de Referência: %s

A mensagem deve ser cordial mas assertiva, listar os documentos, explicar a importância deles e dar prazo para envio.`,
			get("cliente_nome", ""), get("documentos_pendentes", ""), get("mes_referencia", ""))
	case MessageKindOverdueFee:
		return fmt.Sprintf(`Crie uma mensagem sobre inadimplência de mensalidade:

Cliente: %s
Valor em Atraso: R$ %s
Dias de Atraso: %s

A mensagem deve ser profissional mas firme, mencionar o atraso, oferecer opções de pagamento e manter o relacionamento cordial.`,
			get("cliente_nome", ""), get("valor_atraso", "0,00"), get("dias_atraso", "0"))
	default:
		return "Crie uma mensagem profissional para o cliente."
	}
}

var categoryPrompts = map[string]string{
	"folha_pagamento": `Analise esta folha de pagamento e extraia:
1. Número total de funcionários
2. Valor total dos salários
3. Principais deduções (INSS, IRRF, etc.)
4. Novos funcionários ou demissões
5. Aumentos salariais ou alterações importantes
6. Alertas sobre valores fora do padrão`,
	"nota_fiscal": `Analise estas notas fiscais e extraia:
1. Número total de notas
2. Valor total das vendas/compras
3. Principais clientes/fornecedores
4. Produtos/serviços mais vendidos
5. Impostos incidentes
6. Alertas sobre irregularidades`,
	"extrato_bancario": `Analise este extrato bancário e extraia:
1. Saldo inicial e final
2. Número total de transações
3. Maiores movimentações (entradas e saídas)
4. Padrões de movimentação
5. Taxas e tarifas cobradas
6. Alertas sobre movimentações suspeitas`,
	"comprovante_pagamento": `Analise estes comprovantes de pagamento e extraia:
1. Valor total pago
2. Beneficiários dos pagamentos
3. Formas de pagamento utilizadas
4. Datas de vencimento e pagamento
5. Juros ou multas aplicadas
6. Alertas sobre atrasos ou irregularidades`,
}

const genericPrompt = `Analise este documento contábil e extraia:
1. Informações principais do documento
2. Valores monetários relevantes
3. Datas importantes
4. Observações relevantes
5. Possíveis alertas ou irregularidades`

func analysisPrompt(text, tipo, categoria string) string {
	specific, ok := categoryPrompts[categoria]
	if !ok {
		specific = genericPrompt
	}

	return fmt.Sprintf(`%s

Documento (%s - %s):
%s

Responda em formato JSON com as seguintes chaves:
- "resumo": resumo executivo do documento
- "pontos_importantes": lista de pontos importantes
- "valores_extraidos": objeto com valores monetários encontrados
- "alertas": lista de alertas ou observações importantes`, specific, tipo, categoria, truncate(text, maxDocumentText))
}

// parseAnalysis extrai o objeto JSON da resposta; sem JSON válido, usa o início do texto como resumo
func parseAnalysis(content string) *DocumentAnalysis {
	fallback := &DocumentAnalysis{
		Resumo:            truncate(content, fallbackSummary),
		PontosImportantes: []string{"Análise processada com sucesso."},
		ValoresExtraidos:  map[string]interface{}{},
		Alertas:           []string{},
	}

	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return fallback
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return fallback
	}

	analysis := &DocumentAnalysis{
		Resumo:            stringValue(raw["resumo"]),
		PontosImportantes: stringList(raw["pontos_importantes"]),
		ValoresExtraidos:  map[string]interface{}{},
		Alertas:           stringList(raw["alertas"]),
	}
	if values, ok := raw["valores_extraidos"].(map[string]interface{}); ok {
		analysis.ValoresExtraidos = values
	}
	if analysis.Resumo == "" {
		analysis.Resumo = truncate(content, fallbackSummary)
	}
	return analysis
}

// parseSuggestions extrai a lista JSON de obrigações; uma resposta sem lista resulta em lista vazia
func parseSuggestions(content string) []ObligationSuggestion {
	suggestions := []ObligationSuggestion{}
	match := jsonArrayPattern.FindString(content)
	if match == "" {
		return suggestions
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return suggestions
	}
	for _, item := range raw {
		suggestions = append(suggestions, ObligationSuggestion{
			Tipo:           stringValue(item["tipo"]),
			Descricao:      stringValue(item["descricao"]),
			DataVencimento: stringValue(item["data_vencimento"]),
			Observacoes:    stringValue(item["observacoes"]),
		})
	}
	return suggestions
}

func stringValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// stringList aceita tanto uma lista quanto um texto único
func stringList(v interface{}) []string {
	items := []string{}
	switch value := v.(type) {
	case []interface{}:
		for _, item := range value {
			if s := strings.TrimSpace(stringValue(item)); s != "" {
				items = append(items, s)
			}
		}
	case string:
		if s := strings.TrimSpace(value); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// truncate corta s em no máximo n runas
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
