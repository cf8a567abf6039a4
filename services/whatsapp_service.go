package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"sistema-contabil/config"
	"sistema-contabil/utils"
)

// WhatsAppSettings agrupa os parâmetros do gateway de WhatsApp
type WhatsAppSettings struct {
	APIURL string `json:"api_url"`
	Token  string `json:"-"`
}

type whatsAppPayload struct {
	Token string `json:"token"`
	To    string `json:"to"`
	Body  string `json:"body"`
}

// WhatsAppService envia mensagens por um gateway HTTP de WhatsApp
type WhatsAppService struct {
	mu       sync.RWMutex
	settings WhatsAppSettings
	client   *http.Client
}

// NewWhatsAppService cria uma nova instância de WhatsAppService
func NewWhatsAppService(cfg *config.Config) *WhatsAppService {
	return &WhatsAppService{
		settings: WhatsAppSettings{
			APIURL: cfg.WhatsApp.APIURL,
			Token:  cfg.WhatsApp.Token,
		},
		client: &http.Client{Timeout: cfg.WhatsApp.Timeout},
	}
}

// Configure substitui os parâmetros do gateway em execução
func (s *WhatsAppService) Configure(settings WhatsAppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Settings retorna os parâmetros do gateway em uso
func (s *WhatsAppService) Settings() WhatsAppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Simulated informa se o serviço opera em modo de simulação
func (s *WhatsAppService) Simulated() bool {
	settings := s.Settings()
	return settings.APIURL == "" || settings.Token == ""
}

// SendWhatsApp envia uma mensagem; sem gateway configurado, apenas simula o envio
func (s *WhatsAppService) SendWhatsApp(ctx context.Context, number, message string) error {
	settings := s.Settings()
	if settings.APIURL == "" || settings.Token == "" {
		utils.LogWarn("WhatsApp não configurado. Simulando envio para %s", number)
		return nil
	}

	jsonData, err := json.Marshal(whatsAppPayload{
		Token: settings.Token,
		To:    number,
		Body:  message,
	})
	if err != nil {
		return fmt.Errorf("erro ao serializar mensagem: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao enviar WhatsApp: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway de WhatsApp retornou status %d", resp.StatusCode)
	}

	utils.LogInfo("WhatsApp enviado para %s", number)
	return nil
}
