package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sistema-contabil/config"
	"sistema-contabil/utils"

	"github.com/kr/text"
	"gopkg.in/gomail.v2"
)

// ErrEmailNotConfigured indica que usuário ou senha SMTP não foram informados
var ErrEmailNotConfigured = errors.New("credenciais de email não configuradas")

// SMTPSettings agrupa os parâmetros de conexão SMTP
type SMTPSettings struct {
	Host     string `json:"smtp_host"`
	Port     int    `json:"smtp_port"`
	Username string `json:"smtp_user"`
	Password string `json:"-"`
	From     string `json:"from,omitempty"`
}

// EmailService fornece métodos para envio de email
type EmailService struct {
	mu       sync.RWMutex
	settings SMTPSettings
	dialer   *gomail.Dialer
	deliver  func(d *gomail.Dialer, m *gomail.Message) error
}

// NewEmailService cria uma nova instância de EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{deliver: dialAndSend}
	s.Configure(SMTPSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	return s
}

// Configure substitui os parâmetros SMTP do serviço em execução
func (s *EmailService) Configure(settings SMTPSettings) {
	if settings.From == "" {
		settings.From = settings.Username
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.dialer = gomail.NewDialer(settings.Host, settings.Port, settings.Username, settings.Password)
}

// Settings retorna os parâmetros SMTP em uso
func (s *EmailService) Settings() SMTPSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SendEmail envia um email em texto simples
func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	s.mu.RLock()
	settings, dialer := s.settings, s.dialer
	s.mu.RUnlock()

	if settings.Username == "" || settings.Password == "" {
		utils.LogWarn("Credenciais de email não configuradas; email para %s não enviado", to)
		return ErrEmailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", settings.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// DialAndSend não observa ctx; o envio segue em segundo plano se ctx for cancelado
	errc := make(chan error, 1)
	go func() { errc <- s.deliver(dialer, m) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("erro ao enviar email: %w", err)
		}
	case <-ctx.Done():
		utils.LogWarn("Envio de email para %s interrompido: %v", to, ctx.Err())
		return ctx.Err()
	}

	utils.LogInfo("Email enviado para %s", to)
	return nil
}

// SendTestEmail envia a mensagem de teste da configuração SMTP
func (s *EmailService) SendTestEmail(ctx context.Context, to string) error {
	body := text.Wrap(fmt.Sprintf(
		"Este é um email de teste do Sistema Contábil Inteligente, enviado em %s. "+
			"Se você recebeu esta mensagem, a configuração de email está funcionando corretamente.",
		time.Now().Format("02/01/2006 15:04:05"),
	), 72)

	return s.SendEmail(ctx, to, "Teste do Sistema Contábil Inteligente", strings.TrimSpace(body)+"\n")
}

func dialAndSend(d *gomail.Dialer, m *gomail.Message) error {
	return d.DialAndSend(m)
}
