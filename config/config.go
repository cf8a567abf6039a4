package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config representa a configuração da aplicação
type Config struct {
	Server struct {
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}
	DB struct {
		Driver         string // postgres ou sqlite
		Host           string
		Port           int
		User           string
		Password       string
		DBName         string
		SQLitePath     string
		MigrationsPath string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // em horas
	}
	Auth struct {
		Enabled bool
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	WhatsApp struct {
		APIURL  string
		Token   string
		Timeout time.Duration
	}
	AI struct {
		APIKey  string
		BaseURL string
		Model   string
		Timeout time.Duration
	}
	Storage struct {
		Backend   string // local ou minio
		LocalDir  string
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}
	Automation struct {
		UpcomingDays          int
		StaleDocumentDays     int
		DashboardUpcomingDays int
		DashboardStaleDays    int
		DocumentBatchSize     int
		SchedulerInterval     time.Duration
		AutoStartScheduler    bool
	}
	Priority struct {
		ObligationHighDays int
		DocumentHighDays   int
		FeeCriticalDays    int
	}
	Log struct {
		Level string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	CORS struct {
		AllowedOrigins []string
	}
}

// defaults contém os valores padrão de cada variável de ambiente
var defaults = map[string]string{
	"SERVER_PORT":             "8080",
	"SERVER_READ_TIMEOUT":     "15s",
	"SERVER_WRITE_TIMEOUT":    "120s",
	"SERVER_SHUTDOWN_TIMEOUT": "30s",

	"DB_DRIVER":          "postgres",
	"DB_HOST":            "localhost",
	"DB_PORT":            "5432",
	"DB_USER":            "postgres",
	"DB_PASSWORD":        "postgres",
	"DB_NAME":            "sistema_contabil",
	"DB_SQLITE_PATH":     "sistema_contabil.db",
	"DB_MIGRATIONS_PATH": "file://migrations",

	"JWT_SECRET_KEY": "troque-esta-chave",
	"JWT_EXPIRES_IN": "24",
	"AUTH_ENABLED":   "false",

	"SMTP_HOST":     "smtp.gmail.com",
	"SMTP_PORT":     "587",
	"SMTP_USER":     "",
	"SMTP_PASSWORD": "",
	"SMTP_FROM":     "",

	"WHATSAPP_API_URL": "",
	"WHATSAPP_TOKEN":   "",
	"WHATSAPP_TIMEOUT": "15s",

	"OPENAI_API_KEY":  "",
	"OPENAI_API_BASE": "https://api.openai.com/v1",
	"OPENAI_MODEL":    "gpt-3.5-turbo",
	"OPENAI_TIMEOUT":  "60s",

	"STORAGE_BACKEND":   "local",
	"STORAGE_LOCAL_DIR": "uploads/documentos",
	"MINIO_ENDPOINT":    "localhost:9000",
	"MINIO_ACCESS_KEY":  "",
	"MINIO_SECRET_KEY":  "",
	"MINIO_BUCKET":      "documentos",
	"MINIO_USE_SSL":     "false",

	"AUTOMACAO_DIAS_VENCIMENTO":           "3",
	"AUTOMACAO_DIAS_DOCUMENTO":            "7",
	"AUTOMACAO_DASHBOARD_DIAS_VENCIMENTO": "7",
	"AUTOMACAO_DASHBOARD_DIAS_DOCUMENTO":  "5",
	"AUTOMACAO_LOTE_DOCUMENTOS":           "10",
	"AUTOMACAO_INTERVALO":                 "1h",
	"AUTOMACAO_INICIAR_AGENDAMENTO":       "false",

	"PRIORIDADE_OBRIGACAO_ALTA_DIAS":      "1",
	"PRIORIDADE_DOCUMENTO_ALTA_DIAS":      "10",
	"PRIORIDADE_MENSALIDADE_CRITICA_DIAS": "30",

	"LOG_LEVEL": "info",

	"RATE_LIMIT_REQUESTS": "100",
	"RATE_LIMIT_WINDOW":   "1m",

	"CORS_ALLOWED_ORIGINS": "*",
}

// NewConfig cria uma nova instância de configuração
func NewConfig() (*Config, error) {
	// Carrega o arquivo .env, se existir
	loadDotEnv(".env", "../.env")

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	// Arquivo de configuração opcional
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	return fromViper(v)
}

// fromViper monta a configuração a partir de uma instância do viper
func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	p := &parser{v: v}

	// Configurações do servidor
	cfg.Server.Port = p.int("SERVER_PORT", "porta do servidor")
	cfg.Server.ReadTimeout = p.duration("SERVER_READ_TIMEOUT", "timeout de leitura")
	cfg.Server.WriteTimeout = p.duration("SERVER_WRITE_TIMEOUT", "timeout de escrita")
	cfg.Server.ShutdownTimeout = p.duration("SERVER_SHUTDOWN_TIMEOUT", "timeout de desligamento")

	// Configurações do banco de dados
	cfg.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = p.int("DB_PORT", "porta do banco de dados")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")
	cfg.DB.SQLitePath = v.GetString("DB_SQLITE_PATH")
	cfg.DB.MigrationsPath = v.GetString("DB_MIGRATIONS_PATH")

	// Configurações de autenticação
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.JWT.ExpiresIn = p.int("JWT_EXPIRES_IN", "tempo de vida do JWT")
	cfg.Auth.Enabled = p.bool("AUTH_ENABLED", "AUTH_ENABLED")

	// Configurações SMTP
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = p.int("SMTP_PORT", "porta SMTP")
	cfg.SMTP.Username = v.GetString("SMTP_USER")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}

	// Configurações do WhatsApp
	cfg.WhatsApp.APIURL = v.GetString("WHATSAPP_API_URL")
	cfg.WhatsApp.Token = v.GetString("WHATSAPP_TOKEN")
	cfg.WhatsApp.Timeout = p.duration("WHATSAPP_TIMEOUT", "timeout do WhatsApp")

	// Configurações da IA
	cfg.AI.APIKey = v.GetString("OPENAI_API_KEY")
	cfg.AI.BaseURL = strings.TrimRight(v.GetString("OPENAI_API_BASE"), "/")
	cfg.AI.Model = v.GetString("OPENAI_MODEL")
	cfg.AI.Timeout = p.duration("OPENAI_TIMEOUT", "timeout da IA")

	// Configurações de armazenamento
	cfg.Storage.Backend = strings.ToLower(v.GetString("STORAGE_BACKEND"))
	cfg.Storage.LocalDir = v.GetString("STORAGE_LOCAL_DIR")
	cfg.Storage.Endpoint = v.GetString("MINIO_ENDPOINT")
	cfg.Storage.AccessKey = v.GetString("MINIO_ACCESS_KEY")
	cfg.Storage.SecretKey = v.GetString("MINIO_SECRET_KEY")
	cfg.Storage.Bucket = v.GetString("MINIO_BUCKET")
	cfg.Storage.UseSSL = p.bool("MINIO_USE_SSL", "MINIO_USE_SSL")

	// Configurações da automação
	cfg.Automation.UpcomingDays = p.int("AUTOMACAO_DIAS_VENCIMENTO", "dias de antecedência")
	cfg.Automation.StaleDocumentDays = p.int("AUTOMACAO_DIAS_DOCUMENTO", "dias limite de documentos")
	cfg.Automation.DashboardUpcomingDays = p.int("AUTOMACAO_DASHBOARD_DIAS_VENCIMENTO", "dias de vencimento do dashboard")
	cfg.Automation.DashboardStaleDays = p.int("AUTOMACAO_DASHBOARD_DIAS_DOCUMENTO", "dias de documento do dashboard")
	cfg.Automation.DocumentBatchSize = p.int("AUTOMACAO_LOTE_DOCUMENTOS", "tamanho do lote de documentos")
	cfg.Automation.SchedulerInterval = p.duration("AUTOMACAO_INTERVALO", "intervalo do agendamento")
	cfg.Automation.AutoStartScheduler = p.bool("AUTOMACAO_INICIAR_AGENDAMENTO", "AUTOMACAO_INICIAR_AGENDAMENTO")

	// Limiares de prioridade
	cfg.Priority.ObligationHighDays = p.int("PRIORIDADE_OBRIGACAO_ALTA_DIAS", "limiar de prioridade de obrigações")
	cfg.Priority.DocumentHighDays = p.int("PRIORIDADE_DOCUMENTO_ALTA_DIAS", "limiar de prioridade de documentos")
	cfg.Priority.FeeCriticalDays = p.int("PRIORIDADE_MENSALIDADE_CRITICA_DIAS", "limiar de prioridade de mensalidades")

	cfg.Log.Level = v.GetString("LOG_LEVEL")

	cfg.RateLimit.Requests = p.int("RATE_LIMIT_REQUESTS", "limite de requisições")
	cfg.RateLimit.Window = p.duration("RATE_LIMIT_WINDOW", "janela do limite de requisições")

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
		}
	}

	if p.err != nil {
		return nil, p.err
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		return nil, fmt.Errorf("driver de banco de dados não suportado: %s", cfg.DB.Driver)
	}
	if cfg.Automation.SchedulerInterval <= 0 {
		return nil, errors.New("intervalo do agendamento deve ser positivo")
	}

	return cfg, nil
}

// parser converte valores do viper guardando o primeiro erro encontrado
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) int(key, name string) int {
	value, err := strconv.Atoi(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("formato inválido de %s: %v", name, err)
	}
	return value
}

func (p *parser) duration(key, name string) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("formato inválido de %s: %v", name, err)
	}
	return value
}

func (p *parser) bool(key, name string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("formato inválido de %s: %v", name, err)
	}
	return value
}

// loadDotEnv carrega o primeiro arquivo .env encontrado
func loadDotEnv(paths ...string) {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}
