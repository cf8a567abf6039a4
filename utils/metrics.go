package utils

import (
	"sync"
	"time"
)

// Metrics contém as métricas da aplicação
type Metrics struct {
	mu sync.RWMutex

	// Métricas de requisições
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Métricas da automação
	ReminderRuns         int64
	DocumentRuns         int64
	EmailsSent           int64
	EmailsFailed         int64
	WhatsAppSent         int64
	WhatsAppFailed       int64
	NotificationsCreated int64
	AIFailures           int64
	LastBatchTime        time.Time
	LastBatchDuration    time.Duration

	// Métricas de erros
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics retorna a instância global de métricas
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest registra uma requisição HTTP
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordBatch registra a execução de um lote de lembretes ou documentos
func (m *Metrics) RecordBatch(kind string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case "lembretes":
		m.ReminderRuns++
	case "documentos":
		m.DocumentRuns++
	}
	m.LastBatchTime = time.Now()
	m.LastBatchDuration = duration
}

// RecordDispatch registra uma tentativa de envio por um canal
func (m *Metrics) RecordDispatch(channel string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch channel {
	case "email":
		if err != nil {
			m.EmailsFailed++
		} else {
			m.EmailsSent++
		}
	case "whatsapp":
		if err != nil {
			m.WhatsAppFailed++
		} else {
			m.WhatsAppSent++
		}
	}
	if err != nil {
		m.recordErrorLocked(err)
	}
}

// RecordNotifications registra notificações gravadas
func (m *Metrics) RecordNotifications(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsCreated += int64(n)
}

// RecordAIFailure registra uma falha da IA
func (m *Metrics) RecordAIFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AIFailures++
	m.recordErrorLocked(err)
}

// RecordError registra um erro
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot retorna uma cópia das métricas atuais
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":        m.TotalRequests,
		"failed_requests":       m.FailedRequests,
		"average_latency_ms":    m.AverageLatency.Milliseconds(),
		"reminder_runs":         m.ReminderRuns,
		"document_runs":         m.DocumentRuns,
		"emails_sent":           m.EmailsSent,
		"emails_failed":         m.EmailsFailed,
		"whatsapp_sent":         m.WhatsAppSent,
		"whatsapp_failed":       m.WhatsAppFailed,
		"notifications_created": m.NotificationsCreated,
		"ai_failures":           m.AIFailures,
		"last_batch_time":       m.LastBatchTime,
		"last_batch_ms":         m.LastBatchDuration.Milliseconds(),
		"error_count":           m.ErrorCount,
		"last_error_time":       m.LastErrorTime,
		"error_types":           errorTypes,
	}
}

// ResetMetrics zera todas as métricas
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.ReminderRuns = 0
	m.DocumentRuns = 0
	m.EmailsSent = 0
	m.EmailsFailed = 0
	m.WhatsAppSent = 0
	m.WhatsAppFailed = 0
	m.NotificationsCreated = 0
	m.AIFailures = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
