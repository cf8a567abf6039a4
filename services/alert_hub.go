package services

import (
	"encoding/json"
	"net/http"
	"time"

	"sistema-contabil/utils"

	"github.com/olahol/melody"
)

// AlertEvent é a mensagem enviada aos painéis conectados
type AlertEvent struct {
	Evento    string      `json:"evento"`
	Dados     interface{} `json:"dados"`
	Timestamp time.Time   `json:"timestamp"`
}

// AlertHub distribui os alertas em tempo real por websocket
type AlertHub struct {
	m *melody.Melody
}

// NewAlertHub cria uma nova instância de AlertHub
func NewAlertHub() *AlertHub {
	m := melody.New()
	m.Config.MaxMessageSize = 4096
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		utils.LogDebug("Painel conectado: %s", s.Request.RemoteAddr)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		utils.LogDebug("Painel desconectado: %s", s.Request.RemoteAddr)
	})
	m.HandleError(func(s *melody.Session, err error) {
		utils.LogWarn("Erro no websocket de alertas: %v", err)
	})

	return &AlertHub{m: m}
}

// ServeHTTP faz o upgrade da conexão para websocket
func (h *AlertHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.m.HandleRequest(w, r); err != nil {
		utils.LogError("Erro ao abrir websocket: %v", err)
	}
}

// Sessions retorna o número de painéis conectados
func (h *AlertHub) Sessions() int {
	return h.m.Len()
}

// Broadcast envia um evento a todos os painéis conectados
func (h *AlertHub) Broadcast(evento string, dados interface{}) {
	if h == nil || h.m.Len() == 0 {
		return
	}

	msg, err := json.Marshal(AlertEvent{
		Evento:    evento,
		Dados:     dados,
		Timestamp: time.Now(),
	})
	if err != nil {
		utils.LogError("Erro ao serializar evento %s: %v", evento, err)
		return
	}

	if err := h.m.Broadcast(msg); err != nil {
		utils.LogWarn("Erro ao transmitir evento %s: %v", evento, err)
	}
}

// Close encerra todas as sessões
func (h *AlertHub) Close() error {
	return h.m.Close()
}
