package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sistema-contabil/utils"
)

// Job é a rotina executada pelo agendador
type Job func(ctx context.Context) error

// SchedulerStatus descreve o estado atual do agendador
type SchedulerStatus struct {
	Ativo           bool       `json:"ativo"`
	Intervalo       string     `json:"intervalo"`
	ProximaExecucao string     `json:"proxima_execucao"`
	UltimaExecucao  *time.Time `json:"ultima_execucao"`
}

// SchedulerService executa um job periodicamente em segundo plano
type SchedulerService struct {
	mu       sync.Mutex
	job      Job
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	lastRun  *time.Time
}

// NewSchedulerService cria uma nova instância de SchedulerService
func NewSchedulerService(job Job, interval time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SchedulerService{
		job:      job,
		interval: interval,
	}
}

// Interval retorna o intervalo entre execuções
func (s *SchedulerService) Interval() time.Duration {
	return s.interval
}

// Start inicia o agendador; retorna false se ele já estiver ativo
func (s *SchedulerService) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(loopCtx, done)

	utils.LogInfo("Agendamento automático iniciado (intervalo %v)", s.interval)
	return true
}

// Stop interrompe o agendador e aguarda o fim da goroutine
func (s *SchedulerService) Stop() bool {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return false
	}

	cancel()
	<-done

	utils.LogInfo("Agendamento automático parado")
	return true
}

// Running informa se o agendador está ativo
func (s *SchedulerService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Status retorna o estado atual do agendador
func (s *SchedulerService) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Ativo:           s.cancel != nil,
		Intervalo:       s.interval.String(),
		ProximaExecucao: "Desativado",
	}
	if status.Ativo {
		status.ProximaExecucao = describeInterval(s.interval)
	}
	if s.lastRun != nil {
		last := *s.lastRun
		status.UltimaExecucao = &last
	}
	return status
}

func (s *SchedulerService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Primeira execução imediata
	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *SchedulerService) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	startTime := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic na rotina agendada: %v", r)
			}
		}()
		return s.job(ctx)
	}()
	if err != nil {
		utils.LogError("Erro na execução agendada: %v", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.mu.Unlock()

	utils.LogOperation("rotina_agendada", startTime, err)
}

func describeInterval(d time.Duration) string {
	if d == time.Hour {
		return "A cada 1 hora"
	}
	return fmt.Sprintf("A cada %v", d)
}
