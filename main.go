package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sistema-contabil/config"
	"sistema-contabil/controllers"
	"sistema-contabil/database"
	"sistema-contabil/middleware"
	"sistema-contabil/services"
	"sistema-contabil/storage"
	"sistema-contabil/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// strictTestLimit limita os envios de teste por IP e minuto
const strictTestLimit = 5

// pinger verifica a conexão com o banco de dados
type pinger interface {
	Ping(ctx context.Context) error
}

// application reúne os componentes montados na inicialização
type application struct {
	cfg        *config.Config
	hub        *services.AlertHub
	scheduler  *services.SchedulerService
	operators  *services.OperatorService
	automation *controllers.AutomationController
	api        *controllers.APIController
	limiter    *utils.RateLimiter
}

// healthHandler responde {status:"ok"} quando o banco responde
func healthHandler(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "indisponivel",
				"erro":   err.Error(),
			})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// metricsHandler devolve o snapshot das métricas
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
}

// newApplication monta os serviços e os controladores
func newApplication(ctx context.Context, cfg *config.Config, db *database.Database, store storage.Storage) *application {
	hub := services.NewAlertHub()
	emailService := services.NewEmailService(cfg)
	whatsAppService := services.NewWhatsAppService(cfg)
	aiService := services.NewAIService(cfg)

	alertService := services.NewAlertService(db.DB, services.PriorityPolicy{
		ObligationHighDays: cfg.Priority.ObligationHighDays,
		DocumentHighDays:   cfg.Priority.DocumentHighDays,
		FeeCriticalDays:    cfg.Priority.FeeCriticalDays,
	})
	reminderService := services.NewReminderService(db.DB, alertService, aiService, emailService, whatsAppService, services.ReminderWindows{
		UpcomingDays:      cfg.Automation.UpcomingDays,
		StaleDocumentDays: cfg.Automation.StaleDocumentDays,
	})
	processingService := services.NewDocumentProcessingService(db.DB, aiService, store, cfg.Automation.DocumentBatchSize)
	reportService := services.NewReportService(db.DB)
	automationService := services.NewAutomationService(alertService, reminderService, processingService, reportService, hub, services.DashboardWindows{
		UpcomingDays:      cfg.Automation.DashboardUpcomingDays,
		StaleDocumentDays: cfg.Automation.DashboardStaleDays,
	})

	scheduler := services.NewSchedulerService(func(ctx context.Context) error {
		result := automationService.RunDailyRoutine(ctx)
		if result.Lembretes.ErroGeral != "" {
			return errors.New(result.Lembretes.ErroGeral)
		}
		return nil
	}, cfg.Automation.SchedulerInterval)

	automationController := controllers.NewAutomationController(
		ctx,
		automationService,
		alertService,
		reportService,
		scheduler,
		emailService,
		whatsAppService,
		controllers.AutomationWindows{
			UpcomingDays:      cfg.Automation.UpcomingDays,
			StaleDocumentDays: cfg.Automation.StaleDocumentDays,
		},
	)

	apiController := controllers.NewAPIController(controllers.APIServices{
		Clients:       services.NewClientService(db.DB),
		Obligations:   services.NewObligationService(db.DB),
		Fees:          services.NewFeeService(db.DB),
		Documents:     services.NewDocumentService(db.DB, store),
		Notifications: services.NewNotificationService(db.DB),
		Dashboard:     services.NewDashboardService(db.DB),
		Ingestion:     services.NewIngestionService(db.DB, store, hub),
		Processing:    processingService,
		AI:            aiService,
	})

	return &application{
		cfg:        cfg,
		hub:        hub,
		scheduler:  scheduler,
		operators:  services.NewOperatorService(db.DB, cfg.JWT.SecretKey, time.Duration(cfg.JWT.ExpiresIn)*time.Hour),
		automation: automationController,
		api:        apiController,
		limiter:    utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
	}
}

// routes monta o roteador mux com a API gin montada na raiz
func (app *application) routes(db pinger) http.Handler {
	jwtKey := []byte(app.cfg.JWT.SecretKey)
	router := mux.NewRouter()

	router.HandleFunc("/health", healthHandler(db)).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler).Methods("GET")
	router.Handle("/ws/alertas", app.hub).Methods("GET")

	// Autenticação dos operadores
	authController := controllers.NewAuthController(app.operators)
	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.Use(middleware.LoggingMiddleware)
	authRouter.HandleFunc("/registrar", authController.Registrar).Methods("POST")
	authRouter.HandleFunc("/entrar", authController.Entrar).Methods("POST")
	authRouter.Handle("/2fa", middleware.AuthMiddleware(jwtKey)(http.HandlerFunc(authController.Configurar2FA))).Methods("POST")

	// Rotinas automáticas
	automacao := router.PathPrefix("/automacao").Subrouter()
	automacao.Use(middleware.LoggingMiddleware)
	if app.cfg.Auth.Enabled {
		automacao.Use(middleware.AuthMiddleware(jwtKey))
	}

	ac := app.automation
	automacao.HandleFunc("/verificar-vencimentos", ac.VerificarVencimentos).Methods("GET")
	automacao.HandleFunc("/verificar-documentos-pendentes", ac.VerificarDocumentosPendentes).Methods("GET")
	automacao.HandleFunc("/verificar-mensalidades-atrasadas", ac.VerificarMensalidadesAtrasadas).Methods("GET")
	automacao.HandleFunc("/enviar-lembretes", ac.EnviarLembretes).Methods("POST")
	automacao.HandleFunc("/processar-documentos", ac.ProcessarDocumentos).Methods("POST")
	automacao.HandleFunc("/gerar-relatorio", ac.GerarRelatorio).Methods("POST")
	automacao.HandleFunc("/executar-rotina-diaria", ac.ExecutarRotinaDiaria).Methods("POST")
	automacao.HandleFunc("/iniciar-agendamento", ac.IniciarAgendamento).Methods("POST")
	automacao.HandleFunc("/parar-agendamento", ac.PararAgendamento).Methods("POST")
	automacao.HandleFunc("/status-agendamento", ac.StatusAgendamento).Methods("GET")
	automacao.HandleFunc("/dashboard-alertas", ac.DashboardAlertas).Methods("GET")
	automacao.HandleFunc("/configurar-email", ac.ConfigurarEmail).Methods("POST")
	automacao.HandleFunc("/configurar-whatsapp", ac.ConfigurarWhatsApp).Methods("POST")

	strict := middleware.RateLimitMiddleware(utils.NewRateLimiter(strictTestLimit, time.Minute))
	automacao.Handle("/testar-email", strict(http.HandlerFunc(ac.TestarEmail))).Methods("POST")
	automacao.Handle("/testar-whatsapp", strict(http.HandlerFunc(ac.TestarWhatsApp))).Methods("POST")

	// API de recursos
	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.CORS(app.cfg.CORS.AllowedOrigins),
		middleware.RateLimit(app.limiter, app.cfg.RateLimit.Requests),
	)
	if app.cfg.Auth.Enabled {
		engine.Use(middleware.Auth(jwtKey))
	}
	app.api.RegisterRoutes(engine)
	router.PathPrefix("/").Handler(engine)

	return router
}

func main() {
	// Inicializa a configuração
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Erro ao carregar a configuração: %v", err)
	}

	if err := utils.InitLogger(cfg.Log.Level); err != nil {
		log.Fatalf("Erro ao inicializar o logger: %v", err)
	}
	defer utils.SyncLogger()
	logger := utils.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Inicializa a conexão com o banco de dados
	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("Erro ao conectar ao banco de dados", zap.Error(err))
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Erro ao inicializar o armazenamento", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	app := newApplication(ctx, cfg, db, store)
	go app.limiter.RunJanitor(ctx)

	if cfg.Automation.AutoStartScheduler {
		app.scheduler.Start(ctx)
		logger.Info("Agendamento automático iniciado", zap.Duration("intervalo", app.scheduler.Interval()))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.routes(db),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Servidor iniciado", zap.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Erro ao iniciar o servidor", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Sinal de desligamento recebido")
	}

	app.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Erro ao desligar o servidor", zap.Error(err))
	}

	if err := app.hub.Close(); err != nil {
		logger.Warn("Erro ao fechar o websocket de alertas", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		logger.Warn("Erro ao fechar o banco de dados", zap.Error(err))
	}
	logger.Info("Servidor encerrado")
}
