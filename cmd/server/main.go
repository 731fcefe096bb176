package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-proposals/internal/cache"
	"github.com/ignatzorin/freelance-proposals/internal/config"
	"github.com/ignatzorin/freelance-proposals/internal/db"
	httpHandlers "github.com/ignatzorin/freelance-proposals/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-proposals/internal/http/router"
	"github.com/ignatzorin/freelance-proposals/internal/logger"
	"github.com/ignatzorin/freelance-proposals/internal/repository"
	"github.com/ignatzorin/freelance-proposals/internal/scheduler"
	"github.com/ignatzorin/freelance-proposals/internal/service"
	"github.com/ignatzorin/freelance-proposals/internal/storage"
	"github.com/ignatzorin/freelance-proposals/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Кэш.
	redisBackend, err := cache.NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("main: ошибка подключения к redis: %v", err)
	}
	defer redisBackend.Close()

	cacheService := service.NewCacheService(redisBackend)

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	attachmentStorage, err := storage.NewAttachmentStorage(cfg.UploadPath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	accountRepo := repository.NewAccountRepository(dbConn)
	trackerRepo := repository.NewRefreshTrackerRepository(dbConn)
	profileRepo := repository.NewProfileRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	provisioningRepo := repository.NewProvisioningRepository(dbConn, profileRepo, accountRepo)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Сервисы.
	quotaService := service.NewQuotaService(accountRepo, trackerRepo)
	proposalService := service.NewProposalService(proposalRepo, quotaService, cacheService, hub, cfg.ProposalCacheTTL)
	profileService := service.NewProfileService(profileRepo, accountRepo, cacheService, cfg.ProfileCacheTTL, cfg.ProfilesCacheTTL)
	provisioningService := service.NewProvisioningService(provisioningRepo, quotaService, logger.Log)

	// Планировщик месячного пополнения счетов.
	sweep := scheduler.NewRefreshSweep(quotaService, cfg.RefreshSweepInterval, logger.Log)
	sweep.Start(ctx)

	// HTTP хэндлеры.
	profileHandler := httpHandlers.NewProfileHandler(profileService, provisioningService)
	proposalHandler := httpHandlers.NewProposalHandler(proposalService)
	quotaHandler := httpHandlers.NewQuotaHandler(quotaService)
	attachmentHandler := httpHandlers.NewAttachmentHandler(attachmentStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, redisBackend)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, profileHandler, proposalHandler, quotaHandler, attachmentHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
