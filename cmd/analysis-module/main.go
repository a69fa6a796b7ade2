// Точка входа analysis-module — сервис анализа текстовых файлов.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует клиент storing-module, LRU-кеш, сервисный слой и
// API handlers, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/textstore/internal/analysis/api/handlers"
	"github.com/bigkaa/textstore/internal/analysis/config"
	"github.com/bigkaa/textstore/internal/analysis/database"
	"github.com/bigkaa/textstore/internal/analysis/repository"
	"github.com/bigkaa/textstore/internal/analysis/service"
	"github.com/bigkaa/textstore/internal/analysis/storingclient"
	"github.com/bigkaa/textstore/internal/api/middleware"
	"github.com/bigkaa/textstore/internal/server"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("analysis-module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storing_url", cfg.StoringURL),
	)

	if os.Getenv("FA_DEPHEALTH_GROUP") == "" {
		logger.Warn("FA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент storing-module
	storingClient := storingclient.New(cfg.StoringURL, cfg.StoringFetchTimeout, logger)

	// 6. Repositories, кеш и сервис анализа
	resultsRepo := repository.NewAnalysisResultRepository(pool)
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	domainMetrics := service.NewMetrics("fa")
	analysisSvc := service.NewAnalysisService(resultsRepo, storingClient, cache, domainMetrics, logger)

	// 7. Readiness checker (PostgreSQL)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
		"postgresql": database.NewReadinessChecker(pool),
	})

	// 8. API handler
	apiHandler := handlers.NewAPIHandler(analysisSvc, healthHandler, logger)

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL + storing-module)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		config.ServiceName,
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.StoringURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		} else {
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 10. HTTP-сервер с graceful shutdown
	httpMetrics := middleware.NewHTTPMetrics("fa")
	srv := server.New(
		server.Options{
			Port:            cfg.Port,
			ReadTimeout:     cfg.HTTPReadTimeout,
			WriteTimeout:    cfg.HTTPWriteTimeout,
			IdleTimeout:     cfg.HTTPIdleTimeout,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
		logger,
		apiHandler,
		middleware.RequestLogger(logger),
		httpMetrics.Middleware(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("analysis-module остановлен")
}
