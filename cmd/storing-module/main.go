// Точка входа storing-module — сервис хранения текстовых файлов.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует blob-хранилище, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/textstore/internal/api/middleware"
	"github.com/bigkaa/textstore/internal/server"
	"github.com/bigkaa/textstore/internal/storing/api/handlers"
	"github.com/bigkaa/textstore/internal/storing/config"
	"github.com/bigkaa/textstore/internal/storing/database"
	"github.com/bigkaa/textstore/internal/storing/repository"
	"github.com/bigkaa/textstore/internal/storing/service"
	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
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
	logger.Info("storing-module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("FS_DEPHEALTH_GROUP") == "" {
		logger.Warn("FS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
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

	// 5. Blob-хранилище
	blobs, err := blobstore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища",
			slog.String("data_dir", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Blob-хранилище инициализировано", slog.String("data_dir", cfg.DataDir))

	// 6. Repositories и services
	catalogRepo := repository.NewFileCatalogRepository(pool)
	domainMetrics := service.NewMetrics("fs")
	uploadSvc := service.NewUploadService(cfg.MaxFileSize, blobs, catalogRepo, domainMetrics, logger)
	fileSvc := service.NewFileService(blobs, catalogRepo, domainMetrics, logger)

	// 7. Readiness checkers (PostgreSQL + файловая система)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
		"postgresql": database.NewReadinessChecker(pool),
		"filesystem": handlers.ReadinessFunc(func() (string, string) {
			if _, statErr := os.Stat(blobs.Root()); statErr != nil {
				return "fail", fmt.Sprintf("директория данных недоступна: %v", statErr)
			}
			return "ok", "директория данных доступна"
		}),
	})

	// 8. API handler
	apiHandler := handlers.NewAPIHandler(cfg.MaxFileSize, uploadSvc, fileSvc, healthHandler, logger)

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		config.ServiceName,
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
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
	httpMetrics := middleware.NewHTTPMetrics("fs")
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

	logger.Info("storing-module остановлен")
}
