package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Kalyan1210/Resume-Analyzer/internal/config"
	"github.com/Kalyan1210/Resume-Analyzer/internal/domain/fiber/handler"
	applogger "github.com/Kalyan1210/Resume-Analyzer/internal/logger"
	"github.com/Kalyan1210/Resume-Analyzer/internal/middleware"
	"github.com/Kalyan1210/Resume-Analyzer/internal/model"
	"github.com/Kalyan1210/Resume-Analyzer/internal/repository"
	"github.com/Kalyan1210/Resume-Analyzer/internal/service"
	"github.com/Kalyan1210/Resume-Analyzer/internal/usecase"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()

	zlog, err := applogger.New(appConfig.Env, appConfig.Debug)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer zlog.Sync()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env == "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := connectDB(zlog)

	client, embedder := buildModelBackend(ctx, appConfig, zlog)

	repo := repository.NewAnalysisRepository(db)
	extractor := service.NewDocumentExtractor(zlog)
	uc := usecase.NewMatchUsecase(repo, client, extractor, embedder, appConfig.LLMProvider, zlog)

	handler.NewMatchHandler(uc).RegisterRoutes(app)

	zlog.Info("server starting",
		zap.String("port", appConfig.Port),
		zap.String("provider", appConfig.LLMProvider),
		zap.String("model", client.Model()),
	)
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// buildModelBackend wires the configured model provider. Gemini doubles as
// the embedder; with OpenRouter selected the embedder is still Gemini when a
// key is present, otherwise analyses are stored without embeddings.
func buildModelBackend(ctx context.Context, appConfig *config.AppConfig, zlog *zap.Logger) (service.ModelClient, usecase.Embedder) {
	openRouterConfig := config.LoadOpenRouterConfig()
	geminiConfig := config.LoadGeminiConfig()

	var gemini *service.GeminiService
	if geminiConfig.APIKey != "" {
		var err error
		gemini, err = service.NewGeminiService(ctx, geminiConfig, openRouterConfig.MaxRetries, zlog)
		if err != nil {
			zlog.Fatal("could not build gemini client", zap.Error(err))
		}
	}

	switch appConfig.LLMProvider {
	case "gemini":
		if gemini == nil {
			zlog.Fatal("LLM_PROVIDER=gemini but GEMINI_API_KEY is not set")
		}
		return gemini, gemini
	case "openrouter":
		openRouter, err := service.NewOpenRouterService(openRouterConfig, appConfig, zlog)
		if err != nil {
			zlog.Fatal("could not build openrouter client", zap.Error(err))
		}
		if gemini == nil {
			zlog.Warn("GEMINI_API_KEY not set, similar-analyses lookup disabled")
			return openRouter, nil
		}
		return openRouter, gemini
	default:
		zlog.Fatal("unknown LLM_PROVIDER", zap.String("provider", appConfig.LLMProvider))
		return nil, nil
	}
}

func connectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	// The vector type needs the pgvector extension before migration runs.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		zlog.Warn("could not ensure pgvector extension", zap.Error(err))
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		zlog.Warn("could not ensure uuid-ossp extension", zap.Error(err))
	}

	if err := db.AutoMigrate(&model.Analysis{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}
