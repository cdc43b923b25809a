package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pendo-cea/rag-pipeline/internal/chunker"
	"github.com/pendo-cea/rag-pipeline/internal/config"
	"github.com/pendo-cea/rag-pipeline/internal/domain/fiber/handler"
	"github.com/pendo-cea/rag-pipeline/internal/extractor"
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"github.com/pendo-cea/rag-pipeline/internal/queue"
	"github.com/pendo-cea/rag-pipeline/internal/repository"
	"github.com/pendo-cea/rag-pipeline/internal/service"
	"github.com/pendo-cea/rag-pipeline/internal/usecase"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	pipelineConfig := config.LoadPipelineConfig()
	embeddingConfig := config.LoadEmbeddingConfig()

	// The vector columns are fixed-width; a mismatched embedding dimension
	// would only surface as insert errors deep in a worker.
	if embeddingConfig.Primary.Dimension != model.VectorDimension {
		log.Fatalf("EMBEDDING_DIMENSION is %d but the vector columns are vector(%d)",
			embeddingConfig.Primary.Dimension, model.VectorDimension)
	}
	if embeddingConfig.Fallback != nil && embeddingConfig.Fallback.Dimension != model.VectorDimension {
		log.Fatalf("FALLBACK_EMBEDDING_DIMENSION is %d but the vector columns are vector(%d)",
			embeddingConfig.Fallback.Dimension, model.VectorDimension)
	}

	app := fiber.New(fiber.Config{
		AppName:   appConfig.Name,
		BodyLimit: int(pipelineConfig.MaxFileSizeBytes()) + 1024*1024,
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
	app.Use(logger.New())
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
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/health",
	}))
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	if err := os.MkdirAll(pipelineConfig.UploadDir, 0o755); err != nil {
		log.Fatalf("could not create upload dir: %v", err)
	}

	db := ConnectDB()

	jobRepo := repository.NewJobRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	listingRepo := repository.NewListingRepository(db)
	profileRepo := repository.NewResumeProfileRepository(db)

	embedder, err := service.NewEmbeddingService(ctx, embeddingConfig)
	if err != nil {
		log.Fatal(err)
	}
	textChunker, err := chunker.New(pipelineConfig.ChunkSize, pipelineConfig.ChunkOverlap)
	if err != nil {
		log.Fatal(err)
	}

	uc := usecase.NewPipelineUsecase(
		jobRepo, chunkRepo, listingRepo, profileRepo,
		embedder, extractor.New(pipelineConfig), textChunker,
		pipelineConfig, embeddingConfig.Primary.Dimension,
	)

	jobQueue, err := queue.New(jobRepo, uc,
		pipelineConfig.WorkerCount, pipelineConfig.QueueSize, pipelineConfig.ProcessingTimeout)
	if err != nil {
		log.Fatal(err)
	}
	uc.AttachQueue(jobQueue)
	jobQueue.Start()

	janitor := queue.NewJanitor(pipelineConfig.UploadDir,
		time.Duration(pipelineConfig.RetentionHours)*time.Hour)
	janitor.Start()

	h := handler.NewIngestHandler(uc)
	h.RegisterRoutes(app)

	// Monitor goroutine count
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			log.Printf("Active goroutines: %d", runtime.NumGoroutine())
		}
	}()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		log.Println("Shutting down: draining queue")
		janitor.Stop()
		jobQueue.Shutdown()
		_ = app.Shutdown()
	}()

	log.Println("Server running on ", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}
}

func ConnectDB() *gorm.DB {
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
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
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

	// vector + uuid_generate_v4 are extensions, not built-ins
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatal("could not enable pgvector: ", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("could not enable uuid-ossp: ", err)
	}

	err = db.AutoMigrate(&model.Job{}, &model.DocumentChunk{}, &model.JobListing{}, &model.ResumeProfile{})
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}
