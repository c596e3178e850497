package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
	config "github.com/v9cf/contentfactory/configs"
	"github.com/v9cf/contentfactory/internal/api/handlers"
	"github.com/v9cf/contentfactory/internal/api/middleware"
	job "github.com/v9cf/contentfactory/internal/jobs"
	"github.com/v9cf/contentfactory/internal/metrics"
	"github.com/v9cf/contentfactory/internal/platform"
	"github.com/v9cf/contentfactory/internal/queue"
	"github.com/v9cf/contentfactory/internal/repository"
	"github.com/v9cf/contentfactory/internal/service"
	"github.com/v9cf/contentfactory/pkg/crypto"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	vault, err := crypto.NewVault(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid encryption key: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	collector, err := metrics.NewPublishCollector()
	if err != nil {
		log.Fatalf("Failed to build metrics collector: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	contentRepo := repository.NewContentRepository(db)
	postRepo := repository.NewPostRepository(db)

	mediaService, err := service.NewMediaService(cfg)
	if err != nil {
		log.Fatalf("Failed to build media service: %v", err)
	}

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo, userRepo)
	accountService := service.NewAccountService(accountRepo, vault)
	contentService := service.NewContentService(contentRepo, mediaService)
	generateService := service.NewGenerateService(contentRepo, mediaService, cfg)

	adapters := platform.NewRegistry()
	scheduler := queue.NewScheduler(client)
	publishService := service.NewPublishService(postRepo, contentRepo, accountService, adapters, scheduler, collector)

	authMiddleware := middleware.NewAuthMiddleware(cfg, apiKeyService, collector)

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	api := app.Group("/api/v1")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Delete("/user", authMiddleware.SessionOnly(), user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	keys := api.Group("/keys", authMiddleware.SessionOnly())
	keys.Post("/", apiKeys.CreateApiKey)
	keys.Get("/", apiKeys.ListKeys)
	keys.Delete("/", apiKeys.RevokeApiKey)

	accounts := handlers.NewAccountHandler(accountService)
	api.Get("/accounts", authMiddleware.RequireScope("accounts:read"), accounts.ListAccounts)
	api.Post("/accounts", authMiddleware.RequireScope("accounts:write"), accounts.ConnectAccount)
	api.Patch("/accounts/:id/settings", authMiddleware.RequireScope("accounts:write"), accounts.UpdateAccountSettings)
	api.Delete("/accounts/:id", authMiddleware.RequireScope("accounts:write"), accounts.DisconnectAccount)

	content := handlers.NewContentHandler(contentService, mediaService)
	api.Get("/content", authMiddleware.RequireScope("content:read"), content.ListContent)
	api.Get("/content/:id", authMiddleware.RequireScope("content:read"), content.GetContent)
	api.Post("/content", authMiddleware.RequireScope("content:write"), content.CreateContent)
	api.Post("/content/media", authMiddleware.RequireScope("content:write"), content.UploadMedia)
	api.Delete("/content/:id", authMiddleware.RequireScope("content:write"), content.RemoveContent)

	generate := handlers.NewGenerateHandler(generateService)
	api.Post("/generate", authMiddleware.RequireScope("content:write"), generate.GenerateContent)
	api.Get("/generate/status", authMiddleware.RequireScope("content:read"), generate.GenerationStatus)

	publish := handlers.NewPublishHandler(publishService)
	api.Post("/publish", authMiddleware.RequireScope("publish:write"), publish.PublishPost)
	api.Get("/publish", authMiddleware.RequireScope("analytics:read"), publish.ListPosts)
	api.Get("/publish/:id", authMiddleware.RequireScope("analytics:read"), publish.GetPost)
	api.Delete("/publish/:id", authMiddleware.RequireScope("publish:write"), publish.RemovePost)

	// cron sweeps
	sweepJob := job.NewSweepJob(publishService, accountService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", sweepJob.SweepDuePosts)
	c.AddFunc("@every 00h10m00s", sweepJob.ExpireAccountTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		worker := queue.NewWorker(publishService)
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatchPost, worker.HandleDispatchPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
