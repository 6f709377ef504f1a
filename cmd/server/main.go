package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Sukhmangill977/majoor2.0/internal/api"
	"github.com/Sukhmangill977/majoor2.0/internal/events"
	"github.com/Sukhmangill977/majoor2.0/internal/repository"
	"github.com/Sukhmangill977/majoor2.0/internal/s3"
	"github.com/Sukhmangill977/majoor2.0/internal/service"
	"github.com/Sukhmangill977/majoor2.0/internal/tracing"
	_ "github.com/Sukhmangill977/majoor2.0/migrations"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables")
	}

	api.SetupGlobalHandler("profile-service")

	shutdownTracer, err := tracing.InitTracerProvider("profile-service")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	db := connectDB()
	defer db.Close()

	filePresigner, err := s3.NewFilePresigner()
	if err != nil {
		log.Fatalf("Failed to initialize S3 presigner: %v", err)
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	eventPublisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Printf("WARNING: Failed to connect to NATS, account events disabled: %v", err)
		eventPublisher = nil
	}

	userRepo := repository.NewPostgresUserRepository(db)
	fileRepo := repository.NewPostgresFileRepository(db)

	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, fileRepo, eventPublisher)

	authHandler := api.NewAuthHandler(authService)
	userHandler := api.NewUserHandler(userService, filePresigner)

	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "profile-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/signin", authHandler.Signin)
	authRoutes.Get("/signout", authHandler.Signout)
	authRoutes.Post("/signout", authHandler.Signout)

	userRoutes := v1.Group("/users")
	userRoutes.Use(api.AuthMiddleware())
	userRoutes.Post("/update/:id", userHandler.UpdateUser)
	userRoutes.Post("/upload/pdf/:id", userHandler.UploadPDF)
	userRoutes.Get("/pdfs", userHandler.ListPDFs)
	userRoutes.Delete("/delete/:id", userHandler.DeleteUser)
	userRoutes.Post("/upload-url/:kind", userHandler.GetUploadURL)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Listening profile-service on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func connectDB() *sqlx.DB {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Successfully connected to the database.")
	return db
}

func handleMigrations() {
	fmt.Println("Running database migrations...")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
