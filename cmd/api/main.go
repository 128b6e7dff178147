package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/nurseprep-api/internal/client"
	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/handler"
	"github.com/yourusername/nurseprep-api/internal/middleware"
	pgRepo "github.com/yourusername/nurseprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/nurseprep-api/internal/repository/redis"
	"github.com/yourusername/nurseprep-api/internal/service"
	"github.com/yourusername/nurseprep-api/pkg/auth"
	"github.com/yourusername/nurseprep-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем внешние клиенты
	geminiClient := client.NewGeminiClient(cfg.Gemini)
	answerWebhook := client.NewAnswerWebhookClient(cfg.Webhook)

	// Инициализируем сервисы
	userService := service.NewUserService(userRepo, cfg.Test.TrialDays)
	authService := service.NewAuthService(userService, jwtService, cfg.Google)
	questionService := service.NewQuestionService(questionRepo, cfg.Test)
	explanationService := service.NewExplanationService(cacheRepo, resultRepo, geminiClient, cfg.Test)
	resultService := service.NewResultService(resultRepo)
	checkoutService := service.NewCheckoutService(cfg.Stripe)
	sessionService := service.NewSessionService(
		ctx,
		resultRepo,
		userRepo,
		questionService,
		explanationService,
		answerWebhook,
		service.SessionConfigFromTest(cfg.Test),
	)

	// Фоновая очистка неактивных сессий
	go sessionService.RunCleanup(ctx, 5*time.Minute)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	testHandler := handler.NewTestHandler(sessionService, explanationService)
	questionHandler := handler.NewQuestionHandler(questionService, explanationService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	resultHandler := handler.NewResultHandler(resultService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.WebhookHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/google", rateLimiter.Limit(middleware.AuthRateLimitConfig()), authHandler.GoogleSignIn)
		}

		// Профиль пользователя
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.GetMe)
		}

		// Тестовые сессии
		test := api.Group("/test")
		test.Use(authMiddleware.RequireAuth())
		{
			test.POST("/sessions", testHandler.StartSession)

			sessionWithID := test.Group("/sessions/:session_id")
			sessionWithID.Use(middleware.ExtractSessionIDParam("session_id", "sessionID"))
			{
				sessionWithID.GET("", testHandler.GetSession)
				sessionWithID.POST("/answers", testHandler.SubmitAnswer)
				sessionWithID.POST("/next", testHandler.NextQuestion)
				sessionWithID.POST("/finish", testHandler.FinishSession)
			}
		}

		// Объяснения: эндпоинт опрашивается клиентом, пока генерация не завершена
		api.GET("/explanation", authMiddleware.RequireAuth(), rateLimiter.Limit(middleware.PollRateLimitConfig()), testHandler.GetExplanation)

		// Очередь вопросов
		api.GET("/next-question", authMiddleware.RequireAuth(), rateLimiter.Limit(middleware.PollRateLimitConfig()), questionHandler.GetNextQuestion)
		api.GET("/questions", authMiddleware.RequireAuth(), questionHandler.ListQuestions)

		// История тестов
		results := api.Group("/results")
		results.Use(authMiddleware.RequireAuth())
		{
			results.GET("/me", resultHandler.GetMyResults)
			results.GET("/me/export", resultHandler.ExportMyResults)
		}

		// Оформление подписки
		api.POST("/checkout-sessions", authMiddleware.RequireAuth(), checkoutHandler.CreateCheckoutSession)

		// Входящие вебхуки пайплайна автоматизации
		webhooks := api.Group("/webhooks")
		webhooks.Use(middleware.RequireWebhookToken(cfg.Webhook.InboundToken))
		{
			webhooks.POST("/question", questionHandler.IngestQuestion)
			webhooks.POST("/explanation", questionHandler.IngestExplanation)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Отправляем сигнал завершения для всех горутин (опросы объяснений, очистка сессий)
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
