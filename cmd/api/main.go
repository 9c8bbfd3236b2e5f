package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"convochat/internal/adapter/api"
	"convochat/internal/adapter/api/handler"
	apimiddleware "convochat/internal/adapter/api/middleware"
	"convochat/internal/adapter/api/router"
	"convochat/internal/adapter/repository"
	"convochat/internal/infrastructure/firebase"
	"convochat/internal/infrastructure/ratelimit"
	"convochat/internal/infrastructure/websocket"
	"convochat/internal/usecase"
	"convochat/pkg/config"
	"convochat/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Configure(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Server stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func credentials(cfg *config.Config) []option.ClientOption {
	switch {
	case cfg.ServiceAccountJSON != "":
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	case cfg.ServiceAccountPath != "":
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}
	default:
		logger.Info("Using application default credentials")
		return nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	opts := credentials(cfg)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return err
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return err
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	appender := repository.NewFirestoreMessageAppender(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	sendGate := ratelimit.NewSendGate(
		ratelimit.WithCooldown(cfg.MessageCooldown),
		ratelimit.WithMaxPerMinute(cfg.MessagesPerMinute),
	)
	actionLimiter := ratelimit.NewRateLimiter()
	ipLimiter := apimiddleware.NewIPRateLimiter(cfg.HTTPRatePerSecond, cfg.HTTPRateBurst)

	chatUseCase := usecase.NewChatUseCase(conversationRepo, messageRepo, appender, userRepo, sendGate, actionLimiter, cfg.MaxMessageLength)
	groupUseCase := usecase.NewGroupUseCase(conversationRepo, messageRepo, appender, userRepo, sendGate, actionLimiter, cfg.MaxMessageLength)
	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)

	wsManager := websocket.NewManager(chatUseCase)

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Validator = api.NewValidator()

	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		Group:     handler.NewGroupHandler(groupUseCase),
		User:      handler.NewUserHandler(userUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, cfg.AllowedOrigins),
		Health:    handler.NewHealthHandler(wsManager),
	}, apimiddleware.NewAuthMiddleware(firebaseAuthClient), ipLimiter)

	g, gctx := errgroup.WithContext(ctx)

	wsManager.Start(gctx)
	sendGate.StartCleanupRoutine(gctx, 10*time.Minute)
	actionLimiter.StartCleanupRoutine(gctx)
	ipLimiter.StartCleanupRoutine(gctx)

	g.Go(func() error {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
