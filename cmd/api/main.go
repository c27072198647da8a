package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"campusmarket/internal/adapter/api"
	"campusmarket/internal/adapter/api/handler"
	apimiddleware "campusmarket/internal/adapter/api/middleware"
	"campusmarket/internal/adapter/api/router"
	"campusmarket/internal/adapter/repository"
	"campusmarket/internal/domain/service"
	"campusmarket/internal/infrastructure/firebase"
	"campusmarket/internal/infrastructure/realtime"
	"campusmarket/internal/infrastructure/storage"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	// Service account JSON in the environment wins (deployed environments);
	// a file path is the local-development fallback.
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			credentialsPath = "./service-account.json"
		}

		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}

		log.Printf("Using Firebase service account from file: %s", credentialsPath)
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	postRepo := repository.NewFirestorePostRepository(firestoreClient)
	reviewRepo := repository.NewFirestoreReviewRepository(firestoreClient)
	wishlistRepo := repository.NewFirestoreWishlistRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)
	enrichmentService := service.NewEnrichmentService(cfg.ClassifierURL, cfg.EmbedderURL)

	hub := realtime.NewHub()
	hub.Start(ctx)

	changeFeed := realtime.NewFirestoreChangeFeed(firestoreClient)

	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuthClient)
	listingUseCase := usecase.NewListingUseCase(listingRepo, userRepo, enrichmentService)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, userRepo, listingRepo, notificationRepo, hub, changeFeed)
	postUseCase := usecase.NewPostUseCase(postRepo, userRepo, notificationRepo, hub)
	reviewUseCase := usecase.NewReviewUseCase(reviewRepo, userRepo, listingRepo)
	wishlistUseCase := usecase.NewWishlistUseCase(wishlistRepo)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, hub)
	adminUseCase := usecase.NewAdminUseCase(userRepo, listingRepo, postRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authUseCase),
		Listing:      handler.NewListingHandler(listingUseCase, storageClient),
		Chat:         handler.NewChatHandler(chatUseCase),
		Post:         handler.NewPostHandler(postUseCase),
		Review:       handler.NewReviewHandler(reviewUseCase),
		Wishlist:     handler.NewWishlistHandler(wishlistUseCase),
		Notification: handler.NewNotificationHandler(notificationUseCase),
		Admin:        handler.NewAdminHandler(adminUseCase, reviewUseCase, notificationUseCase),
		WebSocket: handler.NewWebSocketHandler(
			hub,
			authMiddleware,
			conversationRepo,
			chatUseCase,
			changeFeed,
			time.Duration(cfg.ReloadDebounceMs)*time.Millisecond,
			cfg.NotificationFeedCap,
		),
	}

	router.Setup(e, handlers, authMiddleware, adminMiddleware)

	log.Printf("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
