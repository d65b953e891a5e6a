package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"avara_app/realtime"
	"avara_app/screens"
	"avara_app/services"
	"avara_app/video"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	logger.Info("initializing DynamoDB client")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamo := &services.DynamoService{Client: dynamoClient}

	auth := services.NewAuthService(dynamo, logger)
	if err := auth.Initialize(ctx); err != nil {
		// Losing the session is the one unrecoverable startup failure.
		logger.Fatal("session initialization failed, please restart the app", zap.Error(err))
	}
	if onboarded, err := auth.HasCompletedOnboarding(ctx); err == nil && !onboarded {
		logger.Info("onboarding incomplete, routing to onboarding flow")
	}

	feeds := services.NewFeedService(dynamo, auth, logger)
	replies := services.NewAvatarEngineClient(os.Getenv("AVATAR_ENGINE_URL"))
	chats := services.NewChatService(dynamo, auth, replies, logger)
	search := services.NewSearchService(dynamo, logger)
	analytics := &services.LogAnalytics{Logger: logger}

	media, err := services.NewMediaService(ctx)
	if err != nil {
		logger.Warn("media uploads unavailable", zap.Error(err))
	} else {
		_ = screens.NewComposerScreen(media, feeds, logger)
	}

	player := video.NewPooledPlayer(&video.HTTPLoader{}, logger)
	player.SetAnalyticsCallback(func(event, postID string) {
		analytics.Track(event, map[string]string{"postId": postID})
	})

	feed := screens.NewFeedScreen(feeds, player, analytics, 10, logger)
	feed.Load(ctx)

	chat := screens.NewChatScreen(chats, logger)
	_ = screens.NewSearchScreen(search, feeds, 10, logger)

	if url := os.Getenv("AVARA_REALTIME_URL"); url != "" {
		sub := realtime.NewSubscriber(url, chat.HandleEvent, logger)
		if err := sub.Connect(ctx); err != nil {
			logger.Warn("realtime connection failed, push updates disabled", zap.Error(err))
		} else {
			defer sub.Close()
		}
	}

	logger.Info("app core ready",
		zap.String("user", auth.CurrentUserID()),
		zap.Int("feedItems", len(feed.Items())))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	feed.Dispose()
	chat.Dispose()
	logger.Info("shutting down")
}
