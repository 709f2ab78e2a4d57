package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/viewsocial/realtime/internal/auth"
	"github.com/viewsocial/realtime/internal/directory"
	directorymongo "github.com/viewsocial/realtime/internal/directory/mongodb"
	"github.com/viewsocial/realtime/internal/handler"
	"github.com/viewsocial/realtime/internal/hub"
	"github.com/viewsocial/realtime/internal/server"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type App struct {
	logger          *zap.Logger
	settings        Settings
	reaper          *hub.Reaper
	websocketServer *server.WebSocketServer
	restServer      *server.RESTServer
}

func NewApp(ctx context.Context, logger *zap.Logger, settings Settings) (*App, error) {
	originChecker := server.NewOriginChecker(settings.AllowedOrigins)
	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       originChecker.Check,
		EnableCompression: true,
	}

	authenticator := auth.NewAuthenticator(settings.JWTSecret, settings.APIKeys)

	conversationDirectory, err := buildDirectory(ctx, logger, settings)
	if err != nil {
		return nil, err
	}

	registry := hub.NewRegistry()
	eventRouter := hub.NewRouter(logger, registry)
	presence := hub.NewPresence(logger, registry, eventRouter)

	reapInterval := time.Duration(settings.ReapIntervalSeconds) * time.Second
	reaper := hub.NewReaper(logger, presence, registry, reapInterval)

	typingHandler := handler.NewTypingHandler(conversationDirectory, eventRouter)
	readReceiptHandler := handler.NewReadReceiptHandler(conversationDirectory, eventRouter)
	frameRouter := server.NewFrameRouter(logger, typingHandler, readReceiptHandler)

	websocketServer := server.NewWebSocketServer(
		logger,
		websocketUpgrader,
		authenticator,
		presence,
		frameRouter,
		settings.SendBufferSize,
	)
	restServer := server.NewRESTServer(
		logger,
		authenticator,
		eventRouter,
		presence,
	)

	return &App{
		logger,
		settings,
		reaper,
		websocketServer,
		restServer,
	}, nil
}

func buildDirectory(ctx context.Context, logger *zap.Logger, settings Settings) (directory.Directory, error) {
	if settings.MongoURI == "" {
		logger.Warn("MONGO_URI not set, typing and read-receipt fan-out will find no conversations")

		return directory.NewStatic(), nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(settings.MongoURI))
	if err != nil {
		return nil, err
	}

	mongoDirectory := directorymongo.NewDirectory(client)

	err = mongoDirectory.Setup(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("conversation directory connected")

	return mongoDirectory, nil
}

func (a *App) run(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	go a.reaper.Run(notifyCtx)

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()

	a.websocketServer.Register(router)
	a.restServer.Register(router)

	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		panic(err)
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	app, err := NewApp(ctx, logger, settings)
	if err != nil {
		logger.Fatal("failed to setup", zap.Error(err))
	}

	app.run(ctx)
}
