package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"postcardrelay/internal/config"
	"postcardrelay/internal/database/db_client"
	"postcardrelay/internal/http/http_server"
	"postcardrelay/internal/redis/redis_client"
	"postcardrelay/internal/services/images"
	"postcardrelay/internal/services/rooms"
	"postcardrelay/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (image cache)
	redisClient, err := redis_client.NewRedisClient(cfg.RedisCacheHost, int(cfg.RedisCachePort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client (room registry)
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	// 5. Collaborator services
	roomService := rooms.NewRoomService(pgDb)
	imageService := images.NewImageService(redisClient, cfg.UploadsPath)

	// 6. WebSockets hub + relay server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, roomService, imageService, cfg.RoomGracePeriod)

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, roomService, imageService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
