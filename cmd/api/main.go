package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"

	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/ratelimit"
	"go-next-task/backend/internal/routes"
	"go-next-task/backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env が無い環境 (コンテナなど) では環境変数をそのまま使う
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	svc := services.New(db, cfg)

	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled() {
		client := ratelimit.NewRedisClient(cfg.Redis)
		limiter = ratelimit.NewRedisLimiter(client, "ratelimit:auth", cfg.Redis.RequestsPerWindow, cfg.Redis.Window)
		log.Printf("Rate limiting enabled for auth endpoints (%d requests / %s)", cfg.Redis.RequestsPerWindow, cfg.Redis.Window)
	}

	r := routes.SetupRouter(db, svc, cfg.Server, limiter)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sweeper := services.NewGuestSweeper(svc.Guests, cfg.Guest.SweepInterval)
	sweeper.Start(ctx)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"api": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				// リクエスト処理とスイープが終わってからDBを閉じる
				errs := []error{srv.Shutdown(ctx), sweeper.Stop(ctx)}
				return errors.Join(append(errs, db.Close())...)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
