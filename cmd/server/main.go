package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tabletop/backend/internal/config"
	"tabletop/backend/internal/database"
	"tabletop/backend/internal/events"
	"tabletop/backend/internal/handler"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/presence"
	"tabletop/backend/internal/progression"
	"tabletop/backend/internal/repository"
	"tabletop/backend/internal/repository/memory"
	"tabletop/backend/internal/service"
	"tabletop/backend/internal/storage"
	"tabletop/backend/pkg/jwt"

	// Swagger docs, generated with `swag init -g cmd/server/main.go`
	_ "tabletop/backend/docs"
)

type stores struct {
	users        service.UserStore
	friends      service.FriendStore
	achievements service.AchievementStore
	games        service.GameStore
	messages     service.MessageStore
}

// @title           Tabletop API
// @version         1.0
// @description     This is the API for the Tabletop meetup service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	inMemory := flag.Bool("memory", false, "use in-memory stores instead of PostgreSQL")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inMemory, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, inMemory bool, log *slog.Logger) error {
	st, err := openStores(cfg, inMemory)
	if err != nil {
		return err
	}

	tracker, err := openPresence(ctx, cfg, log)
	if err != nil {
		return err
	}
	publisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	uploads, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAll(log, tracker, publisher)

	tokens := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	realtime := hub.New(log)

	h := handler.New(handler.Deps{
		Users:        service.NewUserService(st.users, st.friends, tracker, tokens, log),
		Friends:      service.NewFriendService(st.friends, st.users, publisher, realtime, log),
		Points:       service.NewPointsService(st.users, st.achievements, progression.Default(), publisher, realtime, log),
		Games:        service.NewGameService(st.games, publisher, realtime, log),
		Messages:     service.NewMessageService(st.messages, st.users, publisher, realtime, log),
		Achievements: service.NewAchievementService(st.achievements, log),
		Uploads:      uploads,
		Hub:          realtime,
		Presence:     tracker,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(h, tokens, st.users),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is running", "addr", srv.Addr, "swagger", "http://localhost:"+cfg.Port+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func closeAll(log *slog.Logger, resources ...any) {
	for _, r := range resources {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn("close resource", "err", err)
			}
		}
	}
}

func openStores(cfg *config.Config, inMemory bool) (stores, error) {
	if inMemory {
		m := memory.New()
		return stores{m, m, m, m, m}, nil
	}
	if cfg.DatabaseURL == "" {
		return stores{}, errors.New("DATABASE_URL is required unless -memory is set")
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	r := repository.New(db)
	return stores{r.Users, r.Friends, r.Achievements, r.Games, r.Messages}, nil
}

func openPresence(ctx context.Context, cfg *config.Config, log *slog.Logger) (presence.Tracker, error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, tracking presence in memory")
		return presence.NewMemory(), nil
	}
	return presence.NewRedis(ctx, cfg.RedisURL)
}

func openPublisher(cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		log.Info("KAFKA_BROKERS not set, domain events are discarded")
		return events.Nop{}, nil
	}
	return events.NewKafka(brokers, cfg.KafkaTopic)
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Uploader, error) {
	if cfg.MinioEndpoint == "" {
		log.Info("MINIO_ENDPOINT not set, uploads are disabled")
		return storage.Disabled{}, nil
	}
	return storage.NewMinIO(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
}
