package app

import (
	"context"
	"fmt"
	"net/http"

	"survive/internal/cache"
	"survive/internal/common/clock"
	"survive/internal/common/uuid"
	"survive/internal/config"
	"survive/internal/repository"
	"survive/internal/service"
	"survive/internal/store"
	"survive/internal/transport/rest"
	"survive/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// App owns the process-wide collaborators and the HTTP handler built from them
type App struct {
	Runtime  *service.Runtime
	Rooms    *service.RoomService
	Players  *service.PlayerService
	Game     *service.GameService
	Boosts   *service.BoostService
	Payments *service.PaymentService
	Hub      *ws.Hub

	MatchRepo   repository.MatchRepo
	BoostRepo   repository.BoostRepo
	RoomCache   cache.RoomCache
	Leaderboard cache.LeaderboardCache
	Checkouts   cache.CheckoutCache

	handler http.Handler
	redis   *redis.Client
	mongo   *mongo.Client
	log     *zap.Logger
}

// New connects the optional backing stores and wires every service.
// Redis and Mongo are only dialed when enabled in cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{log: log}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		a.redis = rdb
		a.RoomCache = cache.NewRoomCache(rdb, cfg.Redis.TTL)
		a.Leaderboard = cache.NewLeaderboardCache(rdb, cfg.Redis.TTL)
		a.Checkouts = cache.NewCheckoutCache(rdb)
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Mongo.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		a.mongo = client
		if err := client.Ping(connectCtx, nil); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		a.MatchRepo = repository.NewMatchRepo(db)
		a.BoostRepo = repository.NewBoostRepo(db)
		log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))
	}

	a.Hub = ws.NewHub(log.Named("hub"))

	rt, err := service.NewRuntime(&service.RuntimeConfig{
		Store:       store.NewMemory(),
		Clock:       clock.New(),
		IDs:         uuid.New(),
		Broadcaster: a.Hub,
		RoomCache:   a.RoomCache,
		Leaderboard: a.Leaderboard,
		Rules:       cfg.Game,
		Logger:      log.Named("game"),
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Runtime = rt

	var provider service.CheckoutProvider
	if cfg.Payment.Enabled {
		provider = service.NewStripeCheckout(cfg.Payment.SecretKey)
	}

	authSvc := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock.New())
	a.Rooms = service.NewRoomService(rt, a.MatchRepo, authSvc)
	a.Players = service.NewPlayerService(rt, a.Rooms, authSvc)
	a.Game = service.NewGameService(rt)
	a.Boosts = service.NewBoostService(rt, a.BoostRepo, cfg.Payment.Enabled && cfg.Payment.RequireConfirmation)
	a.Payments = service.NewPaymentService(cfg.Payment, provider, a.Checkouts, a.Boosts, a.BoostRepo, rt)

	wsHandler := ws.NewHandler(a.Hub, ws.Services{
		Rooms:   a.Rooms,
		Players: a.Players,
		Game:    a.Game,
		Boosts:  a.Boosts,
	}, uuid.New(), cfg.WebSocket, log.Named("ws"))

	a.handler = rest.NewRouter(&rest.Container{
		AuthService:    authSvc,
		RoomService:    a.Rooms,
		PlayerService:  a.Players,
		BoostService:   a.Boosts,
		PaymentService: a.Payments,
		WSHandler:      wsHandler,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	return a, nil
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Close stops timers and sockets, then releases the backing stores
func (a *App) Close(ctx context.Context) {
	if a.Runtime != nil {
		a.Runtime.Shutdown()
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}
}
