package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hubride/ride-pool-system/config"
	"github.com/hubride/ride-pool-system/internal/adapter/http/handler"
	"github.com/hubride/ride-pool-system/internal/adapter/http/server"
	wshandler "github.com/hubride/ride-pool-system/internal/adapter/http/ws"
	pgadapter "github.com/hubride/ride-pool-system/internal/adapter/postgres"
	rabbitadapter "github.com/hubride/ride-pool-system/internal/adapter/rabbit"
	redisadapter "github.com/hubride/ride-pool-system/internal/adapter/redis"
	"github.com/hubride/ride-pool-system/internal/domain/models"
	"github.com/hubride/ride-pool-system/internal/domain/types"
	"github.com/hubride/ride-pool-system/internal/service/auth"
	"github.com/hubride/ride-pool-system/internal/service/dispatch"
	"github.com/hubride/ride-pool-system/internal/service/mission"
	"github.com/hubride/ride-pool-system/internal/service/node"
	"github.com/hubride/ride-pool-system/internal/service/review"
	"github.com/hubride/ride-pool-system/internal/service/settlement"
	"github.com/hubride/ride-pool-system/internal/service/wallet"
	"github.com/hubride/ride-pool-system/pkg/logger"
	"github.com/hubride/ride-pool-system/pkg/postgres"
	"github.com/hubride/ride-pool-system/pkg/rabbit"
	"github.com/hubride/ride-pool-system/pkg/trm"
	ws "github.com/hubride/ride-pool-system/pkg/wsHub"
)

const serviceName = "hub"

// App is the composition root: one binary carrying the API, the change
// feed consumers and the read-side cache.
type App struct {
	db          *postgres.PostgreDB
	rabbitConn  *rabbit.RabbitMQ
	redisClient *goredis.Client

	api      *server.API
	hub      *ws.ConnectionHub
	feed     *wshandler.Feed
	cache    *redisadapter.NodeCache
	consumer *rabbitadapter.HubConsumer

	cfg config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg: cfg,
		log: log,
	}

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.db = db

	rabbitConn, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	a.rabbitConn = rabbitConn

	broker := rabbitadapter.NewHubBroker(rabbitConn, serviceName, log)
	if err := broker.Declare(ctx); err != nil {
		return nil, fmt.Errorf("failed to declare rabbitmq topology: %w", err)
	}
	a.consumer = rabbitadapter.NewHubConsumer(rabbitConn, serviceName, log)

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redisClient = redisClient
	a.cache = redisadapter.NewNodeCache(redisClient, serviceName, log)

	// Repositories
	nodeRepo := pgadapter.NewNodeRepo(db.Pool)
	userRepo := pgadapter.NewUserRepo(db.Pool)
	driverRepo := pgadapter.NewDriverRepo(db.Pool)
	ledgerRepo := pgadapter.NewLedgerRepo(db.Pool)
	missionRepo := pgadapter.NewMissionRepo(db.Pool)
	requestRepo := pgadapter.NewRequestRepo(db.Pool)
	settingsRepo := pgadapter.NewSettingsRepo(db.Pool)

	txm := trm.New(db.Pool)

	if err := seedSettings(ctx, settingsRepo, cfg.Fares); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	// Services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authSvc := auth.NewAuthService(userRepo, driverRepo, tokenSvc, log)
	walletSvc := wallet.NewWalletService(ledgerRepo, ledgerRepo, broker, txm, log)
	nodeSvc := node.NewNodeService(nodeRepo, userRepo, settingsRepo, a.cache, broker, txm, log)
	dispatchSvc := dispatch.NewDispatchService(nodeRepo, driverRepo, settingsRepo, broker, txm, log)
	settlementSvc := settlement.NewSettlementService(nodeRepo, driverRepo, settingsRepo, walletSvc, broker, txm, log)
	missionSvc := mission.NewMissionService(missionRepo, driverRepo, walletSvc, broker, txm, log)
	reviewSvc := review.NewReviewService(requestRepo, nodeRepo, driverRepo, settingsRepo, walletSvc, txm, log)

	// HTTP surface
	a.hub = ws.NewConnHub(log)
	a.feed = wshandler.NewFeed(a.hub, log)

	api, err := server.New(cfg.Server, server.Handlers{
		Auth:     handler.NewAuth(authSvc, log),
		Node:     handler.NewNode(nodeSvc, log),
		Dispatch: handler.NewDispatch(dispatchSvc, settlementSvc, log),
		Wallet:   handler.NewWallet(walletSvc, reviewSvc, log),
		Driver:   handler.NewDriver(reviewSvc, missionSvc, log),
		Admin:    handler.NewAdmin(reviewSvc, missionSvc, walletSvc, settlementSvc, log),
		Feed:     a.feed,
	}, authSvc, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build http server: %w", err)
	}
	a.api = api

	return a, nil
}

// Run serves until the context is cancelled or a component fails, then
// shuts everything down in dependency order.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	a.api.Run(ctx, errCh)

	go func() {
		if err := a.consumer.ConsumeNodeEvents(ctx, a.onNodeEvent); err != nil {
			errCh <- fmt.Errorf("node event consumer failed: %w", err)
		}
	}()
	go func() {
		if err := a.consumer.ConsumeLedgerEvents(ctx, a.feed.PushLedgerEvent); err != nil {
			errCh <- fmt.Errorf("ledger event consumer failed: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		a.log.Error(ctx, "component failed, shutting down", err)
		runErr = err
	}
	stop()

	a.shutdown()
	return runErr
}

// onNodeEvent refreshes the open-node cache and fans the change out to
// connected clients.
func (a *App) onNodeEvent(ctx context.Context, msg models.NodeEventMessage) error {
	if err := a.cache.Refresh(ctx, msg); err != nil {
		return err
	}
	return a.feed.PushNodeEvent(ctx, msg)
}

func (a *App) shutdown() {
	ctx := context.Background()

	if err := a.api.Stop(ctx); err != nil {
		a.log.Error(ctx, "failed to stop http server", err)
	}
	a.hub.Close()
	if err := a.rabbitConn.Close(ctx); err != nil {
		a.log.Error(ctx, "failed to close rabbitmq connection", err)
	}
	if err := a.redisClient.Close(); err != nil {
		a.log.Error(ctx, "failed to close redis client", err)
	}
	a.db.Pool.Close()

	a.log.Info(ctx, "application stopped")
}

// seedSettings writes the configured fare defaults on first boot. An
// existing settings row always wins.
func seedSettings(ctx context.Context, repo *pgadapter.SettingsRepo, fares config.FareDefaults) error {
	_, err := repo.Get(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrSettingsNotFound) {
		return err
	}

	return repo.Update(ctx, models.Settings{
		PragiaBaseFare:           types.Money(fares.PragiaBaseFare),
		TaxiBaseFare:             types.Money(fares.TaxiBaseFare),
		ShuttleBaseFare:          types.Money(fares.ShuttleBaseFare),
		SoloMultiplierBP:         fares.SoloMultiplierBP,
		CommissionPerSeat:        types.Money(fares.CommissionPerSeat),
		ShuttleCommissionPerSeat: types.Money(fares.ShuttleCommissionPerSeat),
		RegistrationFee:          types.Money(fares.RegistrationFee),
	})
}
