package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"goalnest-wallet/internal/config"
	"goalnest-wallet/internal/consumer"
	"goalnest-wallet/internal/database"
	"goalnest-wallet/internal/identity"
	"goalnest-wallet/internal/ledger"
	"goalnest-wallet/internal/models"
	"goalnest-wallet/internal/mqtt"
	"goalnest-wallet/internal/repository"
	"goalnest-wallet/internal/rewards"
	"goalnest-wallet/internal/session"
	"goalnest-wallet/internal/verifier"
	"goalnest-wallet/internal/wallet"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// WalletService is the composition root: it wires the remote store,
// the session store, the secret verifier and the push consumer, and
// drives the resolve-then-refresh lifecycle.
type WalletService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	sessionStore  *session.Store
	resolver      *identity.Resolver
	secrets       *verifier.Verifier
	aggregator    *ledger.Aggregator
	engine        *wallet.Engine
	snapshotCache *wallet.SnapshotCache
	rewardRepo    *repository.RewardRepository
	eventConsumer *consumer.EventConsumer

	mu    sync.RWMutex
	child *models.ChildIdentity
	scope *models.FamilyScope
}

// NewWalletService creates the wallet service and its connections.
func NewWalletService(cfg *config.Config, logger *zap.Logger) (*WalletService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	kv := session.NewRedisKV(redisClient)
	sessionStore := session.NewStore(kv, time.Duration(cfg.Wallet.SessionTTL)*time.Second, logger)

	familyRepo := repository.NewFamilyRepository(db, logger)
	ledgerRepo := repository.NewLedgerRepository(db, logger)
	walletRepo := repository.NewWalletRepository(db, logger)
	rewardRepo := repository.NewRewardRepository(db, logger)

	svc := &WalletService{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		mqttClient:  mqttClient,

		sessionStore: sessionStore,
		resolver:     identity.NewResolver(familyRepo, sessionStore, logger),
		secrets: verifier.NewVerifier(
			cfg.Verifier.BaseURL,
			time.Duration(cfg.Verifier.TimeoutSeconds)*time.Second,
			logger,
		),
		aggregator:    ledger.NewAggregator(ledgerRepo, logger),
		engine:        wallet.NewEngine(walletRepo, logger),
		snapshotCache: wallet.NewSnapshotCache(kv, time.Duration(cfg.Wallet.SnapshotTTL)*time.Second, logger),
		rewardRepo:    rewardRepo,
	}

	svc.eventConsumer = consumer.NewEventConsumer(mqttClient, svc.onChangeEvent, logger)

	return svc, nil
}

// Start repairs the session store, resolves the child identity, runs
// the initial refresh and then blocks serving push-driven refreshes
// until ctx is cancelled.
func (s *WalletService) Start(ctx context.Context) error {
	s.logger.Info("Starting wallet service")

	// Repair first: downstream reads consume session-tier state
	// unconditionally.
	if err := s.sessionStore.Repair(ctx); err != nil {
		s.logger.Warn("Session store repair failed", zap.Error(err))
	}

	hints := identity.ParseDeepLink(s.config.Wallet.DeepLink)

	scope, err := s.resolver.ResolveFamily(ctx, hints)
	if err != nil {
		return fmt.Errorf("failed to resolve family scope: %w", err)
	}

	child, err := s.resolver.ResolveChild(ctx, scope, hints)
	if err != nil {
		return fmt.Errorf("failed to resolve child identity: %w", err)
	}

	if err := s.sessionStore.SaveFamily(ctx, scope); err != nil {
		s.logger.Warn("Failed to persist family scope", zap.Error(err))
	}
	if err := s.sessionStore.SaveChild(ctx, child); err != nil {
		s.logger.Warn("Failed to persist child identity", zap.Error(err))
	}

	s.mu.Lock()
	s.child = child
	s.scope = scope
	s.mu.Unlock()

	s.logger.Info("Resolved child identity",
		zap.String("family_id", scope.FamilyID),
		zap.String("child_id", child.CanonicalID),
	)

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("Initial refresh failed", zap.Error(err))
	}

	if err := s.eventConsumer.Subscribe(scope.FamilyID, child.IDSet()); err != nil {
		return fmt.Errorf("failed to subscribe to change events: %w", err)
	}

	if s.config.Wallet.RefreshInterval > 0 {
		return s.runRefreshTicker(ctx)
	}

	<-ctx.Done()
	return nil
}

// runRefreshTicker is the safety-net periodic refresh alongside push
// events, for deployments where the broker drops notifications.
func (s *WalletService) runRefreshTicker(ctx context.Context) error {
	interval := time.Duration(s.config.Wallet.RefreshInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting periodic refresh", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("Periodic refresh failed", zap.Error(err))
			}
		}
	}
}

// onChangeEvent handles one push notification with one refresh cycle.
func (s *WalletService) onChangeEvent(event *models.ChangeEvent) {
	s.logger.Debug("Refreshing on change event",
		zap.String("event_type", event.EventType),
	)
	if err := s.Refresh(context.Background()); err != nil {
		s.logger.Error("Event-driven refresh failed", zap.Error(err))
	}
}

// Refresh recomputes the wallet snapshot and the reward states and
// writes the snapshot to the cache. Ledger aggregation and reward
// queries run in parallel; refreshes are idempotent recomputation, so
// concurrent cycles are not serialized and the last write wins.
func (s *WalletService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	child := s.child
	scope := s.scope
	s.mu.RUnlock()

	if child == nil {
		return fmt.Errorf("refresh before identity resolution")
	}

	var (
		wg          sync.WaitGroup
		entries     []models.LedgerEntry
		catalog     []models.Reward
		offers      []models.Offer
		redemptions []models.Redemption
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		entries = s.aggregator.Load(ctx, child.LegacyUID, child.CanonicalID)
	}()
	go func() {
		defer wg.Done()
		var err error
		catalog, err = s.rewardRepo.ActiveRewards(ctx, scope.FamilyID)
		if err != nil {
			s.logger.Warn("Reward catalog unavailable", zap.Error(err))
			catalog = nil
		}
		offers, err = s.rewardRepo.OffersForChild(ctx, child.IDSet())
		if err != nil {
			s.logger.Warn("Offer query unavailable", zap.Error(err))
			offers = nil
		}
		redemptions, err = s.rewardRepo.RedemptionsForChild(ctx, child.IDSet())
		if err != nil {
			s.logger.Warn("Redemption query unavailable", zap.Error(err))
			redemptions = nil
		}
	}()
	wg.Wait()

	snapshot := s.engine.Compute(ctx, child, entries)
	classified := rewards.Classify(catalog, redemptions)

	if err := s.snapshotCache.Put(ctx, child.CanonicalID, snapshot); err != nil {
		return err
	}

	pending := 0
	for _, cr := range classified {
		if cr.State == rewards.StatePending {
			pending++
		}
	}

	reserved, expired := 0, 0
	now := time.Now()
	for i := range offers {
		if offers[i].IsReserved() {
			reserved++
		}
		if rewards.IsExpired(&offers[i], now) {
			expired++
		}
	}

	s.logger.Info("Wallet refreshed",
		zap.String("child_id", child.CanonicalID),
		zap.String("wallet_source", snapshot.Source),
		zap.Int("available_points", snapshot.AvailablePoints),
		zap.Int("ledger_entries", len(entries)),
		zap.Int("pending_rewards", pending),
		zap.Int("reserved_offers", reserved),
		zap.Int("expired_offers", expired),
	)

	return nil
}

// VerifySecret checks the child's PIN or password against the
// verification endpoint using the resolved identity.
func (s *WalletService) VerifySecret(ctx context.Context, secret, mode string) (bool, error) {
	s.mu.RLock()
	child := s.child
	s.mu.RUnlock()

	if child == nil {
		return false, fmt.Errorf("verify before identity resolution")
	}
	return s.secrets.Verify(ctx, child, secret, mode)
}

// Stop disconnects the broker and closes the stores.
func (s *WalletService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping wallet service")

	if s.eventConsumer != nil {
		if err := s.eventConsumer.Unsubscribe(); err != nil {
			s.logger.Error("Error unsubscribing consumer", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing redis connection", zap.Error(err))
		}
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Error closing database connection", zap.Error(err))
	}

	s.logger.Info("Wallet service stopped")
	return nil
}
