// Package registry implements the administrative registry for tradable-asset
// metadata and the price-adjustment pipeline built on top of it.
//
// All mutating operations require the injected admin capability, take the
// single write lock for their whole duration, and emit exactly one change
// notification after the mutation is applied. Read accessors are lock-guarded
// pure lookups; a missing id reads as zero values.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/halcyonex/assetadmin/internal/gateway"
	"github.com/halcyonex/assetadmin/internal/notify"
	"github.com/halcyonex/assetadmin/pkg/metrics"
)

// AdminCapability authorizes privileged calls. Supplied externally; the
// registry never manages identity itself.
type AdminCapability interface {
	Authorize(ctx context.Context) error
}

// Registry is the administrative interface over asset metadata.
type Registry interface {
	// AddCryptoAsset assigns the next sequential id and writes a full record.
	AddCryptoAsset(ctx context.Context, props AssetProps) (uint64, error)

	// AddTimedMarketAsset replaces an existing whitelisted slot with a
	// session-bound market record.
	AddTimedMarketAsset(ctx context.Context, id uint64, rec TimedMarketAssetRecord) error

	// Field setters. Each writes exactly the targeted field(s).
	SetMinLiquidity(ctx context.Context, id uint64, amounts []decimal.Decimal) error
	SetWhitelisted(ctx context.Context, id uint64, whitelisted bool) error
	SetChainAddresses(ctx context.Context, id uint64, addrs map[uint64]string) error
	SetListingStage(ctx context.Context, id uint64, isolatedAllowed, sharedAllowed bool) error
	SetOracleSources(ctx context.Context, id uint64, decentralized, centralized bool) error
	SetTradeProp(ctx context.Context, id uint64, flag TradePropFlag, value bool) error
	SetRiskProps(ctx context.Context, id uint64, props RiskProps) error
	SetSpreadConfig(ctx context.Context, id uint64, cfg SpreadConfig) error
	SetDeviationConfig(ctx context.Context, id uint64, cfg DeviationConfig) error
	SetTimedMarketSymbol(ctx context.Context, id uint64, symbol string) error
	SetTimedMarketWindow(ctx context.Context, id uint64, window MarketWindow) error

	// BatchUpdateAssets applies declarative partial patches atomically.
	BatchUpdateAssets(ctx context.Context, crypto []CryptoAssetPatch, timed []TimedMarketAssetPatch) error

	// Read accessors.
	GetAsset(id uint64) AssetRecord
	GetTimedMarketProps(id uint64) TimedMarketProps
	GetTickSymbol(id uint64) string
	IsWhitelisted(id uint64) bool
	IsRegistered(id uint64) bool
	GetMinLiquidity(id uint64) []decimal.Decimal
	GetChainAddresses(id uint64) map[uint64]string
	GetPrecision(id uint64) (decimals, price uint8)
	GetListingStage(id uint64) (isolatedAllowed, sharedAllowed bool)
	GetOracleSources(id uint64) (decentralized, centralized bool)
	GetAssetTradeProps(id uint64) (reference, longable, shortable, stable, collateral bool)
	GetMarketProps(id uint64) MarketProps
	GetRiskProps(id uint64) RiskProps
	GetSpreadConfig(id uint64) SpreadConfig
	GetDeviationConfig(id uint64) DeviationConfig
	AllowedChainIDs() []uint64

	// GetMarketLiquidity returns the pool value backing a market.
	GetMarketLiquidity(ctx context.Context, marketID uint64) (decimal.Decimal, error)

	// ReferencePrices runs the price-adjustment pipeline for an asset,
	// one adjusted price per liquidity source.
	ReferencePrices(ctx context.Context, id uint64) ([]uint64, error)

	// IsMarketOpen reports whether the asset's session window contains now.
	IsMarketOpen(id uint64) bool
}

// Config is the immutable startup configuration of the registry.
type Config struct {
	// AllowedChainIDs is the global chain-id set shared by all assets,
	// fixed at construction.
	AllowedChainIDs []uint64

	// LiquiditySources is the number of liquidity sources; every asset's
	// minimum-liquidity sequence must have exactly this length.
	LiquiditySources int
}

// DefaultConfig returns the single-source configuration used today.
func DefaultConfig() *Config {
	return &Config{LiquiditySources: 1}
}

// Service is the lock-guarded Registry implementation.
type Service struct {
	mu     sync.RWMutex
	slots  map[uint64]*assetSlot
	nextID uint64

	cfg           *Config
	allowedChains map[uint64]struct{}

	guard   AdminCapability
	gateway gateway.MarketData
	sink    notify.Sink
	logger  *zap.Logger
	now     func() time.Time
}

var _ Registry = (*Service)(nil)

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source, used by the market-window tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a registry over the given collaborators.
func NewService(cfg *Config, guard AdminCapability, gw gateway.MarketData, sink notify.Sink, logger *zap.Logger, opts ...Option) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	allowed := make(map[uint64]struct{}, len(cfg.AllowedChainIDs))
	for _, chain := range cfg.AllowedChainIDs {
		allowed[chain] = struct{}{}
	}

	s := &Service{
		slots:         make(map[uint64]*assetSlot),
		nextID:        1,
		cfg:           cfg,
		allowedChains: allowed,
		guard:         guard,
		gateway:       gw,
		sink:          sink,
		logger:        logger.Named("registry"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("asset registry initialized",
		zap.Uint64s("allowed_chain_ids", cfg.AllowedChainIDs),
		zap.Int("liquidity_sources", cfg.LiquiditySources))

	return s
}

// AddCryptoAsset assigns the next sequential id and writes the full record.
func (s *Service) AddCryptoAsset(ctx context.Context, props AssetProps) (uint64, error) {
	if err := s.authorize(ctx); err != nil {
		return 0, err
	}
	if err := s.validateProps(&props); err != nil {
		metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
		return 0, err
	}

	s.mu.Lock()
	id := s.nextID

	// Defensive double-create check on the fresh slot. Unreachable under
	// strict auto-increment; kept deliberately.
	if slot, exists := s.slots[id]; exists && slot.asset.Whitelisted {
		s.mu.Unlock()
		metrics.MutationFailures.WithLabelValues(string(KindAlreadyExists)).Inc()
		return 0, newError(KindAlreadyExists, "asset id %d is already whitelisted", id)
	}

	record := AssetRecord{
		ID:                         id,
		TickSymbol:                 props.TickSymbol,
		Whitelisted:                props.Whitelisted,
		MinLiquidity:               append([]decimal.Decimal(nil), props.MinLiquidity...),
		ChainAddresses:             copyAddresses(props.ChainAddresses),
		DecimalsPrecision:          props.DecimalsPrecision,
		PricePrecision:             props.PricePrecision,
		IsolatedPoolAllowed:        props.IsolatedPoolAllowed,
		SharedPoolAllowed:          props.SharedPoolAllowed,
		DecentralizedSourceEnabled: props.DecentralizedSourceEnabled,
		CentralizedSourceEnabled:   props.CentralizedSourceEnabled,
		TradeProps:                 props.TradeProps,
		MarketProps:                props.MarketProps,
		RiskProps:                  props.RiskProps,
	}
	s.slots[id] = &assetSlot{asset: record}
	s.nextID++

	n := notify.NewNotification(id, notify.KindAssetCreated,
		notify.FieldChange{Field: "tick_symbol", Value: record.TickSymbol},
		notify.FieldChange{Field: "whitelisted", Value: record.Whitelisted},
		notify.FieldChange{Field: "isolated_pool_allowed", Value: record.IsolatedPoolAllowed},
		notify.FieldChange{Field: "shared_pool_allowed", Value: record.SharedPoolAllowed},
		notify.FieldChange{Field: "decentralized_source_enabled", Value: record.DecentralizedSourceEnabled},
		notify.FieldChange{Field: "centralized_source_enabled", Value: record.CentralizedSourceEnabled},
	)
	s.emit(ctx, n)
	s.mu.Unlock()

	s.logger.Info("crypto asset added",
		zap.Uint64("asset_id", id),
		zap.String("tick_symbol", record.TickSymbol),
		zap.Bool("whitelisted", record.Whitelisted))

	return id, nil
}

// AddTimedMarketAsset replaces an existing whitelisted slot wholesale.
func (s *Service) AddTimedMarketAsset(ctx context.Context, id uint64, rec TimedMarketAssetRecord) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}
	props := assetPropsOf(rec.AssetRecord)
	if err := s.validateProps(&props); err != nil {
		metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
		return err
	}

	s.mu.Lock()
	slot, exists := s.slots[id]
	if !exists || !slot.asset.Whitelisted {
		s.mu.Unlock()
		metrics.MutationFailures.WithLabelValues(string(KindNotFound)).Inc()
		return newError(KindNotFound, "asset %d is not registered", id)
	}

	asset := cloneAsset(rec.AssetRecord)
	asset.ID = id
	timed := rec.TimedMarketProps
	s.slots[id] = &assetSlot{asset: asset, timed: &timed}

	n := notify.NewNotification(id, notify.KindTimedMarketAssetCreated,
		notify.FieldChange{Field: "tick_symbol", Value: asset.TickSymbol},
		notify.FieldChange{Field: "reference_asset_symbol", Value: timed.ReferenceAssetSymbol},
		notify.FieldChange{Field: "open_timestamp", Value: timed.Window.OpenTimestamp},
		notify.FieldChange{Field: "duration_seconds", Value: timed.Window.DurationSeconds},
	)
	s.emit(ctx, n)
	s.mu.Unlock()

	s.logger.Info("timed market asset added",
		zap.Uint64("asset_id", id),
		zap.String("tick_symbol", asset.TickSymbol),
		zap.String("reference_asset_symbol", timed.ReferenceAssetSymbol))

	return nil
}

// GetMarketLiquidity returns the pool value backing a market.
func (s *Service) GetMarketLiquidity(ctx context.Context, marketID uint64) (decimal.Decimal, error) {
	if marketID == 0 {
		return decimal.Zero, newError(KindInvalidArgument, "market id must not be zero")
	}
	value, err := s.gateway.GetPoolValueByMarketID(ctx, marketID)
	if err != nil {
		return decimal.Zero, wrapError(KindStaleData, err, "pool value lookup failed for market %d", marketID)
	}
	return value, nil
}

// AllowedChainIDs returns the global chain-id set.
func (s *Service) AllowedChainIDs() []uint64 {
	return append([]uint64(nil), s.cfg.AllowedChainIDs...)
}

func (s *Service) authorize(ctx context.Context) error {
	if err := s.guard.Authorize(ctx); err != nil {
		metrics.MutationFailures.WithLabelValues(string(KindAuthorization)).Inc()
		return wrapError(KindAuthorization, err, "caller lacks the admin capability")
	}
	return nil
}

// validateProps checks construction-time invariants shared by both adds.
func (s *Service) validateProps(props *AssetProps) error {
	if len(props.MinLiquidity) != s.cfg.LiquiditySources {
		return newError(KindInvalidArgument,
			"min liquidity must carry %d amounts, got %d", s.cfg.LiquiditySources, len(props.MinLiquidity))
	}
	return s.validateChainAddresses(props.ChainAddresses)
}

func (s *Service) validateChainAddresses(addrs map[uint64]string) error {
	for chain := range addrs {
		if _, ok := s.allowedChains[chain]; !ok {
			return newError(KindInvalidArgument, "chain id %d is not in the allowed set", chain)
		}
	}
	return nil
}

// emit publishes one notification for an applied mutation. Called with the
// write lock held so notifications observe mutation order. Delivery failures
// are logged, never propagated: the mutation is already applied.
func (s *Service) emit(ctx context.Context, n notify.Notification) {
	metrics.AssetMutations.WithLabelValues(string(n.Kind)).Inc()
	metrics.NotificationsPublished.Inc()
	if err := s.sink.Publish(ctx, n); err != nil {
		s.logger.Error("failed to publish change notification",
			zap.Uint64("asset_id", n.AssetID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}
}

func assetPropsOf(rec AssetRecord) AssetProps {
	return AssetProps{
		TickSymbol:                 rec.TickSymbol,
		Whitelisted:                rec.Whitelisted,
		MinLiquidity:               rec.MinLiquidity,
		ChainAddresses:             rec.ChainAddresses,
		DecimalsPrecision:          rec.DecimalsPrecision,
		PricePrecision:             rec.PricePrecision,
		IsolatedPoolAllowed:        rec.IsolatedPoolAllowed,
		SharedPoolAllowed:          rec.SharedPoolAllowed,
		DecentralizedSourceEnabled: rec.DecentralizedSourceEnabled,
		CentralizedSourceEnabled:   rec.CentralizedSourceEnabled,
		TradeProps:                 rec.TradeProps,
		MarketProps:                rec.MarketProps,
		RiskProps:                  rec.RiskProps,
	}
}

func copyAddresses(addrs map[uint64]string) map[uint64]string {
	cp := make(map[uint64]string, len(addrs))
	for chain, addr := range addrs {
		cp[chain] = addr
	}
	return cp
}
