package registry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/halcyonex/assetadmin/internal/notify"
	"github.com/halcyonex/assetadmin/pkg/metrics"
)

// CryptoAssetPatch is a partial update of one crypto asset. A nil field is
// "leave untouched"; a non-nil field is copied verbatim into the record.
type CryptoAssetPatch struct {
	AssetID uint64 `json:"asset_id"`

	TickSymbol     *string            `json:"tick_symbol,omitempty"`
	Whitelisted    *bool              `json:"whitelisted,omitempty"`
	MinLiquidity   *[]decimal.Decimal `json:"min_liquidity,omitempty"`
	ChainAddresses *map[uint64]string `json:"chain_addresses,omitempty"`

	DecimalsPrecision *uint8 `json:"decimals_precision,omitempty"`
	PricePrecision    *uint8 `json:"price_precision,omitempty"`

	IsolatedPoolAllowed *bool `json:"isolated_pool_allowed,omitempty"`
	SharedPoolAllowed   *bool `json:"shared_pool_allowed,omitempty"`

	DecentralizedSourceEnabled *bool `json:"decentralized_source_enabled,omitempty"`
	CentralizedSourceEnabled   *bool `json:"centralized_source_enabled,omitempty"`

	Shortable  *bool `json:"shortable,omitempty"`
	Stable     *bool `json:"stable,omitempty"`
	Longable   *bool `json:"longable,omitempty"`
	Collateral *bool `json:"collateral,omitempty"`
	Reference  *bool `json:"reference,omitempty"`

	SwapEnabled              *bool `json:"swap_enabled,omitempty"`
	MarginTradingEnabled     *bool `json:"margin_trading_enabled,omitempty"`
	LimitOrderBookEnabled    *bool `json:"limit_order_book_enabled,omitempty"`
	ExternalLiquidityEnabled *bool `json:"external_liquidity_enabled,omitempty"`

	MaxLeverageFactor         *uint64 `json:"max_leverage_factor,omitempty"`
	PositionSizeReserveFactor *uint64 `json:"position_size_reserve_factor,omitempty"`
	MaxPositionSizePerMarket  *bool   `json:"max_position_size_per_market,omitempty"`
	MaxPositionPnlFactor      *uint64 `json:"max_position_pnl_factor,omitempty"`
	MaxGlobalPnlFactor        *uint64 `json:"max_global_pnl_factor,omitempty"`
}

// TimedMarketAssetPatch is a partial update of a timed-market asset's
// session fields and its top-level risk copies.
type TimedMarketAssetPatch struct {
	AssetID uint64 `json:"asset_id"`

	ReferenceAssetSymbol *string       `json:"reference_asset_symbol,omitempty"`
	Window               *MarketWindow `json:"window,omitempty"`
	RiskProps            *RiskProps    `json:"risk_props,omitempty"`
}

// cryptoPatchRow maps one patch field to its record accessor. Adding a
// mutable field to the model means adding exactly one row here.
type cryptoPatchRow struct {
	name  string
	apply func(s *Service, slot *assetSlot, p *CryptoAssetPatch) error
}

var cryptoPatchTable = []cryptoPatchRow{
	{"tick_symbol", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.TickSymbol != nil {
			slot.asset.TickSymbol = *p.TickSymbol
		}
		return nil
	}},
	{"whitelisted", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Whitelisted != nil {
			slot.asset.Whitelisted = *p.Whitelisted
		}
		return nil
	}},
	{"min_liquidity", func(s *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MinLiquidity == nil {
			return nil
		}
		if len(*p.MinLiquidity) != s.cfg.LiquiditySources {
			return newError(KindInvalidArgument,
				"min liquidity must carry %d amounts, got %d", s.cfg.LiquiditySources, len(*p.MinLiquidity))
		}
		slot.asset.MinLiquidity = append([]decimal.Decimal(nil), *p.MinLiquidity...)
		return nil
	}},
	{"chain_addresses", func(s *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.ChainAddresses == nil {
			return nil
		}
		if err := s.validateChainAddresses(*p.ChainAddresses); err != nil {
			return err
		}
		slot.asset.ChainAddresses = copyAddresses(*p.ChainAddresses)
		return nil
	}},
	{"decimals_precision", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.DecimalsPrecision != nil {
			slot.asset.DecimalsPrecision = *p.DecimalsPrecision
		}
		return nil
	}},
	{"price_precision", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.PricePrecision != nil {
			slot.asset.PricePrecision = *p.PricePrecision
		}
		return nil
	}},
	{"isolated_pool_allowed", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.IsolatedPoolAllowed != nil {
			slot.asset.IsolatedPoolAllowed = *p.IsolatedPoolAllowed
		}
		return nil
	}},
	{"shared_pool_allowed", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.SharedPoolAllowed != nil {
			slot.asset.SharedPoolAllowed = *p.SharedPoolAllowed
		}
		return nil
	}},
	{"decentralized_source_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.DecentralizedSourceEnabled != nil {
			slot.asset.DecentralizedSourceEnabled = *p.DecentralizedSourceEnabled
		}
		return nil
	}},
	{"centralized_source_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.CentralizedSourceEnabled != nil {
			slot.asset.CentralizedSourceEnabled = *p.CentralizedSourceEnabled
		}
		return nil
	}},
	{"shortable", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Shortable != nil {
			slot.asset.TradeProps.Shortable = *p.Shortable
		}
		return nil
	}},
	{"stable", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Stable != nil {
			slot.asset.TradeProps.Stable = *p.Stable
		}
		return nil
	}},
	{"longable", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Longable != nil {
			slot.asset.TradeProps.Longable = *p.Longable
		}
		return nil
	}},
	{"collateral", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Collateral != nil {
			slot.asset.TradeProps.Collateral = *p.Collateral
		}
		return nil
	}},
	{"reference", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.Reference != nil {
			slot.asset.TradeProps.Reference = *p.Reference
		}
		return nil
	}},
	{"swap_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.SwapEnabled != nil {
			slot.asset.MarketProps.SwapEnabled = *p.SwapEnabled
		}
		return nil
	}},
	{"margin_trading_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MarginTradingEnabled != nil {
			slot.asset.MarketProps.MarginTradingEnabled = *p.MarginTradingEnabled
		}
		return nil
	}},
	{"limit_order_book_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.LimitOrderBookEnabled != nil {
			slot.asset.MarketProps.LimitOrderBookEnabled = *p.LimitOrderBookEnabled
		}
		return nil
	}},
	{"external_liquidity_enabled", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.ExternalLiquidityEnabled != nil {
			slot.asset.MarketProps.ExternalLiquidityEnabled = *p.ExternalLiquidityEnabled
		}
		return nil
	}},
	{"max_leverage_factor", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MaxLeverageFactor != nil {
			slot.asset.RiskProps.MaxLeverageFactor = *p.MaxLeverageFactor
		}
		return nil
	}},
	{"position_size_reserve_factor", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.PositionSizeReserveFactor != nil {
			slot.asset.RiskProps.PositionSizeReserveFactor = *p.PositionSizeReserveFactor
		}
		return nil
	}},
	{"max_position_size_per_market", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MaxPositionSizePerMarket != nil {
			slot.asset.RiskProps.MaxPositionSizePerMarket = *p.MaxPositionSizePerMarket
		}
		return nil
	}},
	{"max_position_pnl_factor", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MaxPositionPnlFactor != nil {
			slot.asset.RiskProps.MaxPositionPnlFactor = *p.MaxPositionPnlFactor
		}
		return nil
	}},
	{"max_global_pnl_factor", func(_ *Service, slot *assetSlot, p *CryptoAssetPatch) error {
		if p.MaxGlobalPnlFactor != nil {
			slot.asset.RiskProps.MaxGlobalPnlFactor = *p.MaxGlobalPnlFactor
		}
		return nil
	}},
}

type timedPatchRow struct {
	name  string
	apply func(slot *assetSlot, p *TimedMarketAssetPatch)
}

var timedPatchTable = []timedPatchRow{
	{"reference_asset_symbol", func(slot *assetSlot, p *TimedMarketAssetPatch) {
		if p.ReferenceAssetSymbol != nil {
			slot.timed.ReferenceAssetSymbol = *p.ReferenceAssetSymbol
		}
	}},
	{"window", func(slot *assetSlot, p *TimedMarketAssetPatch) {
		if p.Window != nil {
			slot.timed.Window = *p.Window
		}
	}},
	{"risk_props", func(slot *assetSlot, p *TimedMarketAssetPatch) {
		if p.RiskProps != nil {
			slot.timed.MaxLeverageFactor = p.RiskProps.MaxLeverageFactor
			slot.timed.PositionSizeReserveFactor = p.RiskProps.PositionSizeReserveFactor
			slot.timed.MaxPositionSizePerMarket = p.RiskProps.MaxPositionSizePerMarket
			slot.timed.MaxPositionPnlFactor = p.RiskProps.MaxPositionPnlFactor
			slot.timed.MaxGlobalPnlFactor = p.RiskProps.MaxGlobalPnlFactor
		}
	}},
}

// BatchUpdateAssets applies all patches as one transaction: crypto patches
// first, then timed-market patches, each in input order. Patches run against
// a staged copy of the store that is swapped in only when every entry
// succeeds, so a failing entry leaves no trace of the whole call.
func (s *Service) BatchUpdateAssets(ctx context.Context, crypto []CryptoAssetPatch, timed []TimedMarketAssetPatch) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[uint64]*assetSlot, len(s.slots))
	for id, slot := range s.slots {
		staged[id] = slot.clone()
	}

	pending := make([]notify.Notification, 0, len(crypto)+len(timed))

	for i := range crypto {
		p := &crypto[i]
		slot, err := stagedSlot(staged, p.AssetID)
		if err != nil {
			metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
			return err
		}
		for _, row := range cryptoPatchTable {
			if err := row.apply(s, slot, p); err != nil {
				metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
				return err
			}
		}
		pending = append(pending, snapshotNotification(slot, notify.KindAssetUpdated))
	}

	for i := range timed {
		p := &timed[i]
		slot, err := stagedSlot(staged, p.AssetID)
		if err != nil {
			metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
			return err
		}
		if slot.timed == nil {
			metrics.MutationFailures.WithLabelValues(string(KindNotFound)).Inc()
			return newError(KindNotFound, "asset %d is not a timed market asset", p.AssetID)
		}
		for _, row := range timedPatchTable {
			row.apply(slot, p)
		}
		pending = append(pending, snapshotNotification(slot, notify.KindTimedMarketAssetUpdated))
	}

	s.slots = staged
	for _, n := range pending {
		s.emit(ctx, n)
	}
	metrics.BatchEntries.Observe(float64(len(crypto) + len(timed)))

	s.logger.Info("batch update applied",
		zap.Int("crypto_entries", len(crypto)),
		zap.Int("timed_entries", len(timed)))

	return nil
}

func stagedSlot(staged map[uint64]*assetSlot, id uint64) (*assetSlot, error) {
	slot, exists := staged[id]
	if !exists || !slot.asset.Whitelisted {
		return nil, newError(KindNotFound, "asset %d is not registered", id)
	}
	return slot, nil
}

// snapshotNotification builds the full-snapshot event emitted per batch entry.
func snapshotNotification(slot *assetSlot, kind notify.ChangeKind) notify.Notification {
	a := slot.asset
	fields := []notify.FieldChange{
		{Field: "tick_symbol", Value: a.TickSymbol},
		{Field: "whitelisted", Value: a.Whitelisted},
		{Field: "min_liquidity", Value: a.MinLiquidity},
		{Field: "chain_addresses", Value: a.ChainAddresses},
		{Field: "decimals_precision", Value: a.DecimalsPrecision},
		{Field: "price_precision", Value: a.PricePrecision},
		{Field: "isolated_pool_allowed", Value: a.IsolatedPoolAllowed},
		{Field: "shared_pool_allowed", Value: a.SharedPoolAllowed},
		{Field: "decentralized_source_enabled", Value: a.DecentralizedSourceEnabled},
		{Field: "centralized_source_enabled", Value: a.CentralizedSourceEnabled},
		{Field: "trade_props", Value: a.TradeProps},
		{Field: "market_props", Value: a.MarketProps},
		{Field: "risk_props", Value: a.RiskProps},
	}
	if slot.timed != nil {
		fields = append(fields,
			notify.FieldChange{Field: "reference_asset_symbol", Value: slot.timed.ReferenceAssetSymbol},
			notify.FieldChange{Field: "open_timestamp", Value: slot.timed.Window.OpenTimestamp},
			notify.FieldChange{Field: "duration_seconds", Value: slot.timed.Window.DurationSeconds},
		)
	}
	return notify.NewNotification(a.ID, kind, fields...)
}
