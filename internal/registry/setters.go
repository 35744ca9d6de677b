package registry

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/halcyonex/assetadmin/internal/notify"
	"github.com/halcyonex/assetadmin/pkg/metrics"
)

// mutate runs fn on the target slot under the write lock, then emits the
// returned notification. When requireWhitelisted is set, a deactivated or
// absent id fails with NotFound; the whitelisted setter itself only needs
// presence so a deactivated asset can be reactivated.
func (s *Service) mutate(ctx context.Context, id uint64, requireWhitelisted bool, fn func(slot *assetSlot) (notify.Notification, error)) error {
	if err := s.authorize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, exists := s.slots[id]
	if !exists || (requireWhitelisted && !slot.asset.Whitelisted) {
		metrics.MutationFailures.WithLabelValues(string(KindNotFound)).Inc()
		return newError(KindNotFound, "asset %d is not registered", id)
	}

	n, err := fn(slot)
	if err != nil {
		metrics.MutationFailures.WithLabelValues(string(KindOf(err))).Inc()
		return err
	}

	s.emit(ctx, n)
	return nil
}

// SetMinLiquidity replaces the per-source minimum liquidity sequence.
func (s *Service) SetMinLiquidity(ctx context.Context, id uint64, amounts []decimal.Decimal) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		if len(amounts) != s.cfg.LiquiditySources {
			return notify.Notification{}, newError(KindInvalidArgument,
				"min liquidity must carry %d amounts, got %d", s.cfg.LiquiditySources, len(amounts))
		}
		slot.asset.MinLiquidity = append([]decimal.Decimal(nil), amounts...)
		return notify.NewNotification(id, notify.KindMinLiquidityChanged,
			notify.FieldChange{Field: "min_liquidity", Value: amounts}), nil
	})
}

// SetWhitelisted toggles the asset's tradability. This is the only setter
// that works on a deactivated record, so assets can be reactivated.
func (s *Service) SetWhitelisted(ctx context.Context, id uint64, whitelisted bool) error {
	return s.mutate(ctx, id, false, func(slot *assetSlot) (notify.Notification, error) {
		slot.asset.Whitelisted = whitelisted
		return notify.NewNotification(id, notify.KindWhitelistedStatusChanged,
			notify.FieldChange{Field: "whitelisted", Value: whitelisted}), nil
	})
}

// SetChainAddresses replaces the chain-to-address mapping. Every chain id
// must be in the global allowed set.
func (s *Service) SetChainAddresses(ctx context.Context, id uint64, addrs map[uint64]string) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		if err := s.validateChainAddresses(addrs); err != nil {
			return notify.Notification{}, err
		}
		slot.asset.ChainAddresses = copyAddresses(addrs)
		return notify.NewNotification(id, notify.KindChainAddressesChanged,
			notify.FieldChange{Field: "chain_addresses", Value: addrs}), nil
	})
}

// SetListingStage sets the isolated/shared pool eligibility flags.
func (s *Service) SetListingStage(ctx context.Context, id uint64, isolatedAllowed, sharedAllowed bool) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		slot.asset.IsolatedPoolAllowed = isolatedAllowed
		slot.asset.SharedPoolAllowed = sharedAllowed
		return notify.NewNotification(id, notify.KindListingStageChanged,
			notify.FieldChange{Field: "isolated_pool_allowed", Value: isolatedAllowed},
			notify.FieldChange{Field: "shared_pool_allowed", Value: sharedAllowed}), nil
	})
}

// SetOracleSources sets the decentralized/centralized price source flags.
func (s *Service) SetOracleSources(ctx context.Context, id uint64, decentralized, centralized bool) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		slot.asset.DecentralizedSourceEnabled = decentralized
		slot.asset.CentralizedSourceEnabled = centralized
		return notify.NewNotification(id, notify.KindOracleSourceChanged,
			notify.FieldChange{Field: "decentralized_source_enabled", Value: decentralized},
			notify.FieldChange{Field: "centralized_source_enabled", Value: centralized}), nil
	})
}

// SetTradeProp sets one TradeProps flag.
func (s *Service) SetTradeProp(ctx context.Context, id uint64, flag TradePropFlag, value bool) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		switch flag {
		case TradePropShortable:
			slot.asset.TradeProps.Shortable = value
		case TradePropStable:
			slot.asset.TradeProps.Stable = value
		case TradePropLongable:
			slot.asset.TradeProps.Longable = value
		case TradePropCollateral:
			slot.asset.TradeProps.Collateral = value
		case TradePropReference:
			slot.asset.TradeProps.Reference = value
		default:
			return notify.Notification{}, newError(KindInvalidArgument, "unknown trade prop flag %q", flag)
		}
		return notify.NewNotification(id, notify.KindTradePropChanged,
			notify.FieldChange{Field: "trade_props." + string(flag), Value: value}), nil
	})
}

// SetRiskProps replaces the full risk bundle.
func (s *Service) SetRiskProps(ctx context.Context, id uint64, props RiskProps) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		slot.asset.RiskProps = props
		return notify.NewNotification(id, notify.KindRiskPropsChanged,
			notify.FieldChange{Field: "risk_props", Value: props}), nil
	})
}

// SetSpreadConfig replaces the asset's spread configuration.
func (s *Service) SetSpreadConfig(ctx context.Context, id uint64, cfg SpreadConfig) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		slot.spread = cfg
		return notify.NewNotification(id, notify.KindSpreadConfigChanged,
			notify.FieldChange{Field: "spread_config", Value: cfg}), nil
	})
}

// SetDeviationConfig replaces the asset's deviation bounds.
func (s *Service) SetDeviationConfig(ctx context.Context, id uint64, cfg DeviationConfig) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		slot.deviation = cfg
		return notify.NewNotification(id, notify.KindDeviationConfigChanged,
			notify.FieldChange{Field: "deviation_config", Value: cfg}), nil
	})
}

// SetTimedMarketSymbol sets the reference symbol of a timed-market asset.
func (s *Service) SetTimedMarketSymbol(ctx context.Context, id uint64, symbol string) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		if slot.timed == nil {
			return notify.Notification{}, newError(KindNotFound, "asset %d is not a timed market asset", id)
		}
		slot.timed.ReferenceAssetSymbol = symbol
		return notify.NewNotification(id, notify.KindTimedMarketSymbolChanged,
			notify.FieldChange{Field: "reference_asset_symbol", Value: symbol}), nil
	})
}

// SetTimedMarketWindow rewrites the session window of a timed-market asset.
func (s *Service) SetTimedMarketWindow(ctx context.Context, id uint64, window MarketWindow) error {
	return s.mutate(ctx, id, true, func(slot *assetSlot) (notify.Notification, error) {
		if slot.timed == nil {
			return notify.Notification{}, newError(KindNotFound, "asset %d is not a timed market asset", id)
		}
		slot.timed.Window = window
		return notify.NewNotification(id, notify.KindTimedMarketWindowUpdated,
			notify.FieldChange{Field: "open_timestamp", Value: window.OpenTimestamp},
			notify.FieldChange{Field: "duration_seconds", Value: window.DurationSeconds}), nil
	})
}
