// Package gateway defines the market data dependency of the asset registry.
// The registry only reads two things from the outside world: the pool value
// backing a market and the raw price of an asset. A production implementation
// queries a real liquidity venue; the stub here returns a fixed answer until
// a live feed is wired.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/halcyonex/assetadmin/pkg/metrics"
)

// MarketData supplies pool values and raw prices.
type MarketData interface {
	// GetPoolValueByMarketID returns the current pool value for a market.
	GetPoolValueByMarketID(ctx context.Context, marketID uint64) (decimal.Decimal, error)

	// GetMarketPrice returns the raw reference price for an asset. valid is
	// false when the venue could not produce a trustworthy price.
	GetMarketPrice(ctx context.Context, assetID uint64) (price uint64, valid bool, err error)
}

// FixedStub is the stand-in MarketData used until a live feed exists.
// It reports every price as 0 and valid, and every pool as PoolValue.
type FixedStub struct {
	PoolValue decimal.Decimal
}

// NewFixedStub creates a stub with a zero pool value.
func NewFixedStub() *FixedStub {
	return &FixedStub{PoolValue: decimal.Zero}
}

func (s *FixedStub) GetPoolValueByMarketID(ctx context.Context, marketID uint64) (decimal.Decimal, error) {
	metrics.GatewayLookups.WithLabelValues("pool_value", "ok").Inc()
	return s.PoolValue, nil
}

func (s *FixedStub) GetMarketPrice(ctx context.Context, assetID uint64) (uint64, bool, error) {
	metrics.GatewayLookups.WithLabelValues("market_price", "ok").Inc()
	return 0, true, nil
}
