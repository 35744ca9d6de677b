package registry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/halcyonex/assetadmin/internal/notify"
)

func newBatchFixture(t *testing.T) (*Service, *recordingSink) {
	sink := &recordingSink{}
	svc := NewService(
		&Config{AllowedChainIDs: []uint64{1}, LiquiditySources: 1},
		allowAll{},
		&fakeGateway{valid: true},
		sink,
		zaptest.NewLogger(t),
	)
	return svc, sink
}

func seedAsset(t *testing.T, svc *Service, symbol string) uint64 {
	id, err := svc.AddCryptoAsset(context.Background(), AssetProps{
		TickSymbol:   symbol,
		Whitelisted:  true,
		MinLiquidity: []decimal.Decimal{decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)
	return id
}

func boolPtr(v bool) *bool    { return &v }
func u64Ptr(v uint64) *uint64 { return &v }
func strPtr(v string) *string { return &v }
func u8Ptr(v uint8) *uint8    { return &v }

func TestBatchFlagIndependence(t *testing.T) {
	svc, _ := newBatchFixture(t)
	id := seedAsset(t, svc, "BTC")
	before := svc.GetAsset(id)

	// Exactly one field set in the patch: only that field may change.
	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{{
		AssetID:   id,
		Shortable: boolPtr(true),
	}}, nil)
	require.NoError(t, err)

	after := svc.GetAsset(id)
	assert.True(t, after.TradeProps.Shortable)

	after.TradeProps.Shortable = before.TradeProps.Shortable
	assert.Equal(t, before, after, "no other field may change")
}

func TestBatchAppliesEveryPatchField(t *testing.T) {
	svc, _ := newBatchFixture(t)
	id := seedAsset(t, svc, "BTC")

	liquidity := []decimal.Decimal{decimal.NewFromInt(7777)}
	addrs := map[uint64]string{1: "0xabc"}
	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{{
		AssetID:                    id,
		TickSymbol:                 strPtr("WBTC"),
		Whitelisted:                boolPtr(true),
		MinLiquidity:               &liquidity,
		ChainAddresses:             &addrs,
		DecimalsPrecision:          u8Ptr(18),
		PricePrecision:             u8Ptr(9),
		IsolatedPoolAllowed:        boolPtr(true),
		SharedPoolAllowed:          boolPtr(true),
		DecentralizedSourceEnabled: boolPtr(true),
		CentralizedSourceEnabled:   boolPtr(true),
		Shortable:                  boolPtr(true),
		Stable:                     boolPtr(true),
		Longable:                   boolPtr(true),
		Collateral:                 boolPtr(true),
		Reference:                  boolPtr(true),
		SwapEnabled:                boolPtr(true),
		MarginTradingEnabled:       boolPtr(true),
		LimitOrderBookEnabled:      boolPtr(true),
		ExternalLiquidityEnabled:   boolPtr(true),
		MaxLeverageFactor:          u64Ptr(100),
		PositionSizeReserveFactor:  u64Ptr(500),
		MaxPositionSizePerMarket:   boolPtr(true),
		MaxPositionPnlFactor:       u64Ptr(9000),
		MaxGlobalPnlFactor:         u64Ptr(8000),
	}}, nil)
	require.NoError(t, err)

	got := svc.GetAsset(id)
	assert.Equal(t, "WBTC", got.TickSymbol)
	assert.Equal(t, liquidity, got.MinLiquidity)
	assert.Equal(t, addrs, got.ChainAddresses)
	assert.Equal(t, uint8(18), got.DecimalsPrecision)
	assert.Equal(t, uint8(9), got.PricePrecision)
	assert.Equal(t, TradeProps{Shortable: true, Stable: true, Longable: true, Collateral: true, Reference: true}, got.TradeProps)
	assert.Equal(t, MarketProps{SwapEnabled: true, MarginTradingEnabled: true, LimitOrderBookEnabled: true, ExternalLiquidityEnabled: true}, got.MarketProps)
	assert.Equal(t, RiskProps{
		MaxLeverageFactor:         100,
		PositionSizeReserveFactor: 500,
		MaxPositionSizePerMarket:  true,
		MaxPositionPnlFactor:      9000,
		MaxGlobalPnlFactor:        8000,
	}, got.RiskProps)
}

func TestBatchAtomicityOnUnregisteredTarget(t *testing.T) {
	svc, sink := newBatchFixture(t)
	first := seedAsset(t, svc, "BTC")
	second := seedAsset(t, svc, "ETH")
	published := len(sink.notifications)

	// Entry 0 and 1 are fine; entry 2 targets an unregistered id. Nothing
	// from entries 0..1 may survive.
	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{
		{AssetID: first, TickSymbol: strPtr("CHANGED1")},
		{AssetID: second, TickSymbol: strPtr("CHANGED2")},
		{AssetID: 999, TickSymbol: strPtr("GHOST")},
	}, nil)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "BTC", svc.GetTickSymbol(first))
	assert.Equal(t, "ETH", svc.GetTickSymbol(second))
	assert.Len(t, sink.notifications, published, "a failed batch publishes nothing")
}

func TestBatchAtomicityOnInvalidField(t *testing.T) {
	svc, _ := newBatchFixture(t)
	id := seedAsset(t, svc, "BTC")

	badLiquidity := []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}
	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{
		{AssetID: id, TickSymbol: strPtr("CHANGED")},
		{AssetID: id, MinLiquidity: &badLiquidity},
	}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "BTC", svc.GetTickSymbol(id))
}

func TestBatchDeactivatedTargetIsNotFound(t *testing.T) {
	svc, _ := newBatchFixture(t)
	id := seedAsset(t, svc, "BTC")
	require.NoError(t, svc.SetWhitelisted(context.Background(), id, false))

	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{
		{AssetID: id, TickSymbol: strPtr("CHANGED")},
	}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchEmitsFullSnapshotPerEntry(t *testing.T) {
	svc, sink := newBatchFixture(t)
	first := seedAsset(t, svc, "BTC")
	second := seedAsset(t, svc, "ETH")
	published := len(sink.notifications)

	err := svc.BatchUpdateAssets(context.Background(), []CryptoAssetPatch{
		{AssetID: first, Shortable: boolPtr(true)},
		{AssetID: second, Stable: boolPtr(true)},
	}, nil)
	require.NoError(t, err)

	require.Len(t, sink.notifications, published+2)
	for _, n := range sink.notifications[published:] {
		assert.Equal(t, notify.KindAssetUpdated, n.Kind)
		assert.GreaterOrEqual(t, len(n.Fields), 13, "snapshot carries the full field list")
	}
	assert.Equal(t, first, sink.notifications[published].AssetID)
	assert.Equal(t, second, sink.notifications[published+1].AssetID)
}

func TestBatchTimedMarketPatches(t *testing.T) {
	svc, sink := newBatchFixture(t)
	id := seedAsset(t, svc, "GOLD")
	base := svc.GetAsset(id)
	require.NoError(t, svc.AddTimedMarketAsset(context.Background(), id, TimedMarketAssetRecord{
		AssetRecord: base,
		TimedMarketProps: TimedMarketProps{
			ReferenceAssetSymbol: "XAU",
			Window:               MarketWindow{OpenTimestamp: 100, DurationSeconds: 50},
		},
	}))

	window := MarketWindow{OpenTimestamp: 200, DurationSeconds: 75}
	risk := RiskProps{MaxLeverageFactor: 5, MaxGlobalPnlFactor: 7000}
	err := svc.BatchUpdateAssets(context.Background(), nil, []TimedMarketAssetPatch{{
		AssetID:              id,
		ReferenceAssetSymbol: strPtr("XAG"),
		Window:               &window,
		RiskProps:            &risk,
	}})
	require.NoError(t, err)

	timed := svc.GetTimedMarketProps(id)
	assert.Equal(t, "XAG", timed.ReferenceAssetSymbol)
	assert.Equal(t, window, timed.Window)
	assert.Equal(t, uint64(5), timed.MaxLeverageFactor)
	assert.Equal(t, uint64(7000), timed.MaxGlobalPnlFactor)
	assert.Equal(t, notify.KindTimedMarketAssetUpdated, sink.last().Kind)
}

func TestBatchTimedPatchOnPlainAssetFails(t *testing.T) {
	svc, _ := newBatchFixture(t)
	id := seedAsset(t, svc, "BTC")

	err := svc.BatchUpdateAssets(context.Background(), nil, []TimedMarketAssetPatch{{
		AssetID:              id,
		ReferenceAssetSymbol: strPtr("XAU"),
	}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchCryptoThenTimedOrder(t *testing.T) {
	svc, sink := newBatchFixture(t)
	id := seedAsset(t, svc, "GOLD")
	require.NoError(t, svc.AddTimedMarketAsset(context.Background(), id, TimedMarketAssetRecord{
		AssetRecord:      svc.GetAsset(id),
		TimedMarketProps: TimedMarketProps{ReferenceAssetSymbol: "XAU"},
	}))
	published := len(sink.notifications)

	err := svc.BatchUpdateAssets(context.Background(),
		[]CryptoAssetPatch{{AssetID: id, Shortable: boolPtr(true)}},
		[]TimedMarketAssetPatch{{AssetID: id, ReferenceAssetSymbol: strPtr("XAG")}},
	)
	require.NoError(t, err)

	require.Len(t, sink.notifications, published+2)
	assert.Equal(t, notify.KindAssetUpdated, sink.notifications[published].Kind)
	assert.Equal(t, notify.KindTimedMarketAssetUpdated, sink.notifications[published+1].Kind)
}

func TestCryptoPatchTableCoversEveryField(t *testing.T) {
	// One row per mutable field or field-group on the crypto patch.
	assert.Len(t, cryptoPatchTable, 24)
	assert.Len(t, timedPatchTable, 3)

	seen := map[string]bool{}
	for _, row := range cryptoPatchTable {
		assert.False(t, seen[row.name], "duplicate row %s", row.name)
		seen[row.name] = true
	}
}
