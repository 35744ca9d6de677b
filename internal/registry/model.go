package registry

import (
	"github.com/shopspring/decimal"
)

// TradeProps are the independent per-asset trading flags.
type TradeProps struct {
	Shortable  bool `json:"shortable"`
	Stable     bool `json:"stable"`
	Longable   bool `json:"longable"`
	Collateral bool `json:"collateral"`
	Reference  bool `json:"reference"`
}

// TradePropFlag names one TradeProps flag for the individual setters.
type TradePropFlag string

const (
	TradePropShortable  TradePropFlag = "shortable"
	TradePropStable     TradePropFlag = "stable"
	TradePropLongable   TradePropFlag = "longable"
	TradePropCollateral TradePropFlag = "collateral"
	TradePropReference  TradePropFlag = "reference"
)

// MarketProps are the per-asset market capability flags. They are set at
// creation or through batch updates; there is no individual setter.
type MarketProps struct {
	SwapEnabled              bool `json:"swap_enabled"`
	MarginTradingEnabled     bool `json:"margin_trading_enabled"`
	LimitOrderBookEnabled    bool `json:"limit_order_book_enabled"`
	ExternalLiquidityEnabled bool `json:"external_liquidity_enabled"`
}

// RiskProps is the per-asset risk parameter bundle. Factors are fixed-point
// integers scaled in basis points where applicable.
type RiskProps struct {
	MaxLeverageFactor         uint64 `json:"max_leverage_factor"`
	PositionSizeReserveFactor uint64 `json:"position_size_reserve_factor"`
	MaxPositionSizePerMarket  bool   `json:"max_position_size_per_market"`
	MaxPositionPnlFactor      uint64 `json:"max_position_pnl_factor"`
	MaxGlobalPnlFactor        uint64 `json:"max_global_pnl_factor"`
}

// AssetRecord is the full metadata record of one tradable asset. The id is
// assigned by the registry, sequentially from 1.
type AssetRecord struct {
	ID          uint64 `json:"id"`
	TickSymbol  string `json:"tick_symbol"`
	Whitelisted bool   `json:"whitelisted"`

	// MinLiquidity holds one minimum amount per liquidity source; its length
	// always equals the configured liquidity source count.
	MinLiquidity []decimal.Decimal `json:"min_liquidity"`

	// ChainAddresses maps a chain id from the global allowed set to the
	// asset's on-chain token address on that chain. Addresses are opaque
	// operator-supplied strings; format validation is out of scope.
	ChainAddresses map[uint64]string `json:"chain_addresses"`

	DecimalsPrecision uint8 `json:"decimals_precision"`
	PricePrecision    uint8 `json:"price_precision"`

	IsolatedPoolAllowed bool `json:"isolated_pool_allowed"`
	SharedPoolAllowed   bool `json:"shared_pool_allowed"`

	DecentralizedSourceEnabled bool `json:"decentralized_source_enabled"`
	CentralizedSourceEnabled   bool `json:"centralized_source_enabled"`

	TradeProps  TradeProps  `json:"trade_props"`
	MarketProps MarketProps `json:"market_props"`
	RiskProps   RiskProps   `json:"risk_props"`
}

// MarketWindow is a single bounded trading session. The window is inclusive
// at both ends and does not recur; the operator rewrites it per session.
type MarketWindow struct {
	OpenTimestamp   uint64 `json:"open_timestamp"`
	DurationSeconds uint64 `json:"duration_seconds"`
}

// TimedMarketProps extends a base record for session-bound markets
// (forex, commodities). It carries its own top-level copy of the risk
// fields alongside the base record's bundle; the duplication comes from
// the upstream data model and is preserved as-is.
type TimedMarketProps struct {
	ReferenceAssetSymbol string       `json:"reference_asset_symbol"`
	Window               MarketWindow `json:"window"`

	MaxLeverageFactor         uint64 `json:"max_leverage_factor"`
	PositionSizeReserveFactor uint64 `json:"position_size_reserve_factor"`
	MaxPositionSizePerMarket  bool   `json:"max_position_size_per_market"`
	MaxPositionPnlFactor      uint64 `json:"max_position_pnl_factor"`
	MaxGlobalPnlFactor        uint64 `json:"max_global_pnl_factor"`
}

// TimedMarketAssetRecord composes a base record with its session properties.
type TimedMarketAssetRecord struct {
	AssetRecord `json:"asset"`
	TimedMarketProps
}

// SpreadConfig holds the directional spread applied to raw prices.
type SpreadConfig struct {
	LongSpreadBps  uint64 `json:"long_spread_bps"`
	ShortSpreadBps uint64 `json:"short_spread_bps"`
	Enabled        bool   `json:"enabled"`
}

// DeviationConfig bounds how far an adjusted price may drift from the
// configured reference price.
type DeviationConfig struct {
	ReferencePrice  uint64 `json:"reference_price"`
	MaxDeviationBps uint64 `json:"max_deviation_bps"`
}

// AssetProps is the creation payload for AddCryptoAsset. The registry
// assigns the id.
type AssetProps struct {
	TickSymbol     string
	Whitelisted    bool
	MinLiquidity   []decimal.Decimal
	ChainAddresses map[uint64]string

	DecimalsPrecision uint8
	PricePrecision    uint8

	IsolatedPoolAllowed bool
	SharedPoolAllowed   bool

	DecentralizedSourceEnabled bool
	CentralizedSourceEnabled   bool

	TradeProps  TradeProps
	MarketProps MarketProps
	RiskProps   RiskProps
}

// assetSlot is the stored state for one asset id. timed is nil for plain
// crypto assets; AddTimedMarketAsset replaces the whole slot.
type assetSlot struct {
	asset AssetRecord
	timed *TimedMarketProps

	spread    SpreadConfig
	deviation DeviationConfig
}

func (s *assetSlot) clone() *assetSlot {
	cp := *s
	cp.asset = cloneAsset(s.asset)
	if s.timed != nil {
		timed := *s.timed
		cp.timed = &timed
	}
	return &cp
}

func cloneAsset(a AssetRecord) AssetRecord {
	cp := a
	if a.MinLiquidity != nil {
		cp.MinLiquidity = append([]decimal.Decimal(nil), a.MinLiquidity...)
	}
	if a.ChainAddresses != nil {
		cp.ChainAddresses = make(map[uint64]string, len(a.ChainAddresses))
		for chain, addr := range a.ChainAddresses {
			cp.ChainAddresses[chain] = addr
		}
	}
	return cp
}
