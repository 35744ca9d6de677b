package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/halcyonex/assetadmin/internal/notify"
)

type allowAll struct{}

func (allowAll) Authorize(context.Context) error { return nil }

type denyAll struct{}

func (denyAll) Authorize(context.Context) error { return errors.New("no capability") }

type fakeGateway struct {
	price uint64
	valid bool
	pool  decimal.Decimal
	err   error
}

func (g *fakeGateway) GetPoolValueByMarketID(context.Context, uint64) (decimal.Decimal, error) {
	return g.pool, g.err
}

func (g *fakeGateway) GetMarketPrice(context.Context, uint64) (uint64, bool, error) {
	return g.price, g.valid, g.err
}

type recordingSink struct {
	notifications []notify.Notification
}

func (r *recordingSink) Publish(_ context.Context, n notify.Notification) error {
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recordingSink) last() notify.Notification {
	return r.notifications[len(r.notifications)-1]
}

type RegistryTestSuite struct {
	suite.Suite
	svc     *Service
	gateway *fakeGateway
	sink    *recordingSink
	ctx     context.Context
}

func (s *RegistryTestSuite) SetupTest() {
	s.gateway = &fakeGateway{valid: true, pool: decimal.NewFromInt(1_000_000)}
	s.sink = &recordingSink{}
	s.ctx = context.Background()
	s.svc = NewService(
		&Config{AllowedChainIDs: []uint64{1, 10, 42161}, LiquiditySources: 1},
		allowAll{},
		s.gateway,
		s.sink,
		zaptest.NewLogger(s.T()),
	)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) props(symbol string) AssetProps {
	return AssetProps{
		TickSymbol:   symbol,
		Whitelisted:  true,
		MinLiquidity: []decimal.Decimal{decimal.NewFromInt(1000)},
		ChainAddresses: map[uint64]string{
			1: "0x1111111111111111111111111111111111111111",
		},
		DecimalsPrecision: 8,
		PricePrecision:    6,
		TradeProps:        TradeProps{Longable: true, Collateral: true},
		MarketProps:       MarketProps{SwapEnabled: true},
		RiskProps:         RiskProps{MaxLeverageFactor: 20},
	}
}

func (s *RegistryTestSuite) addAsset(symbol string) uint64 {
	id, err := s.svc.AddCryptoAsset(s.ctx, s.props(symbol))
	s.Require().NoError(err)
	return id
}

func (s *RegistryTestSuite) TestSequentialIDsFromOne() {
	s.Equal(uint64(1), s.addAsset("BTC"))
	s.Equal(uint64(2), s.addAsset("ETH"))
	s.Equal(uint64(3), s.addAsset("SOL"))
}

func (s *RegistryTestSuite) TestAddEmitsCreationNotification() {
	id := s.addAsset("BTC")
	s.Require().Len(s.sink.notifications, 1)
	n := s.sink.last()
	s.Equal(id, n.AssetID)
	s.Equal(notify.KindAssetCreated, n.Kind)
}

func (s *RegistryTestSuite) TestAddRejectsWrongLiquidityLength() {
	props := s.props("BTC")
	props.MinLiquidity = []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)}
	_, err := s.svc.AddCryptoAsset(s.ctx, props)
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *RegistryTestSuite) TestAddRejectsUnknownChain() {
	props := s.props("BTC")
	props.ChainAddresses = map[uint64]string{999: "0xdead"}
	_, err := s.svc.AddCryptoAsset(s.ctx, props)
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *RegistryTestSuite) TestAuthorizationRequiredForMutators() {
	denied := NewService(DefaultConfig(), denyAll{}, s.gateway, s.sink, zaptest.NewLogger(s.T()))

	_, err := denied.AddCryptoAsset(s.ctx, s.props("BTC"))
	s.ErrorIs(err, ErrAuthorization)

	err = denied.SetWhitelisted(s.ctx, 1, false)
	s.ErrorIs(err, ErrAuthorization)

	err = denied.BatchUpdateAssets(s.ctx, nil, nil)
	s.ErrorIs(err, ErrAuthorization)
}

func (s *RegistryTestSuite) TestSetterGetterRoundTrip() {
	id := s.addAsset("BTC")

	amounts := []decimal.Decimal{decimal.NewFromInt(5000)}
	s.Require().NoError(s.svc.SetMinLiquidity(s.ctx, id, amounts))
	s.Equal(amounts, s.svc.GetMinLiquidity(id))

	addrs := map[uint64]string{10: "0x2222222222222222222222222222222222222222"}
	s.Require().NoError(s.svc.SetChainAddresses(s.ctx, id, addrs))
	s.Equal(addrs, s.svc.GetChainAddresses(id))

	s.Require().NoError(s.svc.SetListingStage(s.ctx, id, true, false))
	isolated, shared := s.svc.GetListingStage(id)
	s.True(isolated)
	s.False(shared)

	s.Require().NoError(s.svc.SetOracleSources(s.ctx, id, true, true))
	dec, cen := s.svc.GetOracleSources(id)
	s.True(dec)
	s.True(cen)

	risk := RiskProps{
		MaxLeverageFactor:         50,
		PositionSizeReserveFactor: 250,
		MaxPositionSizePerMarket:  true,
		MaxPositionPnlFactor:      9000,
		MaxGlobalPnlFactor:        8000,
	}
	s.Require().NoError(s.svc.SetRiskProps(s.ctx, id, risk))
	s.Equal(risk, s.svc.GetRiskProps(id))

	spread := SpreadConfig{LongSpreadBps: 500, ShortSpreadBps: 300, Enabled: true}
	s.Require().NoError(s.svc.SetSpreadConfig(s.ctx, id, spread))
	s.Equal(spread, s.svc.GetSpreadConfig(id))

	deviation := DeviationConfig{ReferencePrice: 1000, MaxDeviationBps: 200}
	s.Require().NoError(s.svc.SetDeviationConfig(s.ctx, id, deviation))
	s.Equal(deviation, s.svc.GetDeviationConfig(id))
}

func (s *RegistryTestSuite) TestEachTradePropFlagRoundTrip() {
	id := s.addAsset("BTC")

	flags := []TradePropFlag{
		TradePropShortable, TradePropStable, TradePropLongable,
		TradePropCollateral, TradePropReference,
	}
	for _, flag := range flags {
		s.Require().NoError(s.svc.SetTradeProp(s.ctx, id, flag, true))
	}

	reference, longable, shortable, stable, collateral := s.svc.GetAssetTradeProps(id)
	s.True(reference)
	s.True(longable)
	s.True(shortable)
	s.True(stable)
	s.True(collateral)

	s.Require().NoError(s.svc.SetTradeProp(s.ctx, id, TradePropStable, false))
	_, _, _, stable, _ = s.svc.GetAssetTradeProps(id)
	s.False(stable)

	err := s.svc.SetTradeProp(s.ctx, id, TradePropFlag("bogus"), true)
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *RegistryTestSuite) TestEachSetterEmitsOneNotification() {
	id := s.addAsset("BTC")
	before := len(s.sink.notifications)

	s.Require().NoError(s.svc.SetWhitelisted(s.ctx, id, true))
	s.Require().NoError(s.svc.SetListingStage(s.ctx, id, true, true))
	s.Require().NoError(s.svc.SetTradeProp(s.ctx, id, TradePropShortable, true))

	s.Len(s.sink.notifications, before+3)
	s.Equal(notify.KindTradePropChanged, s.sink.last().Kind)
}

func (s *RegistryTestSuite) TestDeactivationMakesAssetNotFound() {
	id := s.addAsset("BTC")
	s.Require().NoError(s.svc.SetWhitelisted(s.ctx, id, false))

	err := s.svc.SetListingStage(s.ctx, id, true, true)
	s.ErrorIs(err, ErrNotFound)

	err = s.svc.SetRiskProps(s.ctx, id, RiskProps{})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.ReferencePrices(s.ctx, id)
	s.ErrorIs(err, ErrNotFound)

	// The whitelisted setter itself still works, so the asset can come back.
	s.Require().NoError(s.svc.SetWhitelisted(s.ctx, id, true))
	s.NoError(s.svc.SetListingStage(s.ctx, id, true, true))
}

func (s *RegistryTestSuite) TestSettersOnUnknownIDFailNotFound() {
	err := s.svc.SetWhitelisted(s.ctx, 99, true)
	s.ErrorIs(err, ErrNotFound)

	err = s.svc.SetMinLiquidity(s.ctx, 99, []decimal.Decimal{decimal.NewFromInt(1)})
	s.ErrorIs(err, ErrNotFound)
}

func (s *RegistryTestSuite) TestReadsOnUnknownIDReturnZeroValues() {
	s.Equal("", s.svc.GetTickSymbol(42))
	s.False(s.svc.IsWhitelisted(42))
	s.Nil(s.svc.GetMinLiquidity(42))
	s.Nil(s.svc.GetChainAddresses(42))
	decimals, price := s.svc.GetPrecision(42)
	s.Equal(uint8(0), decimals)
	s.Equal(uint8(0), price)
	s.Equal(AssetRecord{}, s.svc.GetAsset(42))
	s.Equal(TimedMarketProps{}, s.svc.GetTimedMarketProps(42))
}

func (s *RegistryTestSuite) timedRecord(base AssetRecord) TimedMarketAssetRecord {
	return TimedMarketAssetRecord{
		AssetRecord: base,
		TimedMarketProps: TimedMarketProps{
			ReferenceAssetSymbol: "XAU",
			Window:               MarketWindow{OpenTimestamp: 1_700_000_000, DurationSeconds: 86_400},
			MaxLeverageFactor:    10,
		},
	}
}

func (s *RegistryTestSuite) TestAddTimedMarketAssetReplacesSlot() {
	id := s.addAsset("GOLD")
	base := s.svc.GetAsset(id)
	base.TickSymbol = "XAUUSD"

	s.Require().NoError(s.svc.AddTimedMarketAsset(s.ctx, id, s.timedRecord(base)))

	s.Equal("XAUUSD", s.svc.GetTickSymbol(id))
	timed := s.svc.GetTimedMarketProps(id)
	s.Equal("XAU", timed.ReferenceAssetSymbol)
	s.Equal(uint64(1_700_000_000), timed.Window.OpenTimestamp)
	s.Equal(notify.KindTimedMarketAssetCreated, s.sink.last().Kind)
}

func (s *RegistryTestSuite) TestAddTimedMarketAssetRequiresExistingBase() {
	base := s.props("XAUUSD")
	rec := s.timedRecord(AssetRecord{
		TickSymbol:     base.TickSymbol,
		Whitelisted:    true,
		MinLiquidity:   base.MinLiquidity,
		ChainAddresses: base.ChainAddresses,
	})
	err := s.svc.AddTimedMarketAsset(s.ctx, 1, rec)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RegistryTestSuite) TestTimedMarketSettersRequireTimedSlot() {
	id := s.addAsset("BTC")
	err := s.svc.SetTimedMarketSymbol(s.ctx, id, "XAU")
	s.ErrorIs(err, ErrNotFound)
	err = s.svc.SetTimedMarketWindow(s.ctx, id, MarketWindow{})
	s.ErrorIs(err, ErrNotFound)
}

func (s *RegistryTestSuite) TestTimedMarketSetters() {
	id := s.addAsset("GOLD")
	s.Require().NoError(s.svc.AddTimedMarketAsset(s.ctx, id, s.timedRecord(s.svc.GetAsset(id))))

	s.Require().NoError(s.svc.SetTimedMarketSymbol(s.ctx, id, "XAG"))
	s.Equal("XAG", s.svc.GetTimedMarketProps(id).ReferenceAssetSymbol)

	window := MarketWindow{OpenTimestamp: 1_800_000_000, DurationSeconds: 3600}
	s.Require().NoError(s.svc.SetTimedMarketWindow(s.ctx, id, window))
	s.Equal(window, s.svc.GetTimedMarketProps(id).Window)
	s.Equal(notify.KindTimedMarketWindowUpdated, s.sink.last().Kind)
}

func (s *RegistryTestSuite) TestGetMarketLiquidity() {
	_, err := s.svc.GetMarketLiquidity(s.ctx, 0)
	s.ErrorIs(err, ErrInvalidArgument)

	value, err := s.svc.GetMarketLiquidity(s.ctx, 1)
	s.Require().NoError(err)
	s.True(value.Equal(decimal.NewFromInt(1_000_000)))

	s.gateway.err = errors.New("venue unreachable")
	_, err = s.svc.GetMarketLiquidity(s.ctx, 1)
	s.ErrorIs(err, ErrStaleData)
}

func (s *RegistryTestSuite) TestAllowedChainIDsFixedAtConstruction() {
	s.Equal([]uint64{1, 10, 42161}, s.svc.AllowedChainIDs())

	err := s.svc.SetChainAddresses(s.ctx, s.addAsset("BTC"), map[uint64]string{7: "0xbeef"})
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *RegistryTestSuite) TestGetterCopiesAreIsolated() {
	id := s.addAsset("BTC")

	addrs := s.svc.GetChainAddresses(id)
	addrs[1] = "tampered"
	s.NotEqual("tampered", s.svc.GetChainAddresses(id)[1])

	liquidity := s.svc.GetMinLiquidity(id)
	liquidity[0] = decimal.NewFromInt(-1)
	s.True(s.svc.GetMinLiquidity(id)[0].Equal(decimal.NewFromInt(1000)))
}
