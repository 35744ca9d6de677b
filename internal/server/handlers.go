package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apierrors "github.com/halcyonex/assetadmin/common/errors"
	"github.com/halcyonex/assetadmin/internal/registry"
)

func assetID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

type createAssetRequest struct {
	TickSymbol     string            `json:"tick_symbol" binding:"required"`
	Whitelisted    bool              `json:"whitelisted"`
	MinLiquidity   []decimal.Decimal `json:"min_liquidity" binding:"required"`
	ChainAddresses map[uint64]string `json:"chain_addresses"`

	DecimalsPrecision uint8 `json:"decimals_precision"`
	PricePrecision    uint8 `json:"price_precision"`

	IsolatedPoolAllowed bool `json:"isolated_pool_allowed"`
	SharedPoolAllowed   bool `json:"shared_pool_allowed"`

	DecentralizedSourceEnabled bool `json:"decentralized_source_enabled"`
	CentralizedSourceEnabled   bool `json:"centralized_source_enabled"`

	TradeProps  registry.TradeProps  `json:"trade_props"`
	MarketProps registry.MarketProps `json:"market_props"`
	RiskProps   registry.RiskProps   `json:"risk_props"`
}

func (r *createAssetRequest) toProps() registry.AssetProps {
	return registry.AssetProps{
		TickSymbol:                 r.TickSymbol,
		Whitelisted:                r.Whitelisted,
		MinLiquidity:               r.MinLiquidity,
		ChainAddresses:             r.ChainAddresses,
		DecimalsPrecision:          r.DecimalsPrecision,
		PricePrecision:             r.PricePrecision,
		IsolatedPoolAllowed:        r.IsolatedPoolAllowed,
		SharedPoolAllowed:          r.SharedPoolAllowed,
		DecentralizedSourceEnabled: r.DecentralizedSourceEnabled,
		CentralizedSourceEnabled:   r.CentralizedSourceEnabled,
		TradeProps:                 r.TradeProps,
		MarketProps:                r.MarketProps,
		RiskProps:                  r.RiskProps,
	}
}

func (s *Server) createAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	id, err := s.registry.AddCryptoAsset(c.Request.Context(), req.toProps())
	if err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset_id": id})
}

type createTimedMarketRequest struct {
	createAssetRequest
	ReferenceAssetSymbol string                `json:"reference_asset_symbol" binding:"required"`
	Window               registry.MarketWindow `json:"window"`
	TimedRiskProps       registry.RiskProps    `json:"timed_risk_props"`
}

func (s *Server) createTimedMarketAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req createTimedMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	props := req.toProps()
	rec := registry.TimedMarketAssetRecord{
		AssetRecord: registry.AssetRecord{
			TickSymbol:                 props.TickSymbol,
			Whitelisted:                props.Whitelisted,
			MinLiquidity:               props.MinLiquidity,
			ChainAddresses:             props.ChainAddresses,
			DecimalsPrecision:          props.DecimalsPrecision,
			PricePrecision:             props.PricePrecision,
			IsolatedPoolAllowed:        props.IsolatedPoolAllowed,
			SharedPoolAllowed:          props.SharedPoolAllowed,
			DecentralizedSourceEnabled: props.DecentralizedSourceEnabled,
			CentralizedSourceEnabled:   props.CentralizedSourceEnabled,
			TradeProps:                 props.TradeProps,
			MarketProps:                props.MarketProps,
			RiskProps:                  props.RiskProps,
		},
		TimedMarketProps: registry.TimedMarketProps{
			ReferenceAssetSymbol:      req.ReferenceAssetSymbol,
			Window:                    req.Window,
			MaxLeverageFactor:         req.TimedRiskProps.MaxLeverageFactor,
			PositionSizeReserveFactor: req.TimedRiskProps.PositionSizeReserveFactor,
			MaxPositionSizePerMarket:  req.TimedRiskProps.MaxPositionSizePerMarket,
			MaxPositionPnlFactor:      req.TimedRiskProps.MaxPositionPnlFactor,
			MaxGlobalPnlFactor:        req.TimedRiskProps.MaxGlobalPnlFactor,
		},
	}
	if err := s.registry.AddTimedMarketAsset(c.Request.Context(), id, rec); err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type batchUpdateRequest struct {
	Crypto []registry.CryptoAssetPatch      `json:"crypto"`
	Timed  []registry.TimedMarketAssetPatch `json:"timed"`
}

func (s *Server) batchUpdate(c *gin.Context) {
	var req batchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	if len(req.Crypto) == 0 && len(req.Timed) == 0 {
		apierrors.BadRequest(c, "batch must contain at least one patch entry")
		return
	}
	if err := s.registry.BatchUpdateAssets(c.Request.Context(), req.Crypto, req.Timed); err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setMinLiquidity(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Amounts []decimal.Decimal `json:"amounts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetMinLiquidity(c.Request.Context(), id, req.Amounts))
}

func (s *Server) setWhitelisted(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Whitelisted *bool `json:"whitelisted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetWhitelisted(c.Request.Context(), id, *req.Whitelisted))
}

func (s *Server) setChainAddresses(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Addresses map[uint64]string `json:"addresses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetChainAddresses(c.Request.Context(), id, req.Addresses))
}

func (s *Server) setListingStage(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		IsolatedPoolAllowed bool `json:"isolated_pool_allowed"`
		SharedPoolAllowed   bool `json:"shared_pool_allowed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetListingStage(c.Request.Context(), id, req.IsolatedPoolAllowed, req.SharedPoolAllowed))
}

func (s *Server) setOracleSources(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		DecentralizedSourceEnabled bool `json:"decentralized_source_enabled"`
		CentralizedSourceEnabled   bool `json:"centralized_source_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetOracleSources(c.Request.Context(), id, req.DecentralizedSourceEnabled, req.CentralizedSourceEnabled))
}

func (s *Server) setTradeProp(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Value *bool `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	flag := registry.TradePropFlag(c.Param("flag"))
	s.applyMutation(c, s.registry.SetTradeProp(c.Request.Context(), id, flag, *req.Value))
}

func (s *Server) setRiskProps(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req registry.RiskProps
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetRiskProps(c.Request.Context(), id, req))
}

func (s *Server) setSpreadConfig(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req registry.SpreadConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetSpreadConfig(c.Request.Context(), id, req))
}

func (s *Server) setDeviationConfig(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req registry.DeviationConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetDeviationConfig(c.Request.Context(), id, req))
}

func (s *Server) setTimedMarketSymbol(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetTimedMarketSymbol(c.Request.Context(), id, req.Symbol))
}

func (s *Server) setTimedMarketWindow(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	var req registry.MarketWindow
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	s.applyMutation(c, s.registry.SetTimedMarketWindow(c.Request.Context(), id, req))
}

func (s *Server) applyMutation(c *gin.Context, err error) {
	if err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	asset := s.registry.GetAsset(id)
	resp := gin.H{
		"asset":            asset,
		"spread_config":    s.registry.GetSpreadConfig(id),
		"deviation_config": s.registry.GetDeviationConfig(id),
	}
	if timed := s.registry.GetTimedMarketProps(id); timed != (registry.TimedMarketProps{}) {
		resp["timed_market"] = timed
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getTradeProps(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	reference, longable, shortable, stable, collateral := s.registry.GetAssetTradeProps(id)
	c.JSON(http.StatusOK, gin.H{
		"reference":  reference,
		"longable":   longable,
		"shortable":  shortable,
		"stable":     stable,
		"collateral": collateral,
	})
}

func (s *Server) getReferencePrices(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	prices, err := s.registry.ReferencePrices(c.Request.Context(), id)
	if err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "prices": prices})
}

func (s *Server) getMarketOpen(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "open": s.registry.IsMarketOpen(id)})
}

func (s *Server) getMarketLiquidity(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	value, err := s.registry.GetMarketLiquidity(c.Request.Context(), id)
	if err != nil {
		apierrors.Handle(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"market_id": id, "pool_value": value})
}

func (s *Server) getAllowedChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"allowed_chain_ids": s.registry.AllowedChainIDs()})
}
