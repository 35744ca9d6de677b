package registry

import (
	"github.com/shopspring/decimal"
)

// lookup returns a deep copy of the slot, or nil when the id is unknown.
// Copying under the read lock is what keeps multi-field reads untorn.
func (s *Service) lookup(id uint64) *assetSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, exists := s.slots[id]
	if !exists {
		return nil
	}
	return slot.clone()
}

// GetAsset returns the full record, or the zero record for an unknown id.
func (s *Service) GetAsset(id uint64) AssetRecord {
	if slot := s.lookup(id); slot != nil {
		return slot.asset
	}
	return AssetRecord{}
}

// GetTimedMarketProps returns the session properties, zero for plain
// crypto assets and unknown ids.
func (s *Service) GetTimedMarketProps(id uint64) TimedMarketProps {
	if slot := s.lookup(id); slot != nil && slot.timed != nil {
		return *slot.timed
	}
	return TimedMarketProps{}
}

func (s *Service) GetTickSymbol(id uint64) string {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.TickSymbol
	}
	return ""
}

func (s *Service) IsWhitelisted(id uint64) bool {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.Whitelisted
	}
	return false
}

// IsRegistered reports whether the id is addressable by operations that
// require an active record.
func (s *Service) IsRegistered(id uint64) bool {
	return s.IsWhitelisted(id)
}

func (s *Service) GetMinLiquidity(id uint64) []decimal.Decimal {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.MinLiquidity
	}
	return nil
}

func (s *Service) GetChainAddresses(id uint64) map[uint64]string {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.ChainAddresses
	}
	return nil
}

func (s *Service) GetPrecision(id uint64) (decimals, price uint8) {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.DecimalsPrecision, slot.asset.PricePrecision
	}
	return 0, 0
}

func (s *Service) GetListingStage(id uint64) (isolatedAllowed, sharedAllowed bool) {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.IsolatedPoolAllowed, slot.asset.SharedPoolAllowed
	}
	return false, false
}

func (s *Service) GetOracleSources(id uint64) (decentralized, centralized bool) {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.DecentralizedSourceEnabled, slot.asset.CentralizedSourceEnabled
	}
	return false, false
}

// GetAssetTradeProps returns the trading flags as the conventional 5-tuple.
func (s *Service) GetAssetTradeProps(id uint64) (reference, longable, shortable, stable, collateral bool) {
	if slot := s.lookup(id); slot != nil {
		p := slot.asset.TradeProps
		return p.Reference, p.Longable, p.Shortable, p.Stable, p.Collateral
	}
	return false, false, false, false, false
}

func (s *Service) GetMarketProps(id uint64) MarketProps {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.MarketProps
	}
	return MarketProps{}
}

func (s *Service) GetRiskProps(id uint64) RiskProps {
	if slot := s.lookup(id); slot != nil {
		return slot.asset.RiskProps
	}
	return RiskProps{}
}

func (s *Service) GetSpreadConfig(id uint64) SpreadConfig {
	if slot := s.lookup(id); slot != nil {
		return slot.spread
	}
	return SpreadConfig{}
}

func (s *Service) GetDeviationConfig(id uint64) DeviationConfig {
	if slot := s.lookup(id); slot != nil {
		return slot.deviation
	}
	return DeviationConfig{}
}
