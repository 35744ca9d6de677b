package registry

import (
	"context"
	"errors"

	"github.com/halcyonex/assetadmin/pkg/fixedmath"
)

// ApplySpread adjusts a price by spreadBps basis points: upward for the long
// side, downward for the short side. Division truncates; a short adjustment
// that would push the price below zero fails with ArithmeticUnderflow.
func ApplySpread(price, spreadBps uint64, isLong bool) (uint64, error) {
	adjustment, err := fixedmath.BpsOf(price, spreadBps)
	if err != nil {
		return 0, mapMathError(err)
	}
	if isLong {
		adjusted, err := fixedmath.Add(price, adjustment)
		if err != nil {
			return 0, mapMathError(err)
		}
		return adjusted, nil
	}
	adjusted, err := fixedmath.Sub(price, adjustment)
	if err != nil {
		return 0, mapMathError(err)
	}
	return adjusted, nil
}

// deviationBounds returns the inclusive [min, max] band around the reference
// price. A deviation amount exceeding the reference price fails rather than
// silently flooring at zero.
func deviationBounds(referencePrice, maxDeviationBps uint64) (min, max uint64, err error) {
	deviation, err := fixedmath.BpsOf(referencePrice, maxDeviationBps)
	if err != nil {
		return 0, 0, mapMathError(err)
	}
	min, err = fixedmath.Sub(referencePrice, deviation)
	if err != nil {
		return 0, 0, mapMathError(err)
	}
	max, err = fixedmath.Add(referencePrice, deviation)
	if err != nil {
		return 0, 0, mapMathError(err)
	}
	return min, max, nil
}

// IsPriceWithinDeviation reports whether price lies inside the inclusive
// deviation band around referencePrice.
func IsPriceWithinDeviation(price, referencePrice, maxDeviationBps uint64) (bool, error) {
	min, max, err := deviationBounds(referencePrice, maxDeviationBps)
	if err != nil {
		return false, err
	}
	return price >= min && price <= max, nil
}

// HandleDeviation clamps price to the deviation band: prices below the band
// come back as its lower bound, above as its upper bound.
func HandleDeviation(price, referencePrice, maxDeviationBps uint64) (uint64, error) {
	min, max, err := deviationBounds(referencePrice, maxDeviationBps)
	if err != nil {
		return 0, err
	}
	if price < min {
		return min, nil
	}
	if price > max {
		return max, nil
	}
	return price, nil
}

// ReferencePrices produces one execution-ready price per liquidity source.
// Starting from the gateway's raw price: when spread is enabled, the long
// leg and then the short leg are applied in sequence to the same running
// value, regardless of trade side. The result is then clamped to the
// configured deviation band.
func (s *Service) ReferencePrices(ctx context.Context, id uint64) ([]uint64, error) {
	s.mu.RLock()
	slot, exists := s.slots[id]
	if !exists || !slot.asset.Whitelisted {
		s.mu.RUnlock()
		return nil, newError(KindNotFound, "asset %d is not registered", id)
	}
	spread := slot.spread
	deviation := slot.deviation
	s.mu.RUnlock()

	raw, valid, err := s.gateway.GetMarketPrice(ctx, id)
	if err != nil {
		return nil, wrapError(KindStaleData, err, "market price lookup failed for asset %d", id)
	}
	if !valid {
		return nil, newError(KindStaleData, "gateway reports invalid price for asset %d", id)
	}

	prices := make([]uint64, 0, s.cfg.LiquiditySources)
	for source := 0; source < s.cfg.LiquiditySources; source++ {
		price := raw
		if spread.Enabled {
			price, err = ApplySpread(price, spread.LongSpreadBps, true)
			if err != nil {
				return nil, err
			}
			price, err = ApplySpread(price, spread.ShortSpreadBps, false)
			if err != nil {
				return nil, err
			}
		}
		price, err = HandleDeviation(price, deviation.ReferencePrice, deviation.MaxDeviationBps)
		if err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func mapMathError(err error) error {
	if errors.Is(err, fixedmath.ErrUnderflow) {
		return wrapError(KindArithmeticUnderflow, err, "price arithmetic would go negative")
	}
	return wrapError(KindInvalidArgument, err, "price arithmetic out of range")
}
