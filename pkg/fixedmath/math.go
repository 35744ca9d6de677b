// Package fixedmath provides checked arithmetic on the unsigned fixed-point
// integers used for prices and basis-point factors. All divisions truncate.
package fixedmath

import (
	"errors"
	"fmt"
	"math"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10000

var (
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("fixedmath: underflow")
	// ErrOverflow is returned when a result exceeds the uint64 range.
	ErrOverflow = errors.New("fixedmath: overflow")
)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return a + b, nil
}

// Sub returns a-b or ErrUnderflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fmt.Errorf("%w: %d - %d", ErrUnderflow, a, b)
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, a, b)
	}
	return a * b, nil
}

// BpsOf returns value*bps/10000 with truncating division.
func BpsOf(value, bps uint64) (uint64, error) {
	product, err := Mul(value, bps)
	if err != nil {
		return 0, err
	}
	return product / BpsDenominator, nil
}
