// Package promos holds the wallet-tier and promo-code discount rules.
package promos

import (
	"fmt"
	"math"
)

// DiscountType is percentage or fixed
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a value object applied to an amount. Fixed values are in the
// display currency; percentage values are in [0,100].
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Validate rejects unknown types and out-of-range values
func (d Discount) Validate() error {
	switch d.Type {
	case DiscountPercentage:
		if d.Value < 0 || d.Value > 100 {
			return fmt.Errorf("percentage discount %v out of range", d.Value)
		}
	case DiscountFixed:
		if d.Value < 0 {
			return fmt.Errorf("fixed discount %v is negative", d.Value)
		}
	default:
		return fmt.Errorf("unknown discount type %q", d.Type)
	}
	return nil
}

// Apply returns amount after the discount, rounded to decimals. The second
// return value reports whether the result had to be clamped at zero.
func (d Discount) Apply(amount float64, decimals int) (float64, bool) {
	var out float64
	switch d.Type {
	case DiscountPercentage:
		out = roundTo(amount*(1-d.Value/100), decimals)
	case DiscountFixed:
		out = roundTo(amount-d.Value, decimals)
	default:
		out = amount
	}
	if out < 0 {
		return 0, true
	}
	return out, false
}

// WalletTier is the percentage discount unlocked by a wallet balance
type WalletTier struct {
	Threshold float64 // in the currency the balance is compared in
	Pct       float64
}

// WalletQualifies reports whether balance unlocks the wallet-tier discount
func WalletQualifies(balance, threshold float64) bool {
	return threshold >= 0 && balance >= threshold
}

// Discount returns the wallet tier as a percentage discount
func (w WalletTier) Discount() Discount {
	return Discount{Type: DiscountPercentage, Value: w.Pct}
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	m := math.Pow(10, float64(decimals))
	return math.Round(v*m) / m
}
