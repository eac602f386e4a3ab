package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DiscountType discriminates discount parameter variants
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFlatOff    DiscountType = "FLAT_OFF"
	DiscountTypeBuyNGetN   DiscountType = "BUY_N_GET_N"
)

// DiscountParams is a tagged union of discount parameter variants.
// Type is the discriminant; exactly one variant pointer is set.
type DiscountParams struct {
	Type       DiscountType      `json:"type"`
	Percentage *PercentageParams `json:"-"`
	FlatOff    *FlatOffParams    `json:"-"`
	BuyNGetN   *BuyNGetNParams   `json:"-"`
}

// PercentageParams discounts by a percentage, optionally capped
type PercentageParams struct {
	Percentage float64  `json:"percentage"`
	MaxAmount  *float64 `json:"maxDiscount,omitempty"`
}

// FlatOffParams discounts by a flat amount
type FlatOffParams struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// BuyNGetNParams grants free tickets per purchased quantity
type BuyNGetNParams struct {
	BuyQuantity int `json:"buyQuantity"`
	GetQuantity int `json:"getQuantity"`
}

// discountParamsWire is the flat JSON shape used on the wire
type discountParamsWire struct {
	Type        DiscountType `json:"type"`
	Percentage  *float64     `json:"percentage,omitempty"`
	MaxAmount   *float64     `json:"maxDiscount,omitempty"`
	Amount      *float64     `json:"amount,omitempty"`
	Currency    string       `json:"currency,omitempty"`
	BuyQuantity *int         `json:"buyQuantity,omitempty"`
	GetQuantity *int         `json:"getQuantity,omitempty"`
}

// UnmarshalJSON dispatches on the type tag
func (p *DiscountParams) UnmarshalJSON(data []byte) error {
	var w discountParamsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	p.Type = w.Type
	p.Percentage = nil
	p.FlatOff = nil
	p.BuyNGetN = nil

	switch w.Type {
	case DiscountTypePercentage:
		if w.Percentage == nil {
			return fmt.Errorf("percentage discount missing percentage field")
		}
		p.Percentage = &PercentageParams{Percentage: *w.Percentage, MaxAmount: w.MaxAmount}
	case DiscountTypeFlatOff:
		if w.Amount == nil {
			return fmt.Errorf("flat discount missing amount field")
		}
		p.FlatOff = &FlatOffParams{Amount: *w.Amount, Currency: w.Currency}
	case DiscountTypeBuyNGetN:
		if w.BuyQuantity == nil || w.GetQuantity == nil {
			return fmt.Errorf("buy-n-get-n discount missing quantity fields")
		}
		p.BuyNGetN = &BuyNGetNParams{BuyQuantity: *w.BuyQuantity, GetQuantity: *w.GetQuantity}
	default:
		return fmt.Errorf("unknown discount type %q", w.Type)
	}

	return nil
}

// MarshalJSON flattens the active variant back to the wire shape
func (p DiscountParams) MarshalJSON() ([]byte, error) {
	w := discountParamsWire{Type: p.Type}

	switch p.Type {
	case DiscountTypePercentage:
		if p.Percentage == nil {
			return nil, fmt.Errorf("percentage discount has no parameters")
		}
		w.Percentage = &p.Percentage.Percentage
		w.MaxAmount = p.Percentage.MaxAmount
	case DiscountTypeFlatOff:
		if p.FlatOff == nil {
			return nil, fmt.Errorf("flat discount has no parameters")
		}
		w.Amount = &p.FlatOff.Amount
		w.Currency = p.FlatOff.Currency
	case DiscountTypeBuyNGetN:
		if p.BuyNGetN == nil {
			return nil, fmt.Errorf("buy-n-get-n discount has no parameters")
		}
		w.BuyQuantity = &p.BuyNGetN.BuyQuantity
		w.GetQuantity = &p.BuyNGetN.GetQuantity
	default:
		return nil, fmt.Errorf("unknown discount type %q", p.Type)
	}

	return json.Marshal(w)
}

// Discount is an embedded discount on the event document
type Discount struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Params     DiscountParams `json:"parameters"`
	Active     bool           `json:"active"`
	Public     bool           `json:"public"`
	ActiveFrom *time.Time     `json:"activeFrom,omitempty"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	MaxUsage   *int           `json:"maxUsage,omitempty"`
	UsedCount  int            `json:"currentUsage"`
	TierIDs    []string       `json:"applicableTierIds,omitempty"`
	SessionIDs []string       `json:"applicableSessionIds,omitempty"`
}

// ValidAt reports whether the discount is currently valid. This is
// recomputed at read time, never cached, because validity depends on
// the clock.
func (d *Discount) ValidAt(now time.Time) bool {
	if !d.Public || !d.Active {
		return false
	}
	if d.ActiveFrom != nil && now.Before(*d.ActiveFrom) {
		return false
	}
	if d.ExpiresAt != nil && now.After(*d.ExpiresAt) {
		return false
	}
	return true
}
