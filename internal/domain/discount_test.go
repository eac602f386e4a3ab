package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDiscountParams_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, p DiscountParams)
	}{
		{
			name:  "percentage with cap",
			input: `{"type":"PERCENTAGE","percentage":15.0,"maxDiscount":50.0}`,
			check: func(t *testing.T, p DiscountParams) {
				if p.Percentage == nil {
					t.Fatal("Percentage variant not set")
				}
				if p.Percentage.Percentage != 15.0 {
					t.Errorf("Percentage = %f, want 15", p.Percentage.Percentage)
				}
				if p.Percentage.MaxAmount == nil || *p.Percentage.MaxAmount != 50.0 {
					t.Errorf("MaxAmount = %v, want 50", p.Percentage.MaxAmount)
				}
			},
		},
		{
			name:  "percentage without cap",
			input: `{"type":"PERCENTAGE","percentage":10.0}`,
			check: func(t *testing.T, p DiscountParams) {
				if p.Percentage == nil {
					t.Fatal("Percentage variant not set")
				}
				if p.Percentage.MaxAmount != nil {
					t.Errorf("MaxAmount = %v, want nil", *p.Percentage.MaxAmount)
				}
			},
		},
		{
			name:  "flat off",
			input: `{"type":"FLAT_OFF","amount":200.0,"currency":"LKR"}`,
			check: func(t *testing.T, p DiscountParams) {
				if p.FlatOff == nil {
					t.Fatal("FlatOff variant not set")
				}
				if p.FlatOff.Amount != 200.0 || p.FlatOff.Currency != "LKR" {
					t.Errorf("FlatOff = %+v, want 200 LKR", p.FlatOff)
				}
				if p.Percentage != nil || p.BuyNGetN != nil {
					t.Error("other variants must stay nil")
				}
			},
		},
		{
			name:  "buy n get n",
			input: `{"type":"BUY_N_GET_N","buyQuantity":3,"getQuantity":1}`,
			check: func(t *testing.T, p DiscountParams) {
				if p.BuyNGetN == nil {
					t.Fatal("BuyNGetN variant not set")
				}
				if p.BuyNGetN.BuyQuantity != 3 || p.BuyNGetN.GetQuantity != 1 {
					t.Errorf("BuyNGetN = %+v, want 3/1", p.BuyNGetN)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p DiscountParams
			if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestDiscountParams_UnmarshalRejectsBadInput(t *testing.T) {
	inputs := []string{
		`{"type":"LOYALTY_POINTS","percentage":5.0}`,
		`{"type":"PERCENTAGE"}`,
		`{"type":"FLAT_OFF","currency":"LKR"}`,
		`{"type":"BUY_N_GET_N","buyQuantity":3}`,
	}
	for _, input := range inputs {
		var p DiscountParams
		if err := json.Unmarshal([]byte(input), &p); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", input)
		}
	}
}

func TestDiscountParams_MarshalRoundTrip(t *testing.T) {
	cap := 50.0
	p := DiscountParams{
		Type:       DiscountTypePercentage,
		Percentage: &PercentageParams{Percentage: 15.0, MaxAmount: &cap},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back DiscountParams
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Percentage == nil || back.Percentage.Percentage != 15.0 {
		t.Errorf("round trip lost percentage: %+v", back)
	}
	if back.Percentage.MaxAmount == nil || *back.Percentage.MaxAmount != 50.0 {
		t.Errorf("round trip lost cap: %+v", back.Percentage)
	}
}

func TestDiscountValidAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		discount Discount
		want     bool
	}{
		{"active public window open", Discount{Active: true, Public: true, ActiveFrom: &past, ExpiresAt: &future}, true},
		{"no window at all", Discount{Active: true, Public: true}, true},
		{"not yet active", Discount{Active: true, Public: true, ActiveFrom: &future}, false},
		{"expired", Discount{Active: true, Public: true, ExpiresAt: &past}, false},
		{"inactive", Discount{Active: false, Public: true}, false},
		{"private", Discount{Active: true, Public: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.discount.ValidAt(now); got != tt.want {
				t.Errorf("ValidAt = %v, want %v", got, tt.want)
			}
		})
	}
}
