package domain

import "time"

// Trending score weights. Purchases dominate views, sell-out pressure
// sits between.
const (
	TrendingViewWeight     = 1.0
	TrendingPurchaseWeight = 10.0
	TrendingSellOutWeight  = 5.0
)

// TrendingRecord holds per-event engagement counters and the computed
// trending score. Created lazily on first score request, refreshed by
// the scheduled batch job, deleted only with its event.
type TrendingRecord struct {
	EventID          string    `json:"eventId"`
	ViewCount        int64     `json:"viewCount"`
	PurchaseCount    int64     `json:"purchaseCount"`
	ReservationCount int64     `json:"reservationCount"`
	Score            float64   `json:"score"`
	LastCalculatedAt time.Time `json:"lastCalculatedAt"`
	LastUpdatedAt    time.Time `json:"lastUpdatedAt"`
}

// ComputeTrendingScore combines engagement signals with fixed weights
func ComputeTrendingScore(views, purchases int64, sellOutPercentage float64) float64 {
	return float64(views)*TrendingViewWeight +
		float64(purchases)*TrendingPurchaseWeight +
		sellOutPercentage*TrendingSellOutWeight
}
