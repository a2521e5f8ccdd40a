package domain

// Candle is a single OHLCV row for a market pair.
// Corresponds to pair_candles table in ClickHouse.
type Candle struct {
	PairAddress string  // market pair
	Timeframe   string  // "hour" | "day"
	Timestamp   int64   // bucket start, ms
	Open        float64 // USD
	High        float64 // USD
	Low         float64 // USD
	Close       float64 // USD
	Volume      float64 // USD
}

// ChartPoint is one point of a price chart.
type ChartPoint struct {
	Timestamp int64   `json:"timestamp"` // ms
	Price     float64 `json:"price"`     // close
	Volume    float64 `json:"volume"`
}

// Chart intervals accepted by the price chart.
const (
	Interval1h = "1h"
	Interval1d = "1d"
	Interval1w = "1w"
	Interval1m = "1m"
)

// ValidInterval reports whether interval is a supported chart interval.
func ValidInterval(interval string) bool {
	switch interval {
	case Interval1h, Interval1d, Interval1w, Interval1m:
		return true
	}
	return false
}

// Candle timeframes.
const (
	TimeframeHour = "hour"
	TimeframeDay  = "day"
)

// Timeframe maps a chart interval to a candle timeframe and row limit.
func Timeframe(interval string) (string, int) {
	if interval == Interval1h {
		return TimeframeHour, 24
	}
	return TimeframeDay, 30
}
