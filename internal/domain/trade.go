package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeCandidate pairs the listing stock is bought from with the listing it
// is sold into. Both are externally listed orders, not orders the trader
// places: Acquisition is a sell listing (the cheap source), Resale is a buy
// listing (the pricier sink).
type TradeCandidate struct {
	Acquisition Order
	Resale      Order
}

// Revenue is the per-unit profit of the flip: resale price minus acquisition
// price.
func (t TradeCandidate) Revenue() decimal.Decimal {
	return t.Resale.Price.Sub(t.Acquisition.Price)
}

func (t TradeCandidate) String() string {
	return fmt.Sprintf("BUY: %s SELL: %s REVENUE: %s", t.Acquisition, t.Resale, t.Revenue())
}

// ScoredCandidate is a TradeCandidate annotated with the run economics that
// rank it. Built fresh each run, never persisted.
type ScoredCandidate struct {
	TradeCandidate
	UnitVolume    decimal.Decimal
	HopCount      int
	ItemsPerRun   int64
	RevenuePerHop decimal.Decimal
}

// Investment is the capital committed to one full run, measured against the
// same price the affordability gate uses.
func (s ScoredCandidate) Investment() decimal.Decimal {
	return s.Resale.Price.Mul(decimal.NewFromInt(s.ItemsPerRun))
}
