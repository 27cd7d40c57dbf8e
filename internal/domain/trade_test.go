package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTradeCandidate_Revenue(t *testing.T) {
	t.Run("Positive Spread", func(t *testing.T) {
		cand := TradeCandidate{
			Acquisition: order(34, SideSell, 1, "50", 1000),
			Resale:      order(34, SideBuy, 2, "80", 1000),
		}
		if !cand.Revenue().Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected revenue 30, got %s", cand.Revenue())
		}
	})

	t.Run("Negative Spread", func(t *testing.T) {
		cand := TradeCandidate{
			Acquisition: order(34, SideSell, 1, "80", 1000),
			Resale:      order(34, SideBuy, 2, "50", 1000),
		}
		if cand.Revenue().IsPositive() {
			t.Errorf("expected non-positive revenue, got %s", cand.Revenue())
		}
	})
}

func TestScoredCandidate_Investment(t *testing.T) {
	scored := ScoredCandidate{
		TradeCandidate: TradeCandidate{
			Acquisition: order(34, SideSell, 1, "15", 1000),
			Resale:      order(34, SideBuy, 2, "20", 1000),
		},
		ItemsPerRun: 10,
	}
	if !scored.Investment().Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected investment 200, got %s", scored.Investment())
	}
}
