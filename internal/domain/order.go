package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side tags an order with the side of the book it was listed on.
type Side string

const (
	// SideBuy marks a buy listing: someone paying to acquire stock. A trader
	// sells into these.
	SideBuy Side = "buy"
	// SideSell marks a sell listing: someone charging for stock. A trader
	// buys from these.
	SideSell Side = "sell"
)

// Order is one aggregated market listing for a commodity type within a region.
// Orders are immutable once built; aggregation produces a new value with a
// summed volume rather than mutating a shared record.
type Order struct {
	TypeID       int32           `json:"type_id"`
	Price        decimal.Decimal `json:"price"`
	VolumeRemain int64           `json:"volume_remain"`
	SystemID     int32           `json:"system_id"`
	Side         Side            `json:"side"`
}

// CanMerge reports whether two listings collapse into a single aggregate:
// same commodity, same side, same system, same price.
func (o Order) CanMerge(other Order) bool {
	return o.TypeID == other.TypeID &&
		o.Side == other.Side &&
		o.SystemID == other.SystemID &&
		o.Price.Equal(other.Price)
}

// Cost is the total value of the remaining volume at the listed price.
func (o Order) Cost() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.VolumeRemain))
}

// Validate rejects records that would corrupt the aggregate book.
func (o Order) Validate() error {
	if o.TypeID <= 0 {
		return fmt.Errorf("%w: type id %d", ErrMalformedOrder, o.TypeID)
	}
	if o.SystemID <= 0 {
		return fmt.Errorf("%w: system id %d", ErrMalformedOrder, o.SystemID)
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", ErrMalformedOrder, o.Price)
	}
	if o.VolumeRemain < 0 {
		return fmt.Errorf("%w: negative volume %d", ErrMalformedOrder, o.VolumeRemain)
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("%w: unknown side %q", ErrMalformedOrder, o.Side)
	}
	return nil
}

func (o Order) String() string {
	return fmt.Sprintf("TYPE: %d PRICE: %s VOLUME: %d SYSTEM: %d", o.TypeID, o.Price, o.VolumeRemain, o.SystemID)
}
