package domain

// BookEntry holds the aggregated listings for a single commodity type, split
// by side. Each slice is deduplicated by the Order merge rule and keeps the
// insertion order of the raw feed.
type BookEntry struct {
	Buy  []Order `json:"buy"`
	Sell []Order `json:"sell"`
}

// OrderBook accumulates aggregated listings per commodity type. It is built
// once per run by a single owner and is not safe for concurrent use.
type OrderBook struct {
	entries map[int32]*BookEntry
	types   []int32 // commodity types in first-seen order
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		entries: make(map[int32]*BookEntry),
	}
}

// Add merges one listing into the book. A record matching an existing listing
// on (type, side, system, price) folds into it by summing volumes; anything
// else appends a fresh aggregate. The merged return reports which happened.
//
// The scan over the side slice is linear, which is fine here: per-commodity
// listing counts are small relative to the total pages fetched. Matching is
// done with decimal equality rather than a stringified price key so that
// equal prices with different scales still collapse.
func (b *OrderBook) Add(o Order) (merged bool) {
	entry, ok := b.entries[o.TypeID]
	if !ok {
		entry = &BookEntry{}
		b.entries[o.TypeID] = entry
		b.types = append(b.types, o.TypeID)
	}

	side := &entry.Sell
	if o.Side == SideBuy {
		side = &entry.Buy
	}

	for i := range *side {
		if (*side)[i].CanMerge(o) {
			updated := (*side)[i]
			updated.VolumeRemain += o.VolumeRemain
			(*side)[i] = updated
			return true
		}
	}

	*side = append(*side, o)
	return false
}

// Entry returns the aggregated listings for one commodity type, or nil when
// the type never appeared in the feed.
func (b *OrderBook) Entry(typeID int32) *BookEntry {
	return b.entries[typeID]
}

// Types returns the commodity types in the order they first appeared.
func (b *OrderBook) Types() []int32 {
	return b.types
}

// Len returns the number of distinct commodity types in the book.
func (b *OrderBook) Len() int {
	return len(b.types)
}
