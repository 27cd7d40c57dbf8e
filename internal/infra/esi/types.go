package esi

import "github.com/shopspring/decimal"

// OrderRecord mirrors one raw market order from the region order endpoint.
type OrderRecord struct {
	OrderID      int64           `json:"order_id"`
	TypeID       int32           `json:"type_id"`
	Price        decimal.Decimal `json:"price"`
	VolumeRemain int64           `json:"volume_remain"`
	SystemID     int32           `json:"system_id"`
	IsBuyOrder   bool            `json:"is_buy_order"`
	LocationID   int64           `json:"location_id"`
}

// ItemType is the static metadata of a commodity type.
type ItemType struct {
	TypeID         int32           `json:"type_id"`
	Name           string          `json:"name"`
	PackagedVolume decimal.Decimal `json:"packaged_volume"`
	Volume         decimal.Decimal `json:"volume"`
}

// NameRef is one resolved universe name.
type NameRef struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
}
