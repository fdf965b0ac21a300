package models

import "time"

const (
	CategoryTable = "lab_stock_categories"
	StockTable    = "lab_stock_items"
	MovementTable = "lab_stock_movements"
)

// Movement kinds.
const (
	MovementWithdrawal = "withdrawal"
	MovementAdjustment = "adjustment"
)

// Category is an inventory bucket ("consumables", "tools-and-equipment").
// Listing an unknown category creates it, so a fresh deployment needs no
// seeding step for buckets.
type Category struct {
	Key       string    `gorm:"primaryKey;size:80" json:"key"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return CategoryTable }

type StockItem struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	Category string  `gorm:"size:80;index;not null" json:"category"`
	Name     string  `gorm:"size:200;not null" json:"name"`
	Location string  `gorm:"size:200" json:"location,omitempty"`
	Quantity float64 `gorm:"type:numeric(20,4);not null;default:0" json:"quantity"`
	ImageKey string  `gorm:"size:255" json:"imageKey,omitempty"`
	Tags     string  `gorm:"size:500" json:"tags,omitempty"` // comma-joined

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StockItem) TableName() string { return StockTable }

// Movement is one append-only ledger row. Exactly one is written per
// committed withdrawal or adjustment, in the same transaction as the
// quantity change. Rows are never updated or deleted.
type Movement struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Kind string `gorm:"size:20;index;not null" json:"kind"`

	ItemID   string `gorm:"type:uuid;index;not null" json:"itemId"`
	ItemName string `gorm:"size:200;not null" json:"itemName"` // denormalized at write time

	// Project the withdrawal is charged to; empty for adjustments.
	Project string `gorm:"size:80" json:"project,omitempty"`

	ActorID   string `gorm:"type:uuid;index;not null" json:"actorId"`
	ActorName string `gorm:"size:255;not null" json:"actorName"`

	Amount    float64 `gorm:"type:numeric(20,4);not null;default:0" json:"amount"`
	QtyBefore float64 `gorm:"type:numeric(20,4);not null" json:"qtyBefore"`
	QtyAfter  float64 `gorm:"type:numeric(20,4);not null" json:"qtyAfter"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Movement) TableName() string { return MovementTable }
