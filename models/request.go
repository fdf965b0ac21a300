package models

import "time"

const RequestTable = "lab_fab_requests"

// Fabrication request statuses.
const (
	RequestSubmitted  = "submitted"
	RequestApproved   = "approved"
	RequestInProgress = "in_progress"
	RequestDone       = "done"
	RequestRejected   = "rejected"
)

// FabRequest is a member's fabrication request (3D print, laser cut, CNC,
// fixture). Service/project/machine/material are catalog keys; admins track
// status, cost and delivery date.
type FabRequest struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	RequesterID string `gorm:"type:uuid;index;not null" json:"requesterId"`

	Service  string `gorm:"size:80;not null" json:"service"`
	Project  string `gorm:"size:80;not null" json:"project"`
	Machine  string `gorm:"size:80" json:"machine,omitempty"`
	Material string `gorm:"size:80" json:"material,omitempty"`
	Notes    string `gorm:"size:2000" json:"notes,omitempty"`

	AttachmentKey string `gorm:"size:255" json:"attachmentKey,omitempty"`

	Status       string     `gorm:"size:20;index;not null;default:'submitted'" json:"status"`
	Cost         float64    `gorm:"type:numeric(20,4);not null;default:0" json:"cost"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FabRequest) TableName() string { return RequestTable }
