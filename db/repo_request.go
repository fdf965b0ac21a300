package db

import (
	"context"
	"errors"
	"time"

	"protolab/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRequestNotFound = errors.New("fabrication request not found")

func (r *Repo) CreateRequest(ctx context.Context, req *models.FabRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RequestSubmitted
	}
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *Repo) FindRequest(ctx context.Context, id string) (*models.FabRequest, error) {
	var req models.FabRequest
	err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequests returns requests newest first. requesterID and status are
// optional filters; members pass their own id, admins pass "".
func (r *Repo) ListRequests(ctx context.Context, requesterID, status string) ([]models.FabRequest, error) {
	tx := r.DB.WithContext(ctx).Model(&models.FabRequest{}).Order("created_at DESC")
	if requesterID != "" {
		tx = tx.Where("requester_id = ?", requesterID)
	}
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	reqs := []models.FabRequest{}
	err := tx.Find(&reqs).Error
	return reqs, err
}

// UpdateRequestTracking sets the admin-tracked fields. Nil means "leave as is".
func (r *Repo) UpdateRequestTracking(ctx context.Context, id string, status *string, cost *float64, delivery *time.Time) (*models.FabRequest, error) {
	var req models.FabRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if status != nil {
			req.Status = *status
		}
		if cost != nil {
			req.Cost = *cost
		}
		if delivery != nil {
			req.DeliveryDate = delivery
		}
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
