package db

import (
	"context"
	"errors"
	"time"

	"protolab/models"

	"gorm.io/gorm"
)

var ErrInviteInvalid = errors.New("invite invalid or expired")

func (r *Repo) CreateInvite(ctx context.Context, email, token string, expiresAt time.Time, createdBy string, bootstrap bool) (*models.Invite, error) {
	inv := &models.Invite{
		Email:     email,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
		Bootstrap: bootstrap,
	}
	if err := r.DB.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// ConsumeInvite validates a registration token and marks it used, atomically
// so one invite admits exactly one account.
func (r *Repo) ConsumeInvite(ctx context.Context, token string) (*models.Invite, error) {
	var inv models.Invite
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteInvalid
			}
			return err
		}
		if inv.UsedAt != nil || time.Now().After(inv.ExpiresAt) {
			return ErrInviteInvalid
		}
		now := time.Now().UTC()
		inv.UsedAt = &now
		return tx.Save(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
