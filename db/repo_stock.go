package db

import (
	"context"
	"errors"
	"fmt"

	"protolab/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound  = errors.New("stock item not found")
	ErrNegativeStock = errors.New("quantity must not be negative")
)

// EnsureCategory upserts an inventory category. Repeated calls are no-ops.
func (r *Repo) EnsureCategory(ctx context.Context, key, name string) (*models.Category, error) {
	if name == "" {
		name = key
	}
	cat := models.Category{Key: key}
	err := r.DB.WithContext(ctx).
		Where(models.Category{Key: key}).
		Attrs(models.Category{Name: name}).
		FirstOrCreate(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListStock returns the items of a category, creating the category on first
// use. A brand-new category yields an empty (non-nil) list.
func (r *Repo) ListStock(ctx context.Context, category string) ([]models.StockItem, error) {
	if _, err := r.EnsureCategory(ctx, category, ""); err != nil {
		return nil, err
	}
	items := []models.StockItem{}
	err := r.DB.WithContext(ctx).
		Where("category = ?", category).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *Repo) CreateStockItem(ctx context.Context, it *models.StockItem) error {
	if it.Quantity < 0 {
		return ErrNegativeStock
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if _, err := r.EnsureCategory(ctx, it.Category, ""); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(it).Error
}

func (r *Repo) FindStockItem(ctx context.Context, id string) (*models.StockItem, error) {
	var it models.StockItem
	err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) UpdateStockItem(ctx context.Context, id, name, location, tags string) error {
	res := r.DB.WithContext(ctx).Model(&models.StockItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":     name,
			"location": location,
			"tags":     tags,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteStockItem removes the item row and returns its image key so the
// caller can delete the backing object. Movements referencing the item are
// kept; the ledger is append-only.
func (r *Repo) DeleteStockItem(ctx context.Context, id string) (imageKey string, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.StockItem
		if err := lockForUpdate(tx).First(&it, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		imageKey = it.ImageKey
		return tx.Delete(&it).Error
	})
	return imageKey, err
}

// WithdrawStock decrements an item's quantity and appends the ledger row in
// one transaction. The row is re-read under a lock, so the before/after
// quantities recorded are the ones actually applied; the new quantity is
// clamped at zero when a concurrent withdrawal shrank the stock since the
// caller last looked.
func (r *Repo) WithdrawStock(ctx context.Context, itemID string, amount float64, actorID, actorName, project string) (*models.Movement, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdraw amount must be positive, got %v", amount)
	}

	var mv *models.Movement
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.StockItem
		if err := lockForUpdate(tx).First(&it, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		before := it.Quantity
		after := before - amount
		if after < 0 {
			after = 0
		}

		if err := tx.Model(&models.StockItem{}).
			Where("id = ?", it.ID).
			Update("quantity", after).Error; err != nil {
			return err
		}

		m := &models.Movement{
			ID:        uuid.NewString(),
			Kind:      models.MovementWithdrawal,
			ItemID:    it.ID,
			ItemName:  it.Name,
			Project:   project,
			ActorID:   actorID,
			ActorName: actorName,
			Amount:    amount,
			QtyBefore: before,
			QtyAfter:  after,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		mv = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// AdjustStock sets an item's quantity to an absolute value (a recount) and
// appends the ledger row in the same transaction.
func (r *Repo) AdjustStock(ctx context.Context, itemID string, newQty float64, actorID, actorName string) (*models.Movement, error) {
	if newQty < 0 {
		return nil, ErrNegativeStock
	}

	var mv *models.Movement
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.StockItem
		if err := lockForUpdate(tx).First(&it, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		before := it.Quantity
		if err := tx.Model(&models.StockItem{}).
			Where("id = ?", it.ID).
			Update("quantity", newQty).Error; err != nil {
			return err
		}

		m := &models.Movement{
			ID:        uuid.NewString(),
			Kind:      models.MovementAdjustment,
			ItemID:    it.ID,
			ItemName:  it.Name,
			ActorID:   actorID,
			ActorName: actorName,
			QtyBefore: before,
			QtyAfter:  newQty,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		mv = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// ListMovements returns ledger rows, newest first. itemID and kind are
// optional filters.
func (r *Repo) ListMovements(ctx context.Context, itemID, kind string, limit int) ([]models.Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tx := r.DB.WithContext(ctx).Model(&models.Movement{}).Order("created_at DESC").Limit(limit)
	if itemID != "" {
		tx = tx.Where("item_id = ?", itemID)
	}
	if kind != "" {
		tx = tx.Where("kind = ?", kind)
	}
	ms := []models.Movement{}
	err := tx.Find(&ms).Error
	return ms, err
}
