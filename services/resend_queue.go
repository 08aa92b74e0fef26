package services

import (
	"context"

	"image-giveaway/models"

	"gorm.io/gorm"
)

// ResendQueue is the durable list of pending image resends.
type ResendQueue struct {
	DB *gorm.DB
}

func NewResendQueue(db *gorm.DB) *ResendQueue {
	return &ResendQueue{DB: db}
}

// WithDB returns a queue bound to tx.
func (q *ResendQueue) WithDB(tx *gorm.DB) *ResendQueue {
	return &ResendQueue{DB: tx}
}

// Enqueue appends a request; duplicates are kept.
func (q *ResendQueue) Enqueue(ctx context.Context, userID string, prizeID uint) error {
	return q.DB.WithContext(ctx).Create(&models.ResendRequest{UserID: userID, PrizeID: prizeID}).Error
}

// DrainAll returns every queued request in arrival order and removes exactly
// those rows in the same transaction. Requests enqueued meanwhile stay queued.
func (q *ResendQueue) DrainAll(ctx context.Context) ([]models.ResendRequest, error) {
	var batch []models.ResendRequest
	err := q.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id ASC").Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]uint, len(batch))
		for i, r := range batch {
			ids[i] = r.ID
		}
		return tx.Where("id IN ?", ids).Delete(&models.ResendRequest{}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (q *ResendQueue) Len(ctx context.Context) (int64, error) {
	var n int64
	err := q.DB.WithContext(ctx).Model(&models.ResendRequest{}).Count(&n).Error
	return n, err
}
