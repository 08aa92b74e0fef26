package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"image-giveaway/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointsLedger keeps per-user point balances. Every mutation is a single
// conditional statement, so concurrent callers never lose an update and a
// balance never drops below zero.
type PointsLedger struct {
	DB *gorm.DB
}

func NewPointsLedger(db *gorm.DB) *PointsLedger {
	return &PointsLedger{DB: db}
}

// WithDB returns a ledger bound to tx.
func (l *PointsLedger) WithDB(tx *gorm.DB) *PointsLedger {
	return &PointsLedger{DB: tx}
}

// Credit adds amount to the user's balance, creating it on first use.
func (l *PointsLedger) Credit(ctx context.Context, userID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	row := models.PointsBalance{UserID: userID, Points: amount}
	err := l.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points": gorm.Expr("points.points + ?", amount),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to credit %d points to %s: %w", amount, userID, err)
	}
	return nil
}

// Debit subtracts amount only if the balance covers it. It reports false,
// with nothing changed, when it does not.
func (l *PointsLedger) Debit(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	result := l.DB.WithContext(ctx).
		Model(&models.PointsBalance{}).
		Where("user_id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if result.Error != nil {
		return false, fmt.Errorf("failed to debit %d points from %s: %w", amount, userID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Balance returns 0 for users that never received points.
func (l *PointsLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var row models.PointsBalance
	err := l.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Points, nil
}

// DeferCredit records a credit that could not be applied so it can be
// retried later by RetryPending.
func (l *PointsLedger) DeferCredit(ctx context.Context, userID string, amount int64, reason string, cause error) error {
	pending := models.PendingCredit{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: amount,
		Reason: reason,
	}
	if cause != nil {
		pending.LastError = cause.Error()
	}
	return l.DB.WithContext(ctx).Create(&pending).Error
}

// RetryPending applies deferred credits, oldest first. Each credit and the
// removal of its pending row commit together. It returns how many were applied.
func (l *PointsLedger) RetryPending(ctx context.Context, limit int) (int, error) {
	var pending []models.PendingCredit
	if err := l.DB.WithContext(ctx).Order("created_at ASC").Limit(limit).Find(&pending).Error; err != nil {
		return 0, err
	}

	applied := 0
	for _, p := range pending {
		err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := l.WithDB(tx).Credit(ctx, p.UserID, p.Amount); err != nil {
				return err
			}
			return tx.Delete(&models.PendingCredit{}, "id = ?", p.ID).Error
		})
		if err != nil {
			log.Printf("[CreditRetry] credit %s for %s failed again: %v", p.ID, p.UserID, err)
			l.DB.WithContext(ctx).Model(&models.PendingCredit{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": err.Error(),
				})
			continue
		}
		applied++
	}
	return applied, nil
}
