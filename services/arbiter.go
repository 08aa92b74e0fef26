package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"image-giveaway/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// WinnerCap is how many distinct users can win one prize.
	WinnerCap = 3
	// WinReward is credited to every winner.
	WinReward int64 = 5
)

type ClaimOutcome string

const (
	ClaimWon            ClaimOutcome = "won"
	ClaimAlreadyWon     ClaimOutcome = "already_won"
	ClaimPrizeExhausted ClaimOutcome = "prize_exhausted"
)

// errLostInsertRace marks a unique-index rejection of our own insert; it
// rolls the transaction back and is reported as AlreadyWon.
var errLostInsertRace = errors.New("winner row already exists")

// ClaimArbiter decides who wins a prize. Claims on the same prize are
// serialized; claims on different prizes never wait on each other.
type ClaimArbiter struct {
	DB      *gorm.DB
	Catalog *PrizeCatalog
	Ledger  *PointsLedger

	locks *keyedMutex
	now   func() time.Time
}

func NewClaimArbiter(db *gorm.DB, catalog *PrizeCatalog, ledger *PointsLedger) *ClaimArbiter {
	return &ClaimArbiter{
		DB:      db,
		Catalog: catalog,
		Ledger:  ledger,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Claim records userID as a winner of prizeID if fewer than WinnerCap users
// have won it, then credits WinReward. A failed credit never undoes the win;
// it is deferred for the credit retry worker instead.
func (a *ClaimArbiter) Claim(ctx context.Context, userID string, prizeID uint) (ClaimOutcome, error) {
	unlock := a.locks.Lock(strconv.FormatUint(uint64(prizeID), 10))
	defer unlock()

	var outcome ClaimOutcome
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on postgres; sqlite serializes writers on its own.
		var prize models.Prize
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&prize, prizeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("prize %d: %w", prizeID, ErrPrizeNotFound)
			}
			return err
		}
		if prize.Status == models.PrizeStatusUnused {
			return fmt.Errorf("prize %d: %w", prizeID, ErrPrizeNotRevealed)
		}

		var mine int64
		if err := tx.Model(&models.Winner{}).
			Where("user_id = ? AND prize_id = ?", userID, prizeID).
			Count(&mine).Error; err != nil {
			return err
		}
		if mine > 0 {
			outcome = ClaimAlreadyWon
			return nil
		}

		var winners int64
		if err := tx.Model(&models.Winner{}).
			Where("prize_id = ?", prizeID).
			Count(&winners).Error; err != nil {
			return err
		}
		if winners >= WinnerCap {
			outcome = ClaimPrizeExhausted
			return nil
		}

		win := models.Winner{
			ID:      uuid.NewString(),
			UserID:  userID,
			PrizeID: prizeID,
			WonAt:   a.now(),
		}
		if err := tx.Create(&win).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errLostInsertRace
			}
			return err
		}

		if winners+1 == WinnerCap && prize.Status == models.PrizeStatusActive {
			if err := a.Catalog.WithDB(tx).MarkUsed(ctx, prizeID); err != nil {
				return err
			}
		}
		outcome = ClaimWon
		return nil
	})
	if errors.Is(err, errLostInsertRace) {
		return ClaimAlreadyWon, nil
	}
	if err != nil {
		return "", err
	}

	if outcome == ClaimWon {
		a.reward(ctx, userID, prizeID)
	}
	return outcome, nil
}

func (a *ClaimArbiter) reward(ctx context.Context, userID string, prizeID uint) {
	err := a.Ledger.Credit(ctx, userID, WinReward)
	if err == nil {
		return
	}
	log.Printf("[ClaimArbiter] reward credit for %s on prize %d failed, deferring: %v", userID, prizeID, err)
	reason := fmt.Sprintf("prize_%d_win", prizeID)
	if derr := a.Ledger.DeferCredit(ctx, userID, WinReward, reason, err); derr != nil {
		log.Printf("[ClaimArbiter] could not defer credit for %s on prize %d: %v", userID, prizeID, derr)
	}
}

// WinnerCount returns how many users have won prizeID.
func (a *ClaimArbiter) WinnerCount(ctx context.Context, prizeID uint) (int64, error) {
	var n int64
	err := a.DB.WithContext(ctx).Model(&models.Winner{}).Where("prize_id = ?", prizeID).Count(&n).Error
	return n, err
}
