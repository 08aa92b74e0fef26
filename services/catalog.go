package services

import (
	"context"
	"errors"
	"fmt"

	"image-giveaway/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrizeCatalog owns the prize inventory and its status transitions.
type PrizeCatalog struct {
	DB *gorm.DB
}

func NewPrizeCatalog(db *gorm.DB) *PrizeCatalog {
	return &PrizeCatalog{DB: db}
}

// WithDB returns a catalog bound to tx.
func (c *PrizeCatalog) WithDB(tx *gorm.DB) *PrizeCatalog {
	return &PrizeCatalog{DB: tx}
}

// Seed inserts one unused prize per ref. Refs already in the catalog are
// skipped, so re-seeding leaves existing prizes untouched.
func (c *PrizeCatalog) Seed(ctx context.Context, imageRefs []string) (int, error) {
	seen := make(map[string]bool, len(imageRefs))
	prizes := make([]models.Prize, 0, len(imageRefs))
	for _, ref := range imageRefs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		prizes = append(prizes, models.Prize{ImageRef: ref, Status: models.PrizeStatusUnused})
	}
	if len(prizes) == 0 {
		return 0, nil
	}

	result := c.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "image_ref"}}, DoNothing: true}).
		Create(&prizes)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed prizes: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// PickRandomUnused returns a uniformly chosen unused prize outside exclude, or
// nil when there is none. The prize status is not changed.
func (c *PrizeCatalog) PickRandomUnused(ctx context.Context, exclude ...uint) (*models.Prize, error) {
	query := c.DB.WithContext(ctx).Where("status = ?", models.PrizeStatusUnused)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var prize models.Prize
	err := query.Order("RANDOM()").Take(&prize).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

func (c *PrizeCatalog) Get(ctx context.Context, prizeID uint) (*models.Prize, error) {
	var prize models.Prize
	if err := c.DB.WithContext(ctx).First(&prize, prizeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prize %d: %w", prizeID, ErrPrizeNotFound)
		}
		return nil, err
	}
	return &prize, nil
}

func (c *PrizeCatalog) MarkActive(ctx context.Context, prizeID uint) error {
	return c.transition(ctx, prizeID, models.PrizeStatusUnused, models.PrizeStatusActive)
}

func (c *PrizeCatalog) MarkUsed(ctx context.Context, prizeID uint) error {
	return c.transition(ctx, prizeID, models.PrizeStatusActive, models.PrizeStatusUsed)
}

// transition is a compare-and-set on status; it never moves a prize backwards.
func (c *PrizeCatalog) transition(ctx context.Context, prizeID uint, from, to models.PrizeStatus) error {
	result := c.DB.WithContext(ctx).
		Model(&models.Prize{}).
		Where("id = ? AND status = ?", prizeID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	prize, err := c.Get(ctx, prizeID)
	if err != nil {
		return err
	}
	return fmt.Errorf("prize %d is %s, cannot move %s -> %s: %w", prizeID, prize.Status, from, to, ErrInvalidTransition)
}

// GetImageRef returns "" and no error when the prize does not exist.
func (c *PrizeCatalog) GetImageRef(ctx context.Context, prizeID uint) (string, error) {
	prize, err := c.Get(ctx, prizeID)
	if errors.Is(err, ErrPrizeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return prize.ImageRef, nil
}

// ListAllImageRefs returns every ref by ascending prize id; this is the
// canonical tile order of the progress collage.
func (c *PrizeCatalog) ListAllImageRefs(ctx context.Context) ([]string, error) {
	var refs []string
	err := c.DB.WithContext(ctx).
		Model(&models.Prize{}).
		Order("id ASC").
		Pluck("image_ref", &refs).Error
	return refs, err
}

// WonImageRefs returns the refs of every prize userID has won.
func (c *PrizeCatalog) WonImageRefs(ctx context.Context, userID string) ([]string, error) {
	var refs []string
	err := c.DB.WithContext(ctx).
		Model(&models.Winner{}).
		Joins("JOIN prizes ON prizes.id = winners.prize_id").
		Where("winners.user_id = ?", userID).
		Order("prizes.id ASC").
		Pluck("prizes.image_ref", &refs).Error
	return refs, err
}
