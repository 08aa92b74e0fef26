package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"image-giveaway/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameSnapshot is a point-in-time copy of the game state.
type GameSnapshot struct {
	LastActivePrizeID uint
	HasLastActive     bool
	Version           int64
}

// GameStateStore persists the versioned game state. Only the reveal cycle
// writes it; everyone else reads snapshots.
type GameStateStore struct {
	DB *gorm.DB
}

func NewGameStateStore(db *gorm.DB) *GameStateStore {
	return &GameStateStore{DB: db}
}

// WithDB returns a store bound to tx.
func (s *GameStateStore) WithDB(tx *gorm.DB) *GameStateStore {
	return &GameStateStore{DB: tx}
}

func (s *GameStateStore) Snapshot(ctx context.Context) (GameSnapshot, error) {
	var row models.GameState
	err := s.DB.WithContext(ctx).Where(map[string]interface{}{"key": models.StateKeyLastActivePrize}).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GameSnapshot{}, nil
	}
	if err != nil {
		return GameSnapshot{}, err
	}

	id, err := strconv.ParseUint(row.Value, 10, 64)
	if err != nil {
		return GameSnapshot{}, fmt.Errorf("corrupt %s value %q: %w", row.Key, row.Value, err)
	}
	return GameSnapshot{LastActivePrizeID: uint(id), HasLastActive: true, Version: row.Version}, nil
}

// setLastActivePrize must run inside the reveal transaction.
func (s *GameStateStore) setLastActivePrize(ctx context.Context, tx *gorm.DB, prizeID uint) error {
	row := models.GameState{
		Key:     models.StateKeyLastActivePrize,
		Value:   strconv.FormatUint(uint64(prizeID), 10),
		Version: 1,
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":   row.Value,
			"version": gorm.Expr("state.version + 1"),
		}),
	}).Create(&row).Error
}
