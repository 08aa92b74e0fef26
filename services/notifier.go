package services

import (
	"context"
	"image"
)

// Notifier delivers game events to users. Implementations own the transport;
// the core only decides what to send and to whom.
type Notifier interface {
	OnPrizeRevealed(ctx context.Context, prizeID uint, teaser image.Image, recipients []string) error
	OnWin(ctx context.Context, userID string, prizeID uint, full image.Image) error
	OnAlreadyWon(ctx context.Context, userID string, prizeID uint) error
	OnExhausted(ctx context.Context, userID string, prizeID uint) error
	OnResendDelivered(ctx context.Context, userID string, prizeID uint, full image.Image) error
	// OnAssetMissing apologises when a prize image cannot be loaded.
	OnAssetMissing(ctx context.Context, userID string, prizeID uint) error
}
