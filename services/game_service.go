package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"image-giveaway/assets"
	"image-giveaway/imageproc"
	"image-giveaway/models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResendCost is what a resend of the last revealed prize costs.
const ResendCost int64 = 5

// maxRevealAttempts bounds how many prizes with a missing original one reveal
// cycle skips.
const maxRevealAttempts = 5

type ResendOutcome string

const (
	ResendEnqueued           ResendOutcome = "enqueued"
	ResendInsufficientPoints ResendOutcome = "insufficient_points"
	ResendNoRecentPrize      ResendOutcome = "no_recent_prize"
)

type RevealOutcome string

const (
	RevealPublished     RevealOutcome = "published"
	RevealNoUnusedPrize RevealOutcome = "no_unused_prize"
	// RevealSkipped means another reveal cycle was still running.
	RevealSkipped RevealOutcome = "skipped"
)

type RevealResult struct {
	Outcome    RevealOutcome `json:"outcome"`
	PrizeID    uint          `json:"prize_id,omitempty"`
	ImageRef   string        `json:"image_ref,omitempty"`
	Recipients int           `json:"recipients"`
}

type RatingEntry struct {
	DisplayName string `json:"display_name"`
	WinCount    int64  `json:"win_count"`
}

// GameService is the entry point the transport layer talks to. It wires the
// catalog, ledger, arbiter and resend queue around one database handle.
type GameService struct {
	DB       *gorm.DB
	Assets   assets.Store
	Notifier Notifier

	Catalog *PrizeCatalog
	Ledger  *PointsLedger
	Arbiter *ClaimArbiter
	Resends *ResendQueue
	State   *GameStateStore
	Collage *CollageComposer

	// cycleMu keeps reveal cycles and resend drains from overlapping.
	cycleMu sync.Mutex
}

func NewGameService(db *gorm.DB, store assets.Store, notifier Notifier) *GameService {
	catalog := NewPrizeCatalog(db)
	ledger := NewPointsLedger(db)
	return &GameService{
		DB:       db,
		Assets:   store,
		Notifier: notifier,
		Catalog:  catalog,
		Ledger:   ledger,
		Arbiter:  NewClaimArbiter(db, catalog, ledger),
		Resends:  NewResendQueue(db),
		State:    NewGameStateStore(db),
		Collage:  NewCollageComposer(store),
	}
}

// RegisterUser is a no-op for known users; it reports whether a user was created.
func (s *GameService) RegisterUser(ctx context.Context, userID, displayName string) (bool, error) {
	user := models.User{ID: userID, DisplayName: displayName}
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return false, fmt.Errorf("failed to register user %s: %w", userID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GameService) IsRegistered(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}

// ClaimPrize runs the claim through the arbiter and tells the user how it went.
func (s *GameService) ClaimPrize(ctx context.Context, userID string, prizeID uint) (ClaimOutcome, error) {
	registered, err := s.IsRegistered(ctx, userID)
	if err != nil {
		return "", err
	}
	if !registered {
		return "", ErrUserNotRegistered
	}

	outcome, err := s.Arbiter.Claim(ctx, userID, prizeID)
	if err != nil {
		return "", err
	}

	var notifyErr error
	switch outcome {
	case ClaimWon:
		img, err := s.prizeImage(ctx, prizeID)
		if err != nil {
			log.Printf("[GameService] prize %d image unavailable for winner %s: %v", prizeID, userID, err)
			notifyErr = s.Notifier.OnAssetMissing(ctx, userID, prizeID)
			break
		}
		notifyErr = s.Notifier.OnWin(ctx, userID, prizeID, img)
	case ClaimAlreadyWon:
		notifyErr = s.Notifier.OnAlreadyWon(ctx, userID, prizeID)
	case ClaimPrizeExhausted:
		notifyErr = s.Notifier.OnExhausted(ctx, userID, prizeID)
	}
	if notifyErr != nil {
		log.Printf("[GameService] notify %s about %s on prize %d: %v", userID, outcome, prizeID, notifyErr)
	}
	return outcome, nil
}

// RequestResend charges ResendCost and queues the last revealed prize for
// delivery. The debit and the enqueue commit together.
func (s *GameService) RequestResend(ctx context.Context, userID string) (ResendOutcome, error) {
	snap, err := s.State.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if !snap.HasLastActive {
		return ResendNoRecentPrize, nil
	}

	outcome := ResendInsufficientPoints
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.Ledger.WithDB(tx).Debit(ctx, userID, ResendCost)
		if err != nil || !ok {
			return err
		}
		if err := s.Resends.WithDB(tx).Enqueue(ctx, userID, snap.LastActivePrizeID); err != nil {
			return err
		}
		outcome = ResendEnqueued
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// GetRating lists users by number of prizes won, most first.
func (s *GameService) GetRating(ctx context.Context) ([]RatingEntry, error) {
	var rating []RatingEntry
	err := s.DB.WithContext(ctx).
		Model(&models.Winner{}).
		Select("users.display_name AS display_name, COUNT(*) AS win_count").
		Joins("JOIN users ON users.id = winners.user_id").
		Group("winners.user_id, users.display_name").
		Order("win_count DESC, users.display_name ASC").
		Scan(&rating).Error
	return rating, err
}

func (s *GameService) GetPoints(ctx context.Context, userID string) (int64, error) {
	return s.Ledger.Balance(ctx, userID)
}

// GetProgressCollage returns nil when there is nothing to show.
func (s *GameService) GetProgressCollage(ctx context.Context, userID string) (image.Image, error) {
	all, err := s.Catalog.ListAllImageRefs(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	won, err := s.Catalog.WonImageRefs(ctx, userID)
	if err != nil {
		return nil, err
	}

	revealed := make(map[string]bool, len(won))
	for _, ref := range won {
		revealed[ref] = true
	}
	return s.Collage.Compose(ctx, revealed, all)
}

// AdminSeedPrizes adds prizes for refs. With no refs it seeds every image in
// the originals store.
func (s *GameService) AdminSeedPrizes(ctx context.Context, imageRefs []string) (int, error) {
	if len(imageRefs) == 0 {
		refs, err := s.Assets.List(ctx, assets.Originals)
		if err != nil {
			return 0, fmt.Errorf("failed to list originals: %w", err)
		}
		imageRefs = refs
	}
	return s.Catalog.Seed(ctx, imageRefs)
}

// UploadPrize stores an image under a slug of its file name and seeds it.
func (s *GameService) UploadPrize(ctx context.Context, filename string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%s is not a supported image: %w", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		ext, format = ".jpg", imaging.JPEG
	}
	name := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if name == "" {
		name = uuid.NewString()
	}
	ref := name + ext

	if err := s.Assets.Save(ctx, assets.Originals, ref, bytes.NewReader(data), assets.ContentType(format)); err != nil {
		return "", err
	}
	if _, err := s.Catalog.Seed(ctx, []string{ref}); err != nil {
		return "", err
	}
	return ref, nil
}

// RevealNext runs one reveal cycle: pick an unused prize, write its teaser,
// activate it (retiring the previous one) and broadcast the teaser.
func (s *GameService) RevealNext(ctx context.Context) (RevealResult, error) {
	if !s.cycleMu.TryLock() {
		return RevealResult{Outcome: RevealSkipped}, nil
	}
	defer s.cycleMu.Unlock()

	prize, src, err := s.pickRevealable(ctx)
	if err != nil {
		return RevealResult{}, err
	}
	if prize == nil {
		return RevealResult{Outcome: RevealNoUnusedPrize}, nil
	}

	teaser := imageproc.Obscure(src)
	if err := assets.SaveImage(ctx, s.Assets, assets.Teasers, prize.ImageRef, teaser); err != nil {
		return RevealResult{}, fmt.Errorf("failed to store teaser for prize %d: %w", prize.ID, err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.Catalog.WithDB(tx)
		prev, err := s.State.WithDB(tx).Snapshot(ctx)
		if err != nil {
			return err
		}
		if err := catalog.MarkActive(ctx, prize.ID); err != nil {
			return err
		}
		if prev.HasLastActive && prev.LastActivePrizeID != prize.ID {
			old, err := catalog.Get(ctx, prev.LastActivePrizeID)
			if err != nil && !errors.Is(err, ErrPrizeNotFound) {
				return err
			}
			if old != nil && old.Status == models.PrizeStatusActive {
				if err := catalog.MarkUsed(ctx, old.ID); err != nil {
					return err
				}
			}
		}
		return s.State.setLastActivePrize(ctx, tx, prize.ID)
	})
	if err != nil {
		return RevealResult{}, err
	}

	recipients, err := s.userIDs(ctx)
	if err != nil {
		return RevealResult{}, err
	}
	if err := s.Notifier.OnPrizeRevealed(ctx, prize.ID, teaser, recipients); err != nil {
		log.Printf("[GameService] broadcast of prize %d failed: %v", prize.ID, err)
	}
	return RevealResult{Outcome: RevealPublished, PrizeID: prize.ID, ImageRef: prize.ImageRef, Recipients: len(recipients)}, nil
}

// pickRevealable picks an unused prize whose original loads. Prizes with a
// missing original are skipped, up to maxRevealAttempts picks; if every pick
// was missing, the last ErrAssetNotFound is returned.
func (s *GameService) pickRevealable(ctx context.Context) (*models.Prize, image.Image, error) {
	var (
		skipped []uint
		lastErr error
	)
	for attempt := 0; attempt < maxRevealAttempts; attempt++ {
		prize, err := s.Catalog.PickRandomUnused(ctx, skipped...)
		if err != nil {
			return nil, nil, err
		}
		if prize == nil {
			break
		}

		src, err := assets.LoadImage(ctx, s.Assets, assets.Originals, prize.ImageRef)
		if err == nil {
			return prize, src, nil
		}
		if !errors.Is(err, assets.ErrAssetNotFound) {
			return nil, nil, fmt.Errorf("prize %d: %w", prize.ID, err)
		}
		log.Printf("[GameService] original of prize %d (%s) is missing, trying another", prize.ID, prize.ImageRef)
		skipped = append(skipped, prize.ID)
		lastErr = fmt.Errorf("prize %d: %w", prize.ID, err)
	}
	if lastErr != nil {
		return nil, nil, lastErr
	}
	return nil, nil, nil
}

// DeliverResends drains the resend queue and sends each image. Failed
// deliveries are logged and not queued again.
func (s *GameService) DeliverResends(ctx context.Context) (int, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	batch, err := s.Resends.DrainAll(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, req := range batch {
		img, err := s.prizeImage(ctx, req.PrizeID)
		if err != nil {
			log.Printf("[ResendDrain] prize %d image unavailable for %s: %v", req.PrizeID, req.UserID, err)
			if nerr := s.Notifier.OnAssetMissing(ctx, req.UserID, req.PrizeID); nerr != nil {
				log.Printf("[ResendDrain] apology to %s failed: %v", req.UserID, nerr)
			}
			continue
		}
		if err := s.Notifier.OnResendDelivered(ctx, req.UserID, req.PrizeID, img); err != nil {
			log.Printf("[ResendDrain] delivery of prize %d to %s failed, not re-enqueued: %v", req.PrizeID, req.UserID, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (s *GameService) prizeImage(ctx context.Context, prizeID uint) (image.Image, error) {
	ref, err := s.Catalog.GetImageRef(ctx, prizeID)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return nil, fmt.Errorf("prize %d: %w", prizeID, ErrPrizeNotFound)
	}
	return assets.LoadImage(ctx, s.Assets, assets.Originals, ref)
}

func (s *GameService) userIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.User{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}
