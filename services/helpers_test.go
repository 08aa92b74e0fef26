package services

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"image-giveaway/assets"
	"image-giveaway/config"
	"image-giveaway/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, filepath.Join(t.TempDir(), "giveaway.db")+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestStore(t *testing.T) (*assets.FileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := assets.NewFileStore(root, "img", "hidden_img")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, root
}

// gradient is a non-uniform test picture; seed varies the colours.
func gradient(w, h int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x*4) + seed, G: uint8(y*4) + seed, B: seed, A: 255})
		}
	}
	return img
}

func putOriginal(t *testing.T, store assets.Store, ref string, seed uint8) {
	t.Helper()
	if err := assets.SaveImage(context.Background(), store, assets.Originals, ref, gradient(60, 40, seed)); err != nil {
		t.Fatalf("save original %s: %v", ref, err)
	}
}

type notification struct {
	kind    string
	userID  string
	prizeID uint
	hasImg  bool
	users   []string
}

// recordingNotifier captures every outbound call.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
	failOn string
}

func (n *recordingNotifier) record(ev notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	if n.failOn == ev.kind {
		return errDeliveryFailed
	}
	return nil
}

func (n *recordingNotifier) OnPrizeRevealed(_ context.Context, prizeID uint, teaser image.Image, recipients []string) error {
	return n.record(notification{kind: "revealed", prizeID: prizeID, hasImg: teaser != nil, users: recipients})
}

func (n *recordingNotifier) OnWin(_ context.Context, userID string, prizeID uint, full image.Image) error {
	return n.record(notification{kind: "win", userID: userID, prizeID: prizeID, hasImg: full != nil})
}

func (n *recordingNotifier) OnAlreadyWon(_ context.Context, userID string, prizeID uint) error {
	return n.record(notification{kind: "already_won", userID: userID, prizeID: prizeID})
}

func (n *recordingNotifier) OnExhausted(_ context.Context, userID string, prizeID uint) error {
	return n.record(notification{kind: "exhausted", userID: userID, prizeID: prizeID})
}

func (n *recordingNotifier) OnResendDelivered(_ context.Context, userID string, prizeID uint, full image.Image) error {
	return n.record(notification{kind: "resend", userID: userID, prizeID: prizeID, hasImg: full != nil})
}

func (n *recordingNotifier) OnAssetMissing(_ context.Context, userID string, prizeID uint) error {
	return n.record(notification{kind: "asset_missing", userID: userID, prizeID: prizeID})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.kind
	}
	return out
}

type deliveryError string

func (e deliveryError) Error() string { return string(e) }

const errDeliveryFailed = deliveryError("delivery failed")
